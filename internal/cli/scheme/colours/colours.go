package colours

import "github.com/fatih/color"

// Color scheme for the CLI
var (
	Title   = color.New(color.FgCyan, color.Bold)
	Author  = color.New(color.FgMagenta)
	Prompt  = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Success = color.New(color.FgGreen)
	Info    = color.New(color.FgBlue)
	Warning = color.New(color.FgYellow)

	// Story text and the illustration links under it
	Story = color.New(color.FgHiWhite)
	Link  = color.New(color.FgHiBlue, color.Underline)
	Muted = color.New(color.FgHiBlack)
)
