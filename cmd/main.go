package main

import (
	"fmt"
	"os"
	"os/signal"
	"storygenie/internal/cli/scheme/colours"
	"storygenie/internal/config"
	"storygenie/internal/story/genie"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {

	config.Init()
	cfg := config.Load()
	cfg.ApplyLogLevel()

	app := genie.NewStoryGenie(cfg)

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		app.Shutdown()
		fmt.Println("\n" + colours.Warning.Sprint("👋 Goodbye! Sweet dreams! 🌙"))
		os.Exit(0)
	}()

	rootCmd := &cobra.Command{
		Use:   "storygenie",
		Short: "🧞 Bedtime stories made up just for you",
		Long: `
┌─────────────────────────────────────┐
│  🧞 Welcome to StoryGenie! ✨       │
│  Stories made up just for you       │
│  Read aloud with music 🎵          │
└─────────────────────────────────────┘

StoryGenie invents a new children's story about any character you like,
draws it, and reads it aloud with background music. Perfect for bedtime! 🌙
		`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
		},
	}

	// Tell command
	tellCmd := &cobra.Command{
		Use:   "tell",
		Short: "🪄 Make up a new story",
		Long:  "Generate a new story for a character, then read it aloud, save it, or both",
		Run:   app.TellStory,
	}

	// Saved stories
	savedCmd := &cobra.Command{
		Use:   "saved",
		Short: "💾 Manage saved stories",
		Long:  "List, replay or clear the stories you have saved",
	}

	savedListCmd := &cobra.Command{
		Use:   "list",
		Short: "📋 List saved stories",
		Run:   app.ListSaved,
	}

	savedPlayCmd := &cobra.Command{
		Use:   "play [story-id]",
		Short: "📖 Open a saved story",
		Long:  "Open a saved story by its ID or select from a list",
		Args:  cobra.MaximumNArgs(1),
		Run:   app.PlaySaved,
	}

	savedClearCmd := &cobra.Command{
		Use:   "clear",
		Short: "🗑️ Delete all saved stories",
		Run:   app.ClearSaved,
	}

	tracksCmd := &cobra.Command{
		Use:   "tracks",
		Short: "🎵 Show background music per story type",
		Run:   app.ShowTracks,
	}

	languagesCmd := &cobra.Command{
		Use:   "languages",
		Short: "🌍 List story languages",
		Run:   app.ShowLanguages,
	}

	// Settings command
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "⚙️ Show TTS settings",
		Long:  "Show the voice settings and the speech cache",
		Run:   app.ConfigureSettings,
	}

	// Add flags
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "Verbose logging")
	tellCmd.Flags().StringP("character", "c", "", "Who the story is about")
	tellCmd.Flags().StringP("type", "t", "", "Story type, e.g. \"Space Story\". See 'tracks' for music per type")
	tellCmd.Flags().StringP("age", "a", "", "Age group, e.g. 5-7")
	tellCmd.Flags().StringP("language", "l", "English", "Story language. See 'languages' for options")
	tellCmd.Flags().BoolP("read", "r", false, "Start reading aloud as soon as the story is ready")
	tellCmd.Flags().Bool("save", false, "Save the story as soon as it is ready")
	savedPlayCmd.Flags().BoolP("read", "r", false, "Start reading aloud straight away")
	savedClearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	settingsCmd.Flags().Bool("clear-cache", false, "Delete cached speech audio")

	savedCmd.AddCommand(savedListCmd, savedPlayCmd, savedClearCmd)
	rootCmd.AddCommand(tellCmd, savedCmd, tracksCmd, languagesCmd, settingsCmd)

	if err := rootCmd.Execute(); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		app.Shutdown()
		os.Exit(1)
	}
	app.Shutdown()
}
