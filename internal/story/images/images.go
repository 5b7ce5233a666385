// Package images turns story text into illustration URLs.
package images

import (
	"fmt"
	"strings"
)

// DefaultBaseURL serves an image for any prompt appended to it.
const DefaultBaseURL = "https://image.pollinations.ai/prompt/"

// scene is one illustration slot: an excerpt window and its prompt template.
type scene struct {
	start, end int
	template   string
}

// Windows are in characters, not bytes.
var scenes = [...]scene{
	{0, 120, "Cute colorful illustration, kids story, language: %s. Scene: %s"},
	{120, 260, "Magical cartoon style, fairytale, language: %s. Scene: %s"},
	{260, 420, "Happy ending illustration, book art, language: %s. Scene: %s"},
}

// Deriver builds image URLs against a fixed image service.
type Deriver struct {
	BaseURL string
}

// NewDeriver returns a Deriver for baseURL, or the default service if empty.
func NewDeriver(baseURL string) Deriver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Deriver{BaseURL: baseURL}
}

// Derive is Deriver.Derive against the default service.
func Derive(text, language string) []string {
	return NewDeriver("").Derive(text, language)
}

// Derive returns exactly three URLs for the early, middle and late parts of
// the story. Short text gives short or empty excerpts.
func (d Deriver) Derive(text, language string) []string {
	base := d.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	runes := []rune(text)
	urls := make([]string, 0, len(scenes))
	for _, s := range scenes {
		prompt := fmt.Sprintf(s.template, language, excerpt(runes, s.start, s.end))
		urls = append(urls, base+escapeComponent(prompt))
	}
	return urls
}

// Prompts returns the unescaped prompt texts, in slot order.
func Prompts(text, language string) []string {
	runes := []rune(text)
	prompts := make([]string, 0, len(scenes))
	for _, s := range scenes {
		prompts = append(prompts, fmt.Sprintf(s.template, language, excerpt(runes, s.start, s.end)))
	}
	return prompts
}

func excerpt(runes []rune, start, end int) string {
	if start >= len(runes) {
		return ""
	}
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}

// escapeComponent percent-encodes everything except the characters a URI
// component may carry unescaped: A-Z a-z 0-9 - _ . ! ~ * ' ( )
func escapeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
