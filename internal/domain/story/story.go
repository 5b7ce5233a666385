package story

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Language is one of the narration languages the story service understands
type Language string

const (
	English Language = "English"
	Hindi   Language = "Hindi"
	Marathi Language = "Marathi"
	Urdu    Language = "Urdu"
)

// Languages lists the supported languages in menu order.
var Languages = []Language{English, Hindi, Marathi, Urdu}

var languageTags = map[Language]language.Tag{
	English: language.AmericanEnglish,
	Hindi:   language.MustParse("hi-IN"),
	Marathi: language.MustParse("mr-IN"),
	Urdu:    language.MustParse("ur-IN"),
}

// ParseLanguage accepts a language name in any case. Empty input means English.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return English, nil
	}
	for _, l := range Languages {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q", s)
}

// Tag returns the BCP-47 tag used for speech. Unknown languages fall back to en-US.
func (l Language) Tag() language.Tag {
	if tag, ok := languageTags[l]; ok {
		return tag
	}
	return language.AmericanEnglish
}

// Code returns the speech language code, e.g. "hi-IN".
func (l Language) Code() string {
	return l.Tag().String()
}

// Categories are the story types offered by the request form. Any other
// non-empty value is accepted as a custom category.
var Categories = []string{
	"Adventure",
	"Moral",
	"Funny",
	"Fairy Tale",
	"Fantasy",
	"Animal Story",
	"Space Story",
	"Inspirational",
	"Educational",
	"Friendship",
	"Bedtime",
	"Mystery (Kids Friendly)",
}

// Request is what the user submits to get a new story
type Request struct {
	Character string   `json:"character"`
	Category  string   `json:"storyType"`
	AgeGroup  string   `json:"ageGroup"`
	Language  Language `json:"language"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Character) == "" {
		return fmt.Errorf("character is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("story type is required")
	}
	if _, ok := languageTags[r.Language]; !ok {
		return fmt.Errorf("unsupported language %q", r.Language)
	}
	return nil
}

// Record is a saved story. Records are never modified after they are created.
type Record struct {
	ID        string    `json:"id"`
	Character string    `json:"character"`
	Category  string    `json:"storyType"`
	AgeGroup  string    `json:"ageGroup"`
	Language  Language  `json:"language"`
	Text      string    `json:"story"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"date"`
}

// Request rebuilds the request the record was generated from.
func (r Record) Request() Request {
	return Request{
		Character: r.Character,
		Category:  r.Category,
		AgeGroup:  r.AgeGroup,
		Language:  r.Language,
	}
}
