// Package music plays looping background music behind a narration.
package music

import "strings"

// Track is a background music asset.
type Track struct {
	Name  string
	Asset string
}

type trackRule struct {
	keyword string
	track   Track
}

// Rules are checked in order; the first keyword contained in the category wins.
var rules = []trackRule{
	{"adventure", Track{Name: "Adventure", Asset: "Adventure.mp3"}},
	{"funny", Track{Name: "Funny", Asset: "Funny.mp3"}},
	{"moral", Track{Name: "Moral", Asset: "Moral.mp3"}},
	{"fairy", Track{Name: "Fairy Tale", Asset: "FairyTale.mp3"}},
	{"fantasy", Track{Name: "Fantasy", Asset: "Fantasy.mp3"}},
	{"inspirational", Track{Name: "Inspirational", Asset: "Inspirational.mp3"}},
	{"space", Track{Name: "Space Story", Asset: "SpaceStory.mp3"}},
	{"bedtime", Track{Name: "Bedtime", Asset: "Bedtime.mp3"}},
	{"mystery", Track{Name: "Mystery", Asset: "Mystery.mp3"}},
}

// Fallback plays when no keyword matches.
var Fallback = Track{Name: "Common", Asset: "Common.mp3"}

// SelectTrack picks the track for a story category.
func SelectTrack(category string) Track {
	lower := strings.ToLower(category)
	for _, r := range rules {
		if strings.Contains(lower, r.keyword) {
			return r.track
		}
	}
	return Fallback
}

// Mapping lists the keyword to track table in match order, fallback last.
func Mapping() [][2]string {
	out := make([][2]string, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, [2]string{r.keyword, r.track.Asset})
	}
	return append(out, [2]string{"*", Fallback.Asset})
}
