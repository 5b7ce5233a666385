package playback

import (
	"storygenie/internal/domain/story"
)

// Phase is the orchestrator's place in a viewer session.
type Phase int

const (
	// PhaseIdle is before mount and after unmount.
	PhaseIdle Phase = iota
	// PhaseFetchingStory waits on the story service.
	PhaseFetchingStory
	// PhaseReady has story text and nothing playing.
	PhaseReady
	// PhaseNarrating has narration (and possibly music) playing.
	PhaseNarrating
	// PhaseStopping tears narration and music down.
	PhaseStopping
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetchingStory:
		return "fetching"
	case PhaseReady:
		return "ready"
	case PhaseNarrating:
		return "narrating"
	case PhaseStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// transitions lists the phases reachable from each phase.
var transitions = map[Phase][]Phase{
	PhaseIdle:          {PhaseFetchingStory, PhaseReady},
	PhaseFetchingStory: {PhaseReady, PhaseIdle},
	PhaseReady:         {PhaseNarrating, PhaseIdle},
	PhaseNarrating:     {PhaseStopping, PhaseIdle},
	PhaseStopping:      {PhaseReady, PhaseIdle},
}

func canTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Snapshot is a copy of the session state for display.
type Snapshot struct {
	Phase           Phase
	Request         story.Request
	StoryText       string
	ImageURLs       []string
	NarrationActive bool
	MusicPlaying    bool
	Track           string
	// Degraded is set when the story could not be fetched and the placeholder is shown.
	Degraded bool
}

// CanReadAloud reports whether ReadAloud would start narration.
func (s Snapshot) CanReadAloud() bool {
	return s.Phase == PhaseReady && s.StoryText != ""
}

// CanSave reports whether there is a story to save.
func (s Snapshot) CanSave() bool {
	return s.StoryText != ""
}
