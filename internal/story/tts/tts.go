// internal/story/tts/tts.go
package tts

import (
	"context"
	"sync"
	"sync/atomic"
)

type Config struct {
	Type      string
	Volume    float64
	Voice     string
	CachePath string
}

// Options describe one utterance.
type Options struct {
	Language string  // BCP-47 code, e.g. "hi-IN"
	Rate     float64 // 1.0 is the engine's normal speed
	Pitch    float64 // 1.0 is the engine's normal pitch
}

// Narrator reads text aloud without blocking the caller.
//
// For every Speak that returns nil and is not superseded by a later Speak,
// exactly one of onDone or onStopped is called, from a goroutine owned by
// the narrator: onDone when the text was read to the end, onStopped when
// Stop was called or the engine failed part way.
type Narrator interface {
	Speak(text string, opts Options, onDone, onStopped func()) error
	// Stop ends the current utterance. Safe to call when nothing is speaking.
	Stop() error
	IsSpeaking() bool
}

// CacheableEngine extends Narrator with cache management capabilities
type CacheableEngine interface {
	Narrator
	GetCacheStats() (map[string]interface{}, error)
	ClearCache() error
}

// utterance tracks one Speak call so its completion fires exactly once.
type utterance struct {
	ctx       context.Context
	cancel    context.CancelFunc
	onDone    func()
	onStopped func()

	once       sync.Once
	superseded atomic.Bool
}

func newUtterance(onDone, onStopped func()) *utterance {
	ctx, cancel := context.WithCancel(context.Background())
	return &utterance{ctx: ctx, cancel: cancel, onDone: onDone, onStopped: onStopped}
}

// stop requests the utterance end; finish will report onStopped.
func (u *utterance) stop() {
	u.cancel()
}

// supersede ends the utterance without firing either callback.
func (u *utterance) supersede() {
	u.superseded.Store(true)
	u.cancel()
}

func (u *utterance) stopped() bool {
	return u.ctx.Err() != nil
}

// finish fires the completion callback once.
func (u *utterance) finish() {
	u.once.Do(func() {
		defer u.cancel()
		if u.superseded.Load() {
			return
		}
		if u.stopped() {
			if u.onStopped != nil {
				u.onStopped()
			}
			return
		}
		if u.onDone != nil {
			u.onDone()
		}
	})
}
