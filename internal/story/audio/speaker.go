// Package audio owns the process-wide speaker shared by narration and music.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// SampleRate is the rate the speaker runs at. Streams in other rates are resampled.
const SampleRate beep.SampleRate = 44100

var (
	initOnce sync.Once
	initErr  error
)

// Init starts the speaker once. Reinitialising would cut off every stream
// already playing, so narration and music must both come through here.
func Init() error {
	initOnce.Do(func() {
		if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
			initErr = fmt.Errorf("failed to initialise speaker: %w", err)
		}
	})
	return initErr
}

// Play mixes s into the speaker output.
func Play(s beep.Streamer) error {
	if err := Init(); err != nil {
		return err
	}
	speaker.Play(s)
	return nil
}

// Fit resamples s to the speaker rate when needed.
func Fit(format beep.Format, s beep.Streamer) beep.Streamer {
	if format.SampleRate == SampleRate {
		return s
	}
	return beep.Resample(4, format.SampleRate, SampleRate, s)
}

// Locked runs fn with the speaker locked, for mutating streamers that are playing.
func Locked(fn func()) {
	speaker.Lock()
	defer speaker.Unlock()
	fn()
}
