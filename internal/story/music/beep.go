package music

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"storygenie/internal/story/audio"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
)

// BeepLoader decodes MP3 assets from a directory and plays them on the shared speaker.
type BeepLoader struct {
	Dir string
}

func (l BeepLoader) Load(asset string) (Sound, error) {
	path := filepath.Join(l.Dir, asset)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3 %s: %w", path, err)
	}

	return &beepSound{streamer: streamer, format: format, volume: 1}, nil
}

type beepSound struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	loop     bool
	volume   float64
	ctrl     *beep.Ctrl
}

func (s *beepSound) SetLooping(loop bool) error {
	s.loop = loop
	return nil
}

func (s *beepSound) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1")
	}
	s.volume = volume
	return nil
}

func (s *beepSound) Play() error {
	if s.ctrl != nil {
		return fmt.Errorf("already playing")
	}

	var src beep.Streamer = s.streamer
	if s.loop {
		src = beep.Loop(-1, s.streamer)
	}

	// effects.Volume works in powers of Base, so a linear 0.4 is log2(0.4)
	vol := &effects.Volume{
		Streamer: src,
		Base:     2,
		Volume:   math.Log2(s.volume),
		Silent:   s.volume <= 0,
	}

	ctrl := &beep.Ctrl{Streamer: audio.Fit(s.format, vol)}
	if err := audio.Play(ctrl); err != nil {
		return err
	}
	s.ctrl = ctrl
	return nil
}

func (s *beepSound) Stop() error {
	if s.ctrl == nil {
		return nil
	}
	audio.Locked(func() {
		s.ctrl.Paused = true
		s.ctrl.Streamer = nil
	})
	return nil
}

func (s *beepSound) Unload() error {
	return s.streamer.Close()
}
