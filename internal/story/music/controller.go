package music

import (
	"errors"
	"fmt"
	"storygenie/internal/domain/story"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultVolume is the fraction of full scale background music plays at.
const DefaultVolume = 0.4

// Sound is one loaded audio asset.
type Sound interface {
	SetLooping(loop bool) error
	SetVolume(volume float64) error
	Play() error
	Stop() error
	Unload() error
}

// Loader loads audio assets by name.
type Loader interface {
	Load(asset string) (Sound, error)
}

// Handle is a live playback started by a Controller.
type Handle struct {
	Track Track
	sound Sound
}

// Controller plays at most one track at a time.
type Controller struct {
	loader  Loader
	volume  float64
	enabled bool

	mu     sync.Mutex
	active *Handle
}

type Option func(*Controller)

// WithVolume overrides DefaultVolume.
func WithVolume(v float64) Option {
	return func(c *Controller) {
		if v >= 0 && v <= 1 {
			c.volume = v
		}
	}
}

// Disabled makes Start a no-op.
func Disabled() Option {
	return func(c *Controller) {
		c.enabled = false
	}
}

func NewController(loader Loader, opts ...Option) *Controller {
	c := &Controller{
		loader:  loader,
		volume:  DefaultVolume,
		enabled: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start loads and plays t on a loop. Any track already playing is stopped
// first. A disabled controller returns a nil handle and no error.
func (c *Controller) Start(t Track) (*Handle, error) {
	if !c.enabled || c.loader == nil {
		return nil, nil
	}

	c.mu.Lock()
	prev := c.active
	c.active = nil
	c.mu.Unlock()
	if prev != nil {
		c.Stop(prev)
	}

	sound, err := c.loader.Load(t.Asset)
	if err != nil {
		return nil, story.NewFailure(story.AudioError, "load "+t.Asset, err)
	}

	if err := c.begin(sound); err != nil {
		if uerr := sound.Unload(); uerr != nil {
			err = errors.Join(err, uerr)
		}
		return nil, story.NewFailure(story.AudioError, "play "+t.Asset, err)
	}

	h := &Handle{Track: t, sound: sound}
	c.mu.Lock()
	c.active = h
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"track":  t.Name,
		"volume": c.volume,
	}).Debug("Background music started")

	return h, nil
}

func (c *Controller) begin(sound Sound) error {
	if err := sound.SetLooping(true); err != nil {
		return fmt.Errorf("set looping: %w", err)
	}
	if err := sound.SetVolume(c.volume); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	if err := sound.Play(); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	return nil
}

// Stop halts h and releases it. The release happens even when halting
// fails. Stopping a nil handle does nothing.
func (c *Controller) Stop(h *Handle) error {
	if h == nil || h.sound == nil {
		return nil
	}

	c.mu.Lock()
	if c.active == h {
		c.active = nil
	}
	c.mu.Unlock()

	stopErr := h.sound.Stop()
	unloadErr := h.sound.Unload()
	if err := errors.Join(stopErr, unloadErr); err != nil {
		logrus.WithError(err).WithField("track", h.Track.Name).Warn("Background music did not stop cleanly")
		return story.NewFailure(story.AudioError, "stop "+h.Track.Asset, err)
	}

	logrus.WithField("track", h.Track.Name).Debug("Background music stopped")
	return nil
}

// Playing reports whether the controller holds a live handle.
func (c *Controller) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}
