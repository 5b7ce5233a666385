// Package playback coordinates a story viewer session: fetching the story,
// deriving its illustrations, narrating it over background music, and
// tearing all of that down when the viewer goes away.
//
// Every subsystem call is made with the session lock held. Narrators never
// invoke their completion callbacks synchronously, so a callback arriving
// mid-call simply waits for the lock and is then checked against the
// current narration turn.
package playback

import (
	"context"
	"errors"
	"storygenie/internal/domain/library"
	"storygenie/internal/domain/library/generator"
	"storygenie/internal/domain/story"
	"storygenie/internal/story/images"
	"storygenie/internal/story/music"
	"storygenie/internal/story/tts"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Placeholder replaces the story when it could not be fetched.
const Placeholder = "Failed to generate story."

const (
	DefaultRate  = 0.95
	DefaultPitch = 1.0
)

var (
	ErrNotReady         = errors.New("story is not ready yet")
	ErrAlreadyNarrating = errors.New("story is already being read")
	ErrBusy             = errors.New("narration is stopping")
	ErrNothingToSave    = errors.New("no story to save")
	ErrUnmounted        = errors.New("session has ended")
	ErrAlreadyMounted   = errors.New("session already mounted")
)

// MusicPlayer starts and stops background tracks.
type MusicPlayer interface {
	Start(t music.Track) (*music.Handle, error)
	Stop(h *music.Handle) error
}

// Deps are the subsystems a session drives.
type Deps struct {
	Generator generator.StoryGenerator
	Narrator  tts.Narrator
	Music     MusicPlayer
	Store     library.Store
}

type session struct {
	phase           Phase
	storyText       string
	imageURLs       []string
	narrationActive bool
	music           *music.Handle
	degraded        bool
}

// Orchestrator owns one viewer session.
type Orchestrator struct {
	req    story.Request
	deps   Deps
	images images.Deriver
	rate   float64
	pitch  float64
	now    func() time.Time
	newID  func() string
	notify func(Snapshot)
	log    *logrus.Entry

	mu          sync.Mutex
	s           session
	turn        uint64
	cancelFetch context.CancelFunc
	ended       bool
}

type Option func(*Orchestrator)

// WithVoice sets the narration rate and pitch.
func WithVoice(rate, pitch float64) Option {
	return func(o *Orchestrator) {
		if rate > 0 {
			o.rate = rate
		}
		if pitch > 0 {
			o.pitch = pitch
		}
	}
}

// WithImages sets the illustration service.
func WithImages(d images.Deriver) Option {
	return func(o *Orchestrator) {
		o.images = d
	}
}

// OnChange registers fn to be called after every phase change, outside the session lock.
func OnChange(fn func(Snapshot)) Option {
	return func(o *Orchestrator) {
		o.notify = fn
	}
}

// WithClock overrides the record timestamp and id sources.
func WithClock(now func() time.Time, newID func() string) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
		if newID != nil {
			o.newID = newID
		}
	}
}

func New(req story.Request, deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		req:    req,
		deps:   deps,
		images: images.NewDeriver(""),
		rate:   DefaultRate,
		pitch:  DefaultPitch,
		now:    time.Now,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
		log: logrus.WithFields(logrus.Fields{
			"character": req.Character,
			"category":  req.Category,
			"language":  req.Language,
		}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Mount fetches the story and blocks until the session is Ready. A failed
// fetch still reaches Ready, showing Placeholder with no images. Unmount
// cancels a fetch in flight.
func (o *Orchestrator) Mount(ctx context.Context) error {
	o.mu.Lock()
	if o.ended {
		o.mu.Unlock()
		return ErrUnmounted
	}
	if o.s.phase != PhaseIdle {
		o.mu.Unlock()
		return ErrAlreadyMounted
	}
	ctx, cancel := context.WithCancel(ctx)
	o.cancelFetch = cancel
	o.transition(PhaseFetchingStory)
	snap := o.snapshot()
	o.mu.Unlock()
	o.changed(snap)

	text, err := o.deps.Generator.Generate(ctx, o.req)
	cancel()

	o.mu.Lock()
	o.cancelFetch = nil
	if o.ended {
		o.mu.Unlock()
		return ErrUnmounted
	}
	if err != nil {
		o.log.WithError(err).Warn("Showing placeholder story")
		o.s.storyText = Placeholder
		o.s.imageURLs = nil
		o.s.degraded = true
	} else {
		o.s.storyText = text
		o.s.imageURLs = o.images.Derive(text, string(o.req.Language))
	}
	o.transition(PhaseReady)
	snap = o.snapshot()
	o.mu.Unlock()
	o.changed(snap)

	return nil
}

// MountRecord opens a saved story without fetching.
func (o *Orchestrator) MountRecord(rec story.Record) error {
	o.mu.Lock()
	if o.ended {
		o.mu.Unlock()
		return ErrUnmounted
	}
	if o.s.phase != PhaseIdle {
		o.mu.Unlock()
		return ErrAlreadyMounted
	}
	o.s.storyText = rec.Text
	o.s.imageURLs = append([]string(nil), rec.Images...)
	o.transition(PhaseReady)
	snap := o.snapshot()
	o.mu.Unlock()
	o.changed(snap)
	return nil
}

// ReadAloud starts narration with the category's background track. Music
// that fails to start is logged and narration goes on without it. A
// narrator that refuses to start leaves the session Ready with the music
// released, and the *story.Failure is returned.
func (o *Orchestrator) ReadAloud() error {
	o.mu.Lock()
	switch {
	case o.ended:
		o.mu.Unlock()
		return ErrUnmounted
	case o.s.phase == PhaseNarrating:
		o.mu.Unlock()
		return ErrAlreadyNarrating
	case o.s.phase == PhaseStopping:
		o.mu.Unlock()
		return ErrBusy
	case o.s.phase != PhaseReady || o.s.storyText == "":
		o.mu.Unlock()
		return ErrNotReady
	}

	o.turn++
	turn := o.turn
	o.transition(PhaseNarrating)
	o.s.narrationActive = true

	track := music.SelectTrack(o.req.Category)
	if o.deps.Music != nil {
		h, err := o.deps.Music.Start(track)
		if err != nil {
			o.log.WithError(err).WithField("track", track.Name).Warn("Narrating without background music")
		}
		o.s.music = h
	}

	opts := tts.Options{Language: o.req.Language.Code(), Rate: o.rate, Pitch: o.pitch}
	err := o.deps.Narrator.Speak(o.s.storyText, opts,
		func() { o.narrationEnded(turn, "done") },
		func() { o.narrationEnded(turn, "stopped") },
	)
	if err != nil {
		o.log.WithError(err).Error("Narration failed to start")
		o.teardown(false)
		snap := o.snapshot()
		o.mu.Unlock()
		o.changed(snap)
		if story.KindOf(err) == 0 {
			err = story.NewFailure(story.SpeechError, "speak", err)
		}
		return err
	}

	o.log.WithFields(logrus.Fields{
		"track":     track.Name,
		"speech":    opts.Language,
		"has_music": o.s.music != nil,
	}).Debug("Narration started")

	snap := o.snapshot()
	o.mu.Unlock()
	o.changed(snap)
	return nil
}

// Stop ends narration at the user's request. It does nothing unless narrating.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.s.phase != PhaseNarrating {
		o.mu.Unlock()
		return
	}
	o.teardown(true)
	snap := o.snapshot()
	o.mu.Unlock()
	o.changed(snap)
}

// narrationEnded handles the narrator's onDone/onStopped for turn.
func (o *Orchestrator) narrationEnded(turn uint64, how string) {
	o.mu.Lock()
	if turn != o.turn || o.s.phase != PhaseNarrating {
		o.mu.Unlock()
		o.log.WithField("turn", turn).Debug("Ignoring stale narration callback")
		return
	}
	o.log.WithField("how", how).Debug("Narration ended")
	o.teardown(false)
	snap := o.snapshot()
	o.mu.Unlock()
	o.changed(snap)
}

// teardown moves Narrating through Stopping to Ready, stopping the music
// before the speech. Callers hold o.mu.
func (o *Orchestrator) teardown(stopSpeech bool) {
	o.transition(PhaseStopping)
	o.turn++

	h := o.s.music
	o.s.music = nil
	o.stopMusic(h)
	if stopSpeech {
		o.stopSpeech()
	}

	o.s.narrationActive = false
	o.transition(PhaseReady)
}

// Unmount ends the session. Music and speech are told to stop whatever the
// phase, and without waiting for them to finish. Later calls do nothing.
func (o *Orchestrator) Unmount() {
	o.mu.Lock()
	if o.ended {
		o.mu.Unlock()
		return
	}
	o.ended = true
	if o.cancelFetch != nil {
		o.cancelFetch()
	}
	o.turn++

	h := o.s.music
	o.s.music = nil
	o.s.narrationActive = false
	o.stopMusic(h)
	o.stopSpeech()

	if o.s.phase != PhaseIdle {
		o.transition(PhaseIdle)
	}
	snap := o.snapshot()
	o.mu.Unlock()
	o.changed(snap)
}

// Save stores the current story as a new record. The session is unchanged
// whether or not the save succeeds.
func (o *Orchestrator) Save() (story.Record, error) {
	o.mu.Lock()
	if o.s.storyText == "" {
		o.mu.Unlock()
		return story.Record{}, ErrNothingToSave
	}
	rec := story.Record{
		ID:        o.newID(),
		Character: o.req.Character,
		Category:  o.req.Category,
		AgeGroup:  o.req.AgeGroup,
		Language:  o.req.Language,
		Text:      o.s.storyText,
		Images:    append([]string(nil), o.s.imageURLs...),
		CreatedAt: o.now().UTC(),
	}
	o.mu.Unlock()

	if o.deps.Store == nil {
		return story.Record{}, story.NewFailure(story.PersistError, "save story", errors.New("no story library configured"))
	}
	if err := o.deps.Store.Save(rec); err != nil {
		o.log.WithError(err).Error("Failed to save story")
		if story.KindOf(err) == 0 {
			err = story.NewFailure(story.PersistError, "save story", err)
		}
		return story.Record{}, err
	}
	return rec, nil
}

// Snapshot returns a copy of the session state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

func (o *Orchestrator) snapshot() Snapshot {
	snap := Snapshot{
		Phase:           o.s.phase,
		Request:         o.req,
		StoryText:       o.s.storyText,
		ImageURLs:       append([]string(nil), o.s.imageURLs...),
		NarrationActive: o.s.narrationActive,
		MusicPlaying:    o.s.music != nil,
		Degraded:        o.s.degraded,
	}
	if o.s.music != nil {
		snap.Track = o.s.music.Track.Name
	}
	return snap
}

func (o *Orchestrator) transition(to Phase) {
	from := o.s.phase
	if !canTransition(from, to) {
		o.log.WithFields(logrus.Fields{"from": from, "to": to}).Error("Invalid phase transition")
	}
	o.s.phase = to
	o.log.WithFields(logrus.Fields{"from": from, "to": to}).Debug("Phase changed")
}

func (o *Orchestrator) stopMusic(h *music.Handle) {
	if h == nil || o.deps.Music == nil {
		return
	}
	if err := o.deps.Music.Stop(h); err != nil {
		o.log.WithError(err).Warn("Background music stop reported an error")
	}
}

func (o *Orchestrator) stopSpeech() {
	if err := o.deps.Narrator.Stop(); err != nil {
		o.log.WithError(err).Warn("Narrator stop reported an error")
	}
}

func (o *Orchestrator) changed(snap Snapshot) {
	if o.notify != nil {
		o.notify(snap)
	}
}
