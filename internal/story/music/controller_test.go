package music

import (
	"errors"
	"storygenie/internal/domain/story"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSound struct {
	asset    string
	looping  bool
	volume   float64
	playing  bool
	unloaded bool

	playErr error
	stopErr error
}

func (s *fakeSound) SetLooping(loop bool) error     { s.looping = loop; return nil }
func (s *fakeSound) SetVolume(volume float64) error { s.volume = volume; return nil }
func (s *fakeSound) Unload() error                  { s.unloaded = true; return nil }

func (s *fakeSound) Play() error {
	if s.playErr != nil {
		return s.playErr
	}
	s.playing = true
	return nil
}

func (s *fakeSound) Stop() error {
	if s.stopErr != nil {
		return s.stopErr
	}
	s.playing = false
	return nil
}

type fakeLoader struct {
	mu      sync.Mutex
	sounds  []*fakeSound
	loadErr error
	prepare func(*fakeSound)
}

func (l *fakeLoader) Load(asset string) (Sound, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	s := &fakeSound{asset: asset}
	if l.prepare != nil {
		l.prepare(s)
	}
	l.sounds = append(l.sounds, s)
	return s, nil
}

func TestSelectTrack(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"Adventure", "Adventure.mp3"},
		{"Funny", "Funny.mp3"},
		{"Moral", "Moral.mp3"},
		{"Fairy Tale", "FairyTale.mp3"},
		{"Fantasy", "Fantasy.mp3"},
		{"Inspirational", "Inspirational.mp3"},
		{"Space Story", "SpaceStory.mp3"},
		{"BEDTIME", "Bedtime.mp3"},
		{"Mystery (Kids Friendly)", "Mystery.mp3"},
		{"Animal Story", "Common.mp3"},
		{"", "Common.mp3"},
		// first match wins
		{"Funny Space Adventure", "Adventure.mp3"},
		{"fairy fantasy", "FairyTale.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectTrack(tt.category).Asset)
		})
	}
}

func TestMappingEndsWithFallback(t *testing.T) {
	m := Mapping()
	require.Len(t, m, 10)
	assert.Equal(t, [2]string{"adventure", "Adventure.mp3"}, m[0])
	assert.Equal(t, [2]string{"*", "Common.mp3"}, m[len(m)-1])
}

func TestStartConfiguresSound(t *testing.T) {
	loader := &fakeLoader{}
	c := NewController(loader)

	h, err := c.Start(SelectTrack("Space Story"))
	require.NoError(t, err)
	require.NotNil(t, h)
	require.Len(t, loader.sounds, 1)

	s := loader.sounds[0]
	assert.Equal(t, "SpaceStory.mp3", s.asset)
	assert.True(t, s.looping)
	assert.Equal(t, 0.4, s.volume)
	assert.True(t, s.playing)
	assert.True(t, c.Playing())
}

func TestStopReleases(t *testing.T) {
	loader := &fakeLoader{}
	c := NewController(loader)
	h, err := c.Start(Fallback)
	require.NoError(t, err)

	require.NoError(t, c.Stop(h))
	assert.False(t, loader.sounds[0].playing)
	assert.True(t, loader.sounds[0].unloaded)
	assert.False(t, c.Playing())
}

func TestStopReleasesEvenWhenHaltFails(t *testing.T) {
	loader := &fakeLoader{prepare: func(s *fakeSound) { s.stopErr = errors.New("device gone") }}
	c := NewController(loader)
	h, err := c.Start(Fallback)
	require.NoError(t, err)

	err = c.Stop(h)
	assert.True(t, errors.Is(err, story.ErrAudio))
	assert.True(t, loader.sounds[0].unloaded)
	assert.False(t, c.Playing())
}

func TestStopNilHandle(t *testing.T) {
	c := NewController(&fakeLoader{})
	assert.NoError(t, c.Stop(nil))
}

func TestStartReplacesActiveHandle(t *testing.T) {
	loader := &fakeLoader{}
	c := NewController(loader)

	_, err := c.Start(SelectTrack("funny"))
	require.NoError(t, err)
	_, err = c.Start(SelectTrack("moral"))
	require.NoError(t, err)

	require.Len(t, loader.sounds, 2)
	assert.False(t, loader.sounds[0].playing)
	assert.True(t, loader.sounds[0].unloaded)
	assert.True(t, loader.sounds[1].playing)
}

func TestStartFailures(t *testing.T) {
	c := NewController(&fakeLoader{loadErr: errors.New("missing asset")})
	h, err := c.Start(Fallback)
	assert.Nil(t, h)
	assert.Equal(t, story.AudioError, story.KindOf(err))

	loader := &fakeLoader{prepare: func(s *fakeSound) { s.playErr = errors.New("no device") }}
	c = NewController(loader)
	h, err = c.Start(Fallback)
	assert.Nil(t, h)
	assert.True(t, errors.Is(err, story.ErrAudio))
	assert.True(t, loader.sounds[0].unloaded)
	assert.False(t, c.Playing())
}

func TestDisabledController(t *testing.T) {
	loader := &fakeLoader{}
	c := NewController(loader, Disabled())

	h, err := c.Start(Fallback)
	assert.NoError(t, err)
	assert.Nil(t, h)
	assert.Empty(t, loader.sounds)
}

func TestWithVolume(t *testing.T) {
	loader := &fakeLoader{}
	c := NewController(loader, WithVolume(0.25), WithVolume(7))
	_, err := c.Start(Fallback)
	require.NoError(t, err)
	assert.Equal(t, 0.25, loader.sounds[0].volume)
}
