package tts

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completions struct {
	done    atomic.Int32
	stopped atomic.Int32
}

func (c *completions) onDone()    { c.done.Add(1) }
func (c *completions) onStopped() { c.stopped.Add(1) }

func fastMock() *MockTTSEngine {
	m := NewMockTTSEngine(Config{})
	m.wordsPerMinute = 60000 // a word per millisecond
	m.quiet = true
	return m
}

func TestMockSpeakCompletes(t *testing.T) {
	m := fastMock()
	var c completions

	require.NoError(t, m.Speak("one two three", Options{Language: "en-US", Rate: 1}, c.onDone, c.onStopped))

	assert.Eventually(t, func() bool { return c.done.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), c.stopped.Load())
	assert.False(t, m.IsSpeaking())
}

func TestMockStopFiresOnStopped(t *testing.T) {
	m := fastMock()
	var c completions

	require.NoError(t, m.Speak(strings.Repeat("word ", 5000), Options{Rate: 1}, c.onDone, c.onStopped))
	assert.True(t, m.IsSpeaking())
	require.NoError(t, m.Stop())

	assert.Eventually(t, func() bool { return c.stopped.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), c.done.Load())

	// Stop with nothing speaking is harmless
	assert.NoError(t, m.Stop())
	assert.NoError(t, m.Stop())
}

func TestMockSupersededSpeakIsSilent(t *testing.T) {
	m := fastMock()
	var first, second completions

	require.NoError(t, m.Speak(strings.Repeat("word ", 5000), Options{Rate: 1}, first.onDone, first.onStopped))
	require.NoError(t, m.Speak("short", Options{Rate: 1}, second.onDone, second.onStopped))

	assert.Eventually(t, func() bool { return second.done.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), first.done.Load())
	assert.Equal(t, int32(0), first.stopped.Load())
}

func TestMockDuration(t *testing.T) {
	m := NewMockTTSEngine(Config{})
	assert.Equal(t, 2*time.Second, m.Duration("five words make this text", 1))
	assert.Equal(t, time.Second, m.Duration("five words make this text", 2))
	assert.Equal(t, 2*time.Second, m.Duration("five words make this text", 0))
}

func TestUtteranceFinishOnce(t *testing.T) {
	var c completions
	u := newUtterance(c.onDone, c.onStopped)
	u.finish()
	u.stop()
	u.finish()

	assert.Equal(t, int32(1), c.done.Load())
	assert.Equal(t, int32(0), c.stopped.Load())
}

func TestUtteranceNilCallbacks(t *testing.T) {
	u := newUtterance(nil, nil)
	u.stop()
	assert.NotPanics(t, u.finish)
}

func TestESpeakVoice(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en-US", "en-us"},
		{"en-GB", "en-gb"},
		{"hi-IN", "hi"},
		{"mr-IN", "mr"},
		{"ur-IN", "ur"},
		{"not a tag!", "en-us"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, espeakVoice(tt.code))
		})
	}
}

func TestESpeakArgs(t *testing.T) {
	e := &ESpeakEngine{config: Config{Volume: 0.8}}
	args := e.args("Hello Luna", Options{Language: "hi-IN", Rate: 0.95, Pitch: 1})
	assert.Equal(t, []string{"-v", "hi", "-s", "166", "-p", "50", "-a", "80", "--", "Hello Luna"}, args)

	e.config.Voice = "mb-en1"
	assert.Equal(t, "mb-en1", e.args("x", Options{})[1])
}

func TestScale(t *testing.T) {
	assert.Equal(t, 175, scale(175, 0, 80, 500))
	assert.Equal(t, 80, scale(175, 0.1, 80, 500))
	assert.Equal(t, 99, scale(50, 3, 0, 99))
}

func TestGoogleConversions(t *testing.T) {
	assert.Equal(t, 0.0, pitchSemitones(1))
	assert.InDelta(t, 12.0, pitchSemitones(2), 1e-9)
	assert.Equal(t, -20.0, pitchSemitones(0.01))
	assert.Equal(t, 0.0, pitchSemitones(0))

	assert.Equal(t, 0.95, speakingRate(0.95))
	assert.Equal(t, 1.0, speakingRate(0))
	assert.Equal(t, 4.0, speakingRate(9))
}

func TestSplitIntoChunks(t *testing.T) {
	chunks := splitIntoChunks(strings.Repeat("क", 10), 4)
	assert.Equal(t, []string{"कककक", "कककक", "कक"}, chunks)
	assert.Empty(t, splitIntoChunks("", 4))
}

func TestNewEngine(t *testing.T) {
	n, err := NewEngine(Config{Type: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &MockTTSEngine{}, n)

	_, err = NewEngine(Config{Type: "sapi"})
	assert.Error(t, err)
}
