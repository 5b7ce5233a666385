package tts

import (
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// MockTTSEngine simulates narration by waiting as long as reading the text would take.
type MockTTSEngine struct {
	mu             sync.Mutex
	current        *utterance
	wordsPerMinute float64
	quiet          bool
}

func NewMockTTSEngine(c Config) *MockTTSEngine {
	return &MockTTSEngine{wordsPerMinute: 150}
}

// Duration returns how long the mock takes to read text at rate.
func (m *MockTTSEngine) Duration(text string, rate float64) time.Duration {
	if rate <= 0 {
		rate = 1
	}
	words := float64(len(strings.Fields(text)))
	return time.Duration(words * float64(time.Minute) / (m.wordsPerMinute * rate))
}

func (m *MockTTSEngine) Speak(text string, opts Options, onDone, onStopped func()) error {
	m.mu.Lock()
	if m.current != nil {
		m.current.supersede()
	}
	u := newUtterance(onDone, onStopped)
	m.current = u
	quiet := m.quiet
	m.mu.Unlock()

	duration := m.Duration(text, opts.Rate)
	if !quiet {
		color.Yellow("🔊 Reading aloud in %s... (simulated for %v)", opts.Language, duration.Round(time.Second))
	}

	go func() {
		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-u.ctx.Done():
		}

		m.mu.Lock()
		if m.current == u {
			m.current = nil
		}
		m.mu.Unlock()
		u.finish()
	}()

	return nil
}

func (m *MockTTSEngine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.stop()
	}
	return nil
}

func (m *MockTTSEngine) IsSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}
