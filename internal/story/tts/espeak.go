// Cross-platform eSpeak implementation
package tts

import (
	"fmt"
	"os/exec"
	"storygenie/internal/domain/story"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// ESpeakEngine implements Narrator using eSpeak/eSpeak-NG
type ESpeakEngine struct {
	config  Config
	path    string
	current *utterance
	mutex   sync.Mutex
}

// newESpeakEngine creates a new eSpeak narrator
func newESpeakEngine(config Config) (*ESpeakEngine, error) {
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}

	engine := &ESpeakEngine{
		config: config,
		path:   espeakPath,
	}

	// Test the installation
	if err := exec.Command(espeakPath, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}

	return engine, nil
}

func findESpeakExecutable() (string, error) {
	candidates := []string{"espeak-ng", "espeak"}

	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

func (e *ESpeakEngine) Speak(text string, opts Options, onDone, onStopped func()) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.current != nil {
		e.current.supersede()
	}

	u := newUtterance(onDone, onStopped)
	cmd := exec.CommandContext(u.ctx, e.path, e.args(text, opts)...)
	if err := cmd.Start(); err != nil {
		u.supersede()
		return story.NewFailure(story.SpeechError, "start espeak", err)
	}
	e.current = u

	go func() {
		err := cmd.Wait()

		e.mutex.Lock()
		if e.current == u {
			e.current = nil
		}
		e.mutex.Unlock()

		if err != nil && !u.stopped() {
			logrus.WithError(err).Warn("eSpeak exited with an error")
			u.stop()
		}
		u.finish()
	}()

	return nil
}

func (e *ESpeakEngine) args(text string, opts Options) []string {
	args := []string{"-v", e.voice(opts.Language)}

	// words per minute, default is 175
	args = append(args, "-s", strconv.Itoa(scale(175, opts.Rate, 80, 500)))
	// pitch 0-99, default is 50
	args = append(args, "-p", strconv.Itoa(scale(50, opts.Pitch, 0, 99)))
	// amplitude 0-200, default is 100
	args = append(args, "-a", strconv.Itoa(scale(100, e.config.Volume, 0, 200)))

	return append(args, "--", text)
}

func (e *ESpeakEngine) voice(code string) string {
	if e.config.Voice != "" && e.config.Voice != "default" {
		return e.config.Voice
	}
	return espeakVoice(code)
}

// espeakVoice maps a BCP-47 code to an eSpeak voice name. eSpeak names
// most voices by bare language; English keeps its region.
func espeakVoice(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return "en-us"
	}
	base, _ := tag.Base()
	if base.String() == "en" {
		if region, conf := tag.Region(); conf == language.Exact && region.String() == "GB" {
			return "en-gb"
		}
		return "en-us"
	}
	return base.String()
}

// scale multiplies def by factor, treating a zero factor as 1, and clamps the result.
func scale(def int, factor float64, lo, hi int) int {
	if factor <= 0 {
		factor = 1
	}
	v := int(float64(def) * factor)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (e *ESpeakEngine) Stop() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.current != nil {
		e.current.stop()
	}
	return nil
}

func (e *ESpeakEngine) IsSpeaking() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.current != nil
}
