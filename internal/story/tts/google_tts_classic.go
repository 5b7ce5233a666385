package tts

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"storygenie/internal/domain/story"
	"storygenie/internal/story/audio"
	"strings"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

type GoogleClassicTTSEngine struct {
	client       *texttospeech.Client
	voice        string
	volume       float64
	cacheRootDir string

	mu      sync.Mutex
	current *utterance
}

func newGoogleClassicTTSEngine(config Config) (*GoogleClassicTTSEngine, error) {
	client, err := texttospeech.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	cacheDir := config.CachePath
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "storygenie-tts")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	voice := config.Voice
	if voice == "default" {
		voice = ""
	}

	return &GoogleClassicTTSEngine{
		client:       client,
		voice:        voice,
		volume:       config.Volume,
		cacheRootDir: cacheDir,
	}, nil
}

func (g *GoogleClassicTTSEngine) Speak(text string, opts Options, onDone, onStopped func()) error {
	if strings.TrimSpace(text) == "" {
		return story.NewFailure(story.SpeechError, "speak", fmt.Errorf("nothing to read"))
	}
	if err := audio.Init(); err != nil {
		return story.NewFailure(story.SpeechError, "speak", err)
	}

	g.mu.Lock()
	if g.current != nil {
		g.current.supersede()
	}
	u := newUtterance(onDone, onStopped)
	g.current = u
	g.mu.Unlock()

	go g.run(u, text, opts)
	return nil
}

func (g *GoogleClassicTTSEngine) run(u *utterance, text string, opts Options) {
	defer func() {
		g.mu.Lock()
		if g.current == u {
			g.current = nil
		}
		g.mu.Unlock()
		u.finish()
	}()

	paths, err := g.synthesize(u.ctx, text, opts)
	if err != nil {
		if !u.stopped() {
			logrus.WithError(err).Warn("Speech synthesis failed")
			u.stop()
		}
		return
	}

	for _, path := range paths {
		if err := g.playFile(u.ctx, path); err != nil {
			if !u.stopped() {
				logrus.WithError(err).WithField("file", path).Warn("Speech playback failed")
				u.stop()
			}
			return
		}
		if u.stopped() {
			return
		}
	}
}

// synthesize returns the MP3 chunk files for text, generating the ones not cached yet.
func (g *GoogleClassicTTSEngine) synthesize(ctx context.Context, text string, opts Options) ([]string, error) {
	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding: texttospeechpb.AudioEncoding_MP3,
	}

	// Chirp voices don't support speakingRate/pitch, skip them
	if !strings.Contains(strings.ToLower(g.voice), "chirp") {
		audioCfg.SpeakingRate = speakingRate(opts.Rate)
		audioCfg.Pitch = pitchSemitones(opts.Pitch)
	}

	voice := &texttospeechpb.VoiceSelectionParams{LanguageCode: opts.Language}
	if g.voice != "" && strings.HasPrefix(strings.ToLower(g.voice), strings.ToLower(opts.Language)) {
		voice.Name = g.voice
	}

	key := fmt.Sprintf("%s|%s|%s|%.2f|%.2f", text, opts.Language, voice.Name, audioCfg.SpeakingRate, audioCfg.Pitch)
	contentHash := md5Sum(key)[:16]
	chunks := splitIntoChunks(text, 4800) // a little under 5000 to be safe

	paths := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		path := filepath.Join(g.cacheRootDir, fmt.Sprintf("%s_%d.mp3", contentHash, i))
		paths = append(paths, path)

		if _, err := os.Stat(path); err == nil {
			continue
		}

		resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice:       voice,
			AudioConfig: audioCfg,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize chunk %d: %w", i, err)
		}

		if err := os.WriteFile(path, resp.AudioContent, 0644); err != nil {
			return nil, fmt.Errorf("failed to write MP3 chunk %d to %s: %w", i, path, err)
		}

		logrus.WithFields(logrus.Fields{
			"chunk": i + 1,
			"total": len(chunks),
			"file":  path,
		}).Debug("Cached audio chunk")
	}

	return paths, nil
}

// playFile plays one MP3 and returns when it ends or ctx is canceled.
func (g *GoogleClassicTTSEngine) playFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open cached MP3 %s: %w", path, err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode MP3 %s: %w", path, err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if g.volume > 0 && g.volume != 1 {
		src = &effects.Volume{Streamer: streamer, Base: 2, Volume: math.Log2(g.volume)}
	}

	done := make(chan struct{})
	ctrl := &beep.Ctrl{Streamer: audio.Fit(format, src)}
	if err := audio.Play(beep.Seq(ctrl, beep.Callback(func() { close(done) }))); err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
		audio.Locked(func() {
			ctrl.Paused = true
			ctrl.Streamer = nil
		})
	}
	return nil
}

func (g *GoogleClassicTTSEngine) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != nil {
		g.current.stop()
	}
	return nil
}

func (g *GoogleClassicTTSEngine) IsSpeaking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current != nil
}

// GetCacheStats returns cache statistics for the engine
func (g *GoogleClassicTTSEngine) GetCacheStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalFiles int64
	var totalSize int64

	err := filepath.Walk(g.cacheRootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Continue walking despite errors
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".mp3") {
			totalFiles++
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	stats["cache_directory"] = g.cacheRootDir
	stats["cached_files"] = totalFiles
	stats["total_size_mb"] = float64(totalSize) / (1024 * 1024)

	return stats, nil
}

// ClearCache removes all cached files
func (g *GoogleClassicTTSEngine) ClearCache() error {
	if err := os.RemoveAll(g.cacheRootDir); err != nil {
		return err
	}
	return os.MkdirAll(g.cacheRootDir, 0755)
}

// speakingRate clamps rate to what Cloud TTS accepts. Zero means normal speed.
func speakingRate(rate float64) float64 {
	if rate <= 0 {
		return 1
	}
	return math.Max(0.25, math.Min(4, rate))
}

// pitchSemitones converts a pitch multiplier to the semitone offset Cloud TTS takes.
func pitchSemitones(pitch float64) float64 {
	if pitch <= 0 {
		return 0
	}
	return math.Max(-20, math.Min(20, 12*math.Log2(pitch)))
}

func md5Sum(s string) string {
	h := md5.New()
	io.WriteString(h, s)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func splitIntoChunks(text string, limit int) []string {
	var chunks []string
	runes := []rune(text) // safe for UTF-8
	for i := 0; i < len(runes); i += limit {
		end := i + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
