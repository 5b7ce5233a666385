package tts

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

type EngineType string

const (
	EngineTypeMock          EngineType = "mock"
	EngineTypeESpeak        EngineType = "espeak"
	EngineTypeGoogleClassic EngineType = "googleclassic"
	EngineTypeAuto          EngineType = "auto" // Automatically choose best available
)

func (e EngineType) String() string {
	return string(e)
}

// NewEngine creates a new narrator based on the provided config
func NewEngine(config Config) (Narrator, error) {
	if config.Type == "" || config.Type == EngineTypeAuto.String() {
		return newBestEngine(config), nil
	}

	switch config.Type {
	case EngineTypeMock.String():
		return NewMockTTSEngine(config), nil

	case EngineTypeGoogleClassic.String():
		return newGoogleClassicTTSEngine(config)

	case EngineTypeESpeak.String():
		return newESpeakEngine(config)

	default:
		return nil, fmt.Errorf("unsupported TTS engine type: %s", config.Type)
	}
}

// newBestEngine prefers Google when credentials exist, then eSpeak, then the mock.
func newBestEngine(config Config) Narrator {
	if hasGoogleCredentials() {
		engine, err := newGoogleClassicTTSEngine(config)
		if err == nil {
			return engine
		}
		logrus.WithError(err).Warn("Google TTS unavailable, trying eSpeak")
	}

	engine, err := newESpeakEngine(config)
	if err == nil {
		return engine
	}
	logrus.WithError(err).Warn("No speech engine found, narration will be simulated")
	return NewMockTTSEngine(config)
}

// GetAvailableEngines returns engines usable on this machine
func GetAvailableEngines() []EngineType {
	engines := []EngineType{EngineTypeMock}

	if _, err := findESpeakExecutable(); err == nil {
		engines = append(engines, EngineTypeESpeak)
	}
	if hasGoogleCredentials() {
		engines = append(engines, EngineTypeGoogleClassic)
	}

	return engines
}

// hasGoogleCredentials checks if Google Cloud credentials are available
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}
