package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the resolved application configuration
type Config struct {
	StoryEndpoint string
	StoryTimeout  time.Duration
	ImageBaseURL  string

	TTSType      string
	TTSVoice     string
	TTSRate      float64
	TTSPitch     float64
	TTSVolume    float64
	TTSCachePath string

	MusicEnabled   bool
	MusicAssetsDir string
	MusicVolume    float64

	LibraryPath string
	LogLevel    string
}

func SetDefaults() {
	viper.SetDefault("story.endpoint", "https://storygenie-backend.onrender.com/api/generate-story")
	viper.SetDefault("story.timeout", 20*time.Second)
	viper.SetDefault("images.base_url", "https://image.pollinations.ai/prompt/")

	viper.SetDefault("tts.type", "auto") // Auto-select best engine
	viper.SetDefault("tts.voice", "default")
	viper.SetDefault("tts.rate", 0.95)
	viper.SetDefault("tts.pitch", 1.0)
	viper.SetDefault("tts.volume", 1.0)
	viper.SetDefault("tts.cache_path", filepath.Join(dataDirectory(), "tts-cache"))

	viper.SetDefault("music.enabled", true)
	viper.SetDefault("music.assets_dir", filepath.Join("assets", "audio"))
	viper.SetDefault("music.volume", 0.4)

	viper.SetDefault("library.path", dataDirectory())
	viper.SetDefault("log.level", "warn")
}

// Init wires viper to the config file, .env and STORYGENIE_* environment variables.
func Init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	viper.SetConfigName("storygenie")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.storygenie")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("storygenie")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logrus.WithError(err).Warn("Failed to read config file")
		}
	}
}

// Load reads the current viper settings
func Load() Config {
	return Config{
		StoryEndpoint: viper.GetString("story.endpoint"),
		StoryTimeout:  viper.GetDuration("story.timeout"),
		ImageBaseURL:  viper.GetString("images.base_url"),

		TTSType:      viper.GetString("tts.type"),
		TTSVoice:     viper.GetString("tts.voice"),
		TTSRate:      viper.GetFloat64("tts.rate"),
		TTSPitch:     viper.GetFloat64("tts.pitch"),
		TTSVolume:    viper.GetFloat64("tts.volume"),
		TTSCachePath: viper.GetString("tts.cache_path"),

		MusicEnabled:   viper.GetBool("music.enabled"),
		MusicAssetsDir: viper.GetString("music.assets_dir"),
		MusicVolume:    viper.GetFloat64("music.volume"),

		LibraryPath: viper.GetString("library.path"),
		LogLevel:    viper.GetString("log.level"),
	}
}

// ApplyLogLevel sets the logrus level, keeping the current one if level is invalid.
func (c Config) ApplyLogLevel() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.WithError(err).Warn("Invalid log level")
		return
	}
	logrus.SetLevel(level)
}

// dataDirectory returns where saved stories and caches live
func dataDirectory() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "storygenie")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".storygenie")
	}

	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, ".storygenie")
	}

	return ".storygenie"
}
