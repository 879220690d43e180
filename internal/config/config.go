// Package config handles loading and validating the gesturespeak configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for the gesturespeak daemon.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Camera      CameraConfig      `mapstructure:"camera"`
	Capture     CaptureConfig     `mapstructure:"capture"`
	Translation TranslationConfig `mapstructure:"translation"`
	Speech      SpeechConfig      `mapstructure:"speech"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the listening ports for the daemon's servers.
type ServerConfig struct {
	APIPort     int  `mapstructure:"api_port"`
	HealthPort  int  `mapstructure:"health_port"`
	GRPCEnabled bool `mapstructure:"grpc_enabled"`
	GRPCPort    int  `mapstructure:"grpc_port"`
}

// CameraConfig selects and configures the camera backend.
type CameraConfig struct {
	Backend string `mapstructure:"backend"` // "device" or "stub"

	// Facing is the preferred camera orientation: "environment" (rear)
	// or "user" (front). V4L2 devices carry no facing metadata, so the
	// preference maps onto the device indexes below.
	Facing       string `mapstructure:"facing"`
	RearDevice   int    `mapstructure:"rear_device"`
	FrontDevice  int    `mapstructure:"front_device"`
	FrameWidth   int    `mapstructure:"frame_width"`  // 0 = device native
	FrameHeight  int    `mapstructure:"frame_height"` // 0 = device native
	StubDeny     bool   `mapstructure:"stub_deny"`    // stub backend: simulate a permission denial
}

// CaptureConfig holds snapshot encoding and export settings.
type CaptureConfig struct {
	ExportDir   string `mapstructure:"export_dir"`
	JPEGQuality int    `mapstructure:"jpeg_quality"`
}

// TranslationConfig tunes the mock translation step.
type TranslationConfig struct {
	// DelayMs is the simulated processing delay for the image path.
	DelayMs int `mapstructure:"delay_ms"`

	// Placeholder overrides the fixed translation string. Empty keeps
	// the built-in sample text.
	Placeholder string `mapstructure:"placeholder"`
}

// SpeechConfig selects and configures the text-to-speech backend.
type SpeechConfig struct {
	Backend string      `mapstructure:"backend"` // "piper", "stub", or "none"
	Piper   PiperConfig `mapstructure:"piper"`

	// Player selects the audio sink: "command" pipes WAV into
	// PlayerCommand, "simulate" holds the speaking state for the audio's
	// real duration (clients play the audio themselves).
	Player        string   `mapstructure:"player"`
	PlayerCommand []string `mapstructure:"player_command"`

	Defaults VoiceDefaults `mapstructure:"defaults"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// For per-language instances, set Endpoints which maps ISO-639-1 codes to
// individual Wyoming TCP endpoints. If both are set, Endpoints takes
// precedence and Endpoint is the fallback.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`  // Default Wyoming TCP endpoint (host:port)
	Endpoints map[string]string `mapstructure:"endpoints"` // ISO-639-1 language code -> Wyoming TCP endpoint
	Voices    map[string]string `mapstructure:"voices"`    // ISO-639-1 language code -> Piper voice model name
}

// VoiceDefaults are the initial speech settings for a new session.
type VoiceDefaults struct {
	Language string  `mapstructure:"language"`
	Pitch    float64 `mapstructure:"pitch"`
	Rate     float64 `mapstructure:"rate"`
	Volume   float64 `mapstructure:"volume"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./gesturespeak.yaml, ./configs/gesturespeak.yaml,
// /etc/gesturespeak/gesturespeak.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.api_port", 8080)
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.grpc_enabled", false)
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("camera.backend", "device")
	v.SetDefault("camera.facing", "environment")
	v.SetDefault("camera.rear_device", 0)
	v.SetDefault("camera.front_device", 1)
	v.SetDefault("camera.frame_width", 0)
	v.SetDefault("camera.frame_height", 0)
	v.SetDefault("camera.stub_deny", false)
	v.SetDefault("capture.export_dir", "./captures")
	v.SetDefault("capture.jpeg_quality", 90)
	v.SetDefault("translation.delay_ms", 2000)
	v.SetDefault("translation.placeholder", "")
	v.SetDefault("speech.backend", "piper")
	v.SetDefault("speech.piper.endpoint", "localhost:10200")
	v.SetDefault("speech.player", "simulate")
	v.SetDefault("speech.player_command", []string{"aplay", "-q"})
	v.SetDefault("speech.defaults.language", "en")
	v.SetDefault("speech.defaults.pitch", 1.0)
	v.SetDefault("speech.defaults.rate", 0.75)
	v.SetDefault("speech.defaults.volume", 1.0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("gesturespeak")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/gesturespeak")
	}

	// Environment variables: GESTURESPEAK_SERVER_API_PORT, GESTURESPEAK_SPEECH_BACKEND, etc.
	v.SetEnvPrefix("GESTURESPEAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional — env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate rejects configurations the daemon cannot start with.
func validate(cfg *Config) error {
	switch cfg.Camera.Backend {
	case "device", "stub":
	default:
		return fmt.Errorf("unknown camera backend %q", cfg.Camera.Backend)
	}

	switch cfg.Speech.Backend {
	case "piper", "stub", "none":
	default:
		return fmt.Errorf("unknown speech backend %q", cfg.Speech.Backend)
	}

	switch cfg.Speech.Player {
	case "command", "simulate":
	default:
		return fmt.Errorf("unknown speech player %q", cfg.Speech.Player)
	}

	if q := cfg.Capture.JPEGQuality; q < 1 || q > 100 {
		return fmt.Errorf("capture.jpeg_quality must be within [1, 100], got %d", q)
	}
	if cfg.Translation.DelayMs < 0 {
		return fmt.Errorf("translation.delay_ms must not be negative")
	}

	return nil
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
