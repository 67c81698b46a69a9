package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds configurable parameters.
type Config struct {
	TranscribeEndpoint string  `json:"TRANSCRIBE_ENDPOINT"`
	ChatEndpoint       string  `json:"CHAT_ENDPOINT"`
	APIKey             string  `json:"API_KEY"`
	WhisperAPIKey      string  `json:"WHISPER_API_KEY"`
	ChatAPIKey         string  `json:"CHAT_API_KEY"`
	WhisperModel       string  `json:"WHISPER_MODEL"`
	ChatModel          string  `json:"CHAT_MODEL"`
	WhisperTemperature float64 `json:"WHISPER_TEMPERATURE"`
	ChatTemperature    float64 `json:"CHAT_TEMPERATURE"`
	TEXTPath           string  `json:"TEXT_PATH"`

	Channels            int `json:"CHANNELS"`
	SAMPLING_RATE       int `json:"SAMPLING_RATE"`
	SAMPLING_RATE_DEPTH int `json:"SAMPLING_RATE_DEPTH"`

	RequestTimeout int     `json:"REQUEST_TIMEOUT"`
	ChatTimeout    int     `json:"CHAT_TIMEOUT"`
	MaxRetry       int     `json:"MAX_RETRY"`
	RetryBaseDelay float64 `json:"RETRY_BASE_DELAY"`
	EnableHTTP2    bool    `json:"ENABLE_HTTP2"`
	VerifySSL      bool    `json:"VERIFY_SSL"`

	MuteWhileRecording        bool `json:"MUTE_WHILE_RECORDING"`
	Notification              bool `json:"NOTIFICATION"`
	RequestFailedNotification bool `json:"REQUEST_FAILED_NOTIFICATION"`

	ProfileDir string `json:"PROFILE_DIR"`
	LogFile    string `json:"LOG_FILE"`
	LogLevel   string `json:"LOG_LEVEL"`

	RECORD_DEBUG bool `json:"RECORD_DEBUG"`
	HOTKEY_DEBUG bool `json:"HOTKEY_DEBUG"`
	UPLOAD_DEBUG bool `json:"UPLOAD_DEBUG"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		TranscribeEndpoint:        "https://api.openai.com/v1/audio/transcriptions",
		ChatEndpoint:              "https://api.openai.com/v1",
		APIKey:                    "",
		WhisperAPIKey:             "",
		ChatAPIKey:                "",
		WhisperModel:              "whisper-1",
		ChatModel:                 "gpt-4o-mini",
		WhisperTemperature:        0,
		ChatTemperature:           0.3,
		TEXTPath:                  "text",
		Channels:                  1,
		SAMPLING_RATE:             16000,
		SAMPLING_RATE_DEPTH:       16,
		RequestTimeout:            30,
		ChatTimeout:               30,
		MaxRetry:                  3,
		RetryBaseDelay:            0.5,
		EnableHTTP2:               true,
		VerifySSL:                 true,
		MuteWhileRecording:        true,
		Notification:              true,
		RequestFailedNotification: true,
		ProfileDir:                "",
		LogFile:                   "",
		LogLevel:                  "info",
		RECORD_DEBUG:              false,
		HOTKEY_DEBUG:              false,
		UPLOAD_DEBUG:              false,
	}
}

// Load loads config from JSON file if provided.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveDefault writes a default config JSON to the provided path.
func SaveDefault(path string) error {
	cfg := DefaultConfig()
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// TranscribeKey returns the key used for the transcription endpoint,
// preferring the stage-specific key over the shared one.
func (cfg *Config) TranscribeKey() string {
	if cfg.WhisperAPIKey != "" {
		return cfg.WhisperAPIKey
	}
	return cfg.APIKey
}

// ChatKey returns the key used for the chat-completion endpoint,
// preferring the stage-specific key over the shared one.
func (cfg *Config) ChatKey() string {
	if cfg.ChatAPIKey != "" {
		return cfg.ChatAPIKey
	}
	return cfg.APIKey
}

// Validate verifies config fields and returns an error if any value is invalid.
func Validate(cfg *Config) error {
	if cfg.TranscribeEndpoint == "" {
		return fmt.Errorf("TRANSCRIBE_ENDPOINT must not be empty")
	}
	if cfg.Channels < 1 || cfg.Channels > 8 {
		return fmt.Errorf("invalid CHANNELS: %d (allowed 1..8)", cfg.Channels)
	}
	if cfg.SAMPLING_RATE <= 0 {
		return fmt.Errorf("invalid SAMPLING_RATE: %d (must be > 0)", cfg.SAMPLING_RATE)
	}
	allowedDepth := map[int]bool{8: true, 16: true, 24: true, 32: true}
	if !allowedDepth[cfg.SAMPLING_RATE_DEPTH] {
		return fmt.Errorf("invalid SAMPLING_RATE_DEPTH: %d (allowed: 8,16,24,32)", cfg.SAMPLING_RATE_DEPTH)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("invalid REQUEST_TIMEOUT: %d (must be > 0)", cfg.RequestTimeout)
	}
	if cfg.ChatTimeout <= 0 {
		return fmt.Errorf("invalid CHAT_TIMEOUT: %d (must be > 0)", cfg.ChatTimeout)
	}
	if cfg.MaxRetry < 0 {
		return fmt.Errorf("invalid MAX_RETRY: %d (must be >= 0)", cfg.MaxRetry)
	}
	if cfg.RetryBaseDelay < 0 {
		return fmt.Errorf("invalid RETRY_BASE_DELAY: %v (must be >= 0)", cfg.RetryBaseDelay)
	}
	if cfg.WhisperTemperature < 0 || cfg.WhisperTemperature > 2 {
		return fmt.Errorf("invalid WHISPER_TEMPERATURE: %v (allowed 0..2)", cfg.WhisperTemperature)
	}
	if cfg.ChatTemperature < 0 || cfg.ChatTemperature > 2 {
		return fmt.Errorf("invalid CHAT_TEMPERATURE: %v (allowed 0..2)", cfg.ChatTemperature)
	}
	allowedLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !allowedLevels[strings.ToLower(cfg.LogLevel)] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (allowed: debug, info, warn, error)", cfg.LogLevel)
	}
	return nil
}

// ResolveProfileDir validates/creates the configured profile directory.
// An empty ProfileDir resolves to <user-config-dir>/spext.
func ResolveProfileDir(cfg *Config) (string, error) {
	dir := cfg.ProfileDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolve user config dir: %w", err)
		}
		dir = filepath.Join(base, "spext")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("profile dir path invalid %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err == nil {
		if !info.IsDir() {
			return "", fmt.Errorf("profile dir %q exists but is not a directory", abs)
		}
		return abs, nil
	}
	if os.IsNotExist(err) {
		if err := os.MkdirAll(abs, 0755); err != nil {
			return "", fmt.Errorf("cannot create profile dir %q: %w", abs, err)
		}
		return abs, nil
	}
	return "", fmt.Errorf("cannot access profile dir %q: %w", abs, err)
}
