package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, Validate(&cfg))
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty endpoint", func(c *Config) { c.TranscribeEndpoint = "" }},
		{"channels", func(c *Config) { c.Channels = 0 }},
		{"rate", func(c *Config) { c.SAMPLING_RATE = -1 }},
		{"depth", func(c *Config) { c.SAMPLING_RATE_DEPTH = 12 }},
		{"timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"retry", func(c *Config) { c.MaxRetry = -1 }},
		{"temperature", func(c *Config) { c.ChatTemperature = 3 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, Validate(&cfg))
		})
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"API_KEY": "sk-test", "CHAT_MODEL": "gpt-4o", "MAX_RETRY": 5}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "gpt-4o", cfg.ChatModel)
	assert.Equal(t, 5, cfg.MaxRetry)
	// untouched fields keep defaults
	assert.Equal(t, "whisper-1", cfg.WhisperModel)
	assert.Equal(t, 16000, cfg.SAMPLING_RATE)
}

func TestSaveDefaultRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, SaveDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestKeyFallbackChain(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "shared"
	assert.Equal(t, "shared", cfg.TranscribeKey())
	assert.Equal(t, "shared", cfg.ChatKey())

	cfg.WhisperAPIKey = "whisper-only"
	cfg.ChatAPIKey = "chat-only"
	assert.Equal(t, "whisper-only", cfg.TranscribeKey())
	assert.Equal(t, "chat-only", cfg.ChatKey())
}

func TestApplyFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fv := BindFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"-api-key", "sk-flag",
		"-max-retry", "7",
		"-verify-ssl", "no",
		"-mute-while-recording", "0",
		"-request-failed-notification", "false",
	}))

	cfg := DefaultConfig()
	ApplyFlags(&cfg, fv)
	assert.Equal(t, "sk-flag", cfg.APIKey)
	assert.Equal(t, 7, cfg.MaxRetry)
	assert.False(t, cfg.VerifySSL)
	assert.False(t, cfg.MuteWhileRecording)
	assert.False(t, cfg.RequestFailedNotification)
	assert.True(t, fv.AnySet())

	// unset flags do not clobber loaded values
	assert.Equal(t, "whisper-1", cfg.WhisperModel)
}

func TestResolveProfileDirCreates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProfileDir = filepath.Join(t.TempDir(), "nested", "profiles")

	dir, err := ResolveProfileDir(&cfg)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
