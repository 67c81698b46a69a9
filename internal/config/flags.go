package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// FlagValues holds parsed flags with explicit set tracking.
type FlagValues struct {
	TranscribeEndpoint    string
	TranscribeEndpointSet bool
	ChatEndpoint          string
	ChatEndpointSet       bool
	APIKey                string
	APIKeySet             bool
	WhisperAPIKey         string
	WhisperAPIKeySet      bool
	ChatAPIKey            string
	ChatAPIKeySet         bool
	WhisperModel          string
	WhisperModelSet       bool
	ChatModel             string
	ChatModelSet          bool
	TEXTPath              string
	TEXTPathSet           bool

	Channels               int
	ChannelsSet            bool
	SAMPLING_RATE          int
	SAMPLING_RATESet       bool
	SAMPLING_RATE_DEPTH    int
	SAMPLING_RATE_DEPTHSet bool

	RequestTimeout    int
	RequestTimeoutSet bool
	ChatTimeout       int
	ChatTimeoutSet    bool
	MaxRetry          int
	MaxRetrySet       bool
	RetryBaseDelay    float64
	RetryBaseDelaySet bool
	EnableHTTP2       bool
	EnableHTTP2Set    bool
	VerifySSL         bool
	VerifySSLSet      bool

	MuteWhileRecording           bool
	MuteWhileRecordingSet        bool
	Notification                 bool
	NotificationSet              bool
	RequestFailedNotification    bool
	RequestFailedNotificationSet bool

	ProfileDir    string
	ProfileDirSet bool
	LogFile       string
	LogFileSet    bool
	LogLevel      string
	LogLevelSet   bool

	RECORD_DEBUG    bool
	RECORD_DEBUGSet bool
	HOTKEY_DEBUG    bool
	HOTKEY_DEBUGSet bool
	UPLOAD_DEBUG    bool
	UPLOAD_DEBUGSet bool

	OutputPath    string
	OutputPathSet bool
}

type stringFlag struct {
	target *string
	set    *bool
}

func (s *stringFlag) String() string {
	if s == nil || s.target == nil {
		return ""
	}
	return *s.target
}

func (s *stringFlag) Set(v string) error {
	if s.target != nil {
		*s.target = v
	}
	if s.set != nil {
		*s.set = true
	}
	return nil
}

type intFlag struct {
	target *int
	set    *bool
}

func (i *intFlag) String() string {
	if i == nil || i.target == nil {
		return ""
	}
	return fmt.Sprintf("%d", *i.target)
}

func (i *intFlag) Set(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	if i.target != nil {
		*i.target = n
	}
	if i.set != nil {
		*i.set = true
	}
	return nil
}

type floatFlag struct {
	target *float64
	set    *bool
}

func (f *floatFlag) String() string {
	if f == nil || f.target == nil {
		return ""
	}
	return fmt.Sprintf("%v", *f.target)
}

func (f *floatFlag) Set(v string) error {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	if f.target != nil {
		*f.target = n
	}
	if f.set != nil {
		*f.set = true
	}
	return nil
}

type boolFlag struct {
	target *bool
	set    *bool
}

func (b *boolFlag) String() string {
	if b == nil || b.target == nil {
		return ""
	}
	return fmt.Sprintf("%v", *b.target)
}

func parseBoolExt(v string) (bool, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean: %s", v)
}

func (b *boolFlag) Set(v string) error {
	n, err := parseBoolExt(v)
	if err != nil {
		return err
	}
	if b.target != nil {
		*b.target = n
	}
	if b.set != nil {
		*b.set = true
	}
	return nil
}

// BindFlags registers all flags and returns the populated FlagValues.
func BindFlags(fs *flag.FlagSet) *FlagValues {
	fv := &FlagValues{}

	fs.Var(&stringFlag{&fv.TranscribeEndpoint, &fv.TranscribeEndpointSet}, "transcribe-endpoint", "transcription endpoint URL")
	fs.Var(&stringFlag{&fv.ChatEndpoint, &fv.ChatEndpointSet}, "chat-endpoint", "chat-completion API base URL")
	fs.Var(&stringFlag{&fv.APIKey, &fv.APIKeySet}, "api-key", "shared API key for both endpoints")
	fs.Var(&stringFlag{&fv.WhisperAPIKey, &fv.WhisperAPIKeySet}, "whisper-api-key", "transcription API key (overrides -api-key)")
	fs.Var(&stringFlag{&fv.ChatAPIKey, &fv.ChatAPIKeySet}, "chat-api-key", "chat-completion API key (overrides -api-key)")
	fs.Var(&stringFlag{&fv.WhisperModel, &fv.WhisperModelSet}, "whisper-model", "transcription model")
	fs.Var(&stringFlag{&fv.ChatModel, &fv.ChatModelSet}, "chat-model", "chat-completion model")
	fs.Var(&stringFlag{&fv.TEXTPath, &fv.TEXTPathSet}, "text-path", "JSON path to extract text from transcription responses")

	fs.Var(&intFlag{&fv.Channels, &fv.ChannelsSet}, "channels", "channels (int)")
	fs.Var(&intFlag{&fv.SAMPLING_RATE, &fv.SAMPLING_RATESet}, "sampling-rate", "sampling rate (Hz)")
	fs.Var(&intFlag{&fv.SAMPLING_RATE_DEPTH, &fv.SAMPLING_RATE_DEPTHSet}, "sampling-rate-depth", "sampling depth (bits)")

	fs.Var(&intFlag{&fv.RequestTimeout, &fv.RequestTimeoutSet}, "request-timeout", "transcription request timeout seconds")
	fs.Var(&intFlag{&fv.ChatTimeout, &fv.ChatTimeoutSet}, "chat-timeout", "chat-completion request timeout seconds")
	fs.Var(&intFlag{&fv.MaxRetry, &fv.MaxRetrySet}, "max-retry", "max retry attempts")
	fs.Var(&floatFlag{&fv.RetryBaseDelay, &fv.RetryBaseDelaySet}, "retry-base-delay", "retry base delay seconds (float)")
	fs.Var(&boolFlag{&fv.EnableHTTP2, &fv.EnableHTTP2Set}, "enable-http2", "enable HTTP/2 (true/false)")
	fs.Var(&boolFlag{&fv.VerifySSL, &fv.VerifySSLSet}, "verify-ssl", "verify TLS certificates (true/false)")

	fs.Var(&boolFlag{&fv.MuteWhileRecording, &fv.MuteWhileRecordingSet}, "mute-while-recording", "mute system playback during capture (true/false)")
	fs.Var(&boolFlag{&fv.Notification, &fv.NotificationSet}, "notification", "enable notifications (true/false)")
	fs.Var(&boolFlag{&fv.RequestFailedNotification, &fv.RequestFailedNotificationSet}, "request-failed-notification", "paste a failure marker into the target window when every retry failed (true/false)")

	fs.Var(&stringFlag{&fv.ProfileDir, &fv.ProfileDirSet}, "profile-dir", "directory holding profiles.json")
	fs.Var(&stringFlag{&fv.LogFile, &fv.LogFileSet}, "log-file", "write JSON logs to this file in addition to stderr")
	fs.Var(&stringFlag{&fv.LogLevel, &fv.LogLevelSet}, "log-level", "log level (debug, info, warn, error)")

	fs.Var(&boolFlag{&fv.RECORD_DEBUG, &fv.RECORD_DEBUGSet}, "record-debug", "enable record debug output (true/false)")
	fs.Var(&boolFlag{&fv.HOTKEY_DEBUG, &fv.HOTKEY_DEBUGSet}, "hotkey-debug", "enable hotkey debug output (true/false)")
	fs.Var(&boolFlag{&fv.UPLOAD_DEBUG, &fv.UPLOAD_DEBUGSet}, "upload-debug", "enable upload debug output (true/false)")

	fs.Var(&stringFlag{&fv.OutputPath, &fv.OutputPathSet}, "output", "output txt path for -file mode")

	return fv
}

// ApplyFlags applies present flags to the config.
func ApplyFlags(cfg *Config, fv *FlagValues) {
	if fv.TranscribeEndpointSet {
		cfg.TranscribeEndpoint = fv.TranscribeEndpoint
	}
	if fv.ChatEndpointSet {
		cfg.ChatEndpoint = fv.ChatEndpoint
	}
	if fv.APIKeySet {
		cfg.APIKey = fv.APIKey
	}
	if fv.WhisperAPIKeySet {
		cfg.WhisperAPIKey = fv.WhisperAPIKey
	}
	if fv.ChatAPIKeySet {
		cfg.ChatAPIKey = fv.ChatAPIKey
	}
	if fv.WhisperModelSet {
		cfg.WhisperModel = fv.WhisperModel
	}
	if fv.ChatModelSet {
		cfg.ChatModel = fv.ChatModel
	}
	if fv.TEXTPathSet {
		cfg.TEXTPath = fv.TEXTPath
	}

	if fv.ChannelsSet {
		cfg.Channels = fv.Channels
	}
	if fv.SAMPLING_RATESet {
		cfg.SAMPLING_RATE = fv.SAMPLING_RATE
	}
	if fv.SAMPLING_RATE_DEPTHSet {
		cfg.SAMPLING_RATE_DEPTH = fv.SAMPLING_RATE_DEPTH
	}

	if fv.RequestTimeoutSet {
		cfg.RequestTimeout = fv.RequestTimeout
	}
	if fv.ChatTimeoutSet {
		cfg.ChatTimeout = fv.ChatTimeout
	}
	if fv.MaxRetrySet {
		cfg.MaxRetry = fv.MaxRetry
	}
	if fv.RetryBaseDelaySet {
		cfg.RetryBaseDelay = fv.RetryBaseDelay
	}
	if fv.EnableHTTP2Set {
		cfg.EnableHTTP2 = fv.EnableHTTP2
	}
	if fv.VerifySSLSet {
		cfg.VerifySSL = fv.VerifySSL
	}

	if fv.MuteWhileRecordingSet {
		cfg.MuteWhileRecording = fv.MuteWhileRecording
	}
	if fv.NotificationSet {
		cfg.Notification = fv.Notification
	}
	if fv.RequestFailedNotificationSet {
		cfg.RequestFailedNotification = fv.RequestFailedNotification
	}

	if fv.ProfileDirSet {
		cfg.ProfileDir = fv.ProfileDir
	}
	if fv.LogFileSet {
		cfg.LogFile = fv.LogFile
	}
	if fv.LogLevelSet {
		cfg.LogLevel = fv.LogLevel
	}

	if fv.RECORD_DEBUGSet {
		cfg.RECORD_DEBUG = fv.RECORD_DEBUG
	}
	if fv.HOTKEY_DEBUGSet {
		cfg.HOTKEY_DEBUG = fv.HOTKEY_DEBUG
	}
	if fv.UPLOAD_DEBUGSet {
		cfg.UPLOAD_DEBUG = fv.UPLOAD_DEBUG
	}
}

// AnySet reports whether any flag was explicitly set by the user.
func (fv *FlagValues) AnySet() bool {
	return fv.TranscribeEndpointSet ||
		fv.ChatEndpointSet ||
		fv.APIKeySet ||
		fv.WhisperAPIKeySet ||
		fv.ChatAPIKeySet ||
		fv.WhisperModelSet ||
		fv.ChatModelSet ||
		fv.TEXTPathSet ||
		fv.ChannelsSet ||
		fv.SAMPLING_RATESet ||
		fv.SAMPLING_RATE_DEPTHSet ||
		fv.RequestTimeoutSet ||
		fv.ChatTimeoutSet ||
		fv.MaxRetrySet ||
		fv.RetryBaseDelaySet ||
		fv.EnableHTTP2Set ||
		fv.VerifySSLSet ||
		fv.MuteWhileRecordingSet ||
		fv.NotificationSet ||
		fv.RequestFailedNotificationSet ||
		fv.ProfileDirSet ||
		fv.LogFileSet ||
		fv.LogLevelSet ||
		fv.RECORD_DEBUGSet ||
		fv.HOTKEY_DEBUGSet ||
		fv.UPLOAD_DEBUGSet ||
		fv.OutputPathSet
}
