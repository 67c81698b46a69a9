package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aaronpeng2020/spext/internal/language"
)

// Recording modes.
const (
	ModePushToTalk = "PushToTalk"
	ModeToggle     = "Toggle"
)

// HotkeyProfile binds one hotkey to a language pair, prompts and a recording mode.
type HotkeyProfile struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Hotkey             string    `json:"hotkey"`
	InputLanguage      string    `json:"inputLanguage"`
	OutputLanguage     string    `json:"outputLanguage"`
	CustomPrompt       string    `json:"customPrompt,omitempty"` // legacy field, fallback for TranscriptionPrompt
	TranscriptionPrompt string   `json:"transcriptionPrompt,omitempty"`
	TranslationPrompt  string    `json:"translationPrompt,omitempty"`
	RecordingMode      string    `json:"recordingMode"`
	IsDefault          bool      `json:"isDefault"`
	IsEnabled          bool      `json:"isEnabled"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// NewProfile returns an enabled push-to-talk profile with a fresh id.
func NewProfile() *HotkeyProfile {
	now := time.Now()
	return &HotkeyProfile{
		ID:            uuid.New().String(),
		RecordingMode: ModePushToTalk,
		IsEnabled:     true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// TranslationEnabled reports whether the profile wants the second pipeline
// stage: an output language is set and is not a sentinel value.
func (p *HotkeyProfile) TranslationEnabled() bool {
	return p.OutputLanguage != "" &&
		p.OutputLanguage != language.Auto &&
		p.OutputLanguage != language.None
}

// EffectiveTranscriptionPrompt falls back to the legacy CustomPrompt field.
func (p *HotkeyProfile) EffectiveTranscriptionPrompt() string {
	if p.TranscriptionPrompt != "" {
		return p.TranscriptionPrompt
	}
	return p.CustomPrompt
}

// Mode normalizes the recording mode; anything but Toggle is push-to-talk.
func (p *HotkeyProfile) Mode() string {
	if p.RecordingMode == ModeToggle {
		return ModeToggle
	}
	return ModePushToTalk
}

// Validate checks the required fields.
func (p *HotkeyProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is empty")
	}
	if strings.TrimSpace(p.Hotkey) == "" {
		return fmt.Errorf("profile %q has no hotkey", p.Name)
	}
	if strings.TrimSpace(p.InputLanguage) == "" {
		return fmt.Errorf("profile %q has no input language", p.Name)
	}
	if strings.TrimSpace(p.OutputLanguage) == "" {
		return fmt.Errorf("profile %q has no output language", p.Name)
	}
	return nil
}

// Clone copies the profile, keeping ID, CreatedAt and IsDefault so an edited
// copy still validates against the original's hotkey, and refreshes UpdatedAt.
func (p *HotkeyProfile) Clone() *HotkeyProfile {
	cp := *p
	cp.UpdatedAt = time.Now()
	return &cp
}

// ConflictError is returned when a mutation would give two enabled profiles
// the same hotkey.
type ConflictError struct {
	Hotkey  string
	OwnerID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("hotkey %q is already in use", e.Hotkey)
}

// NotFoundError is returned when a profile id does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("profile %q not found", e.ID)
}
