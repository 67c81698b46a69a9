package profile

import (
	"fmt"
	"time"
)

// Configuration is the persisted aggregate: the ordered profile list plus the
// active pointer and schema version. It owns the uniqueness and hotkey
// conflict invariants; all mutations go through its methods.
type Configuration struct {
	Profiles        []*HotkeyProfile `json:"profiles"`
	ActiveProfileID string           `json:"activeProfileId,omitempty"`
	Version         int              `json:"version"`
	LastModified    time.Time        `json:"lastModified"`
}

// NewConfiguration returns an empty schema-version-1 configuration.
func NewConfiguration() *Configuration {
	return &Configuration{Version: 1, LastModified: time.Now()}
}

// ByID returns the profile with the given id, or nil.
func (c *Configuration) ByID(id string) *HotkeyProfile {
	for _, p := range c.Profiles {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ByHotkey returns the enabled profile owning the hotkey, or nil.
func (c *Configuration) ByHotkey(hotkey string) *HotkeyProfile {
	for _, p := range c.Profiles {
		if p.Hotkey == hotkey && p.IsEnabled {
			return p
		}
	}
	return nil
}

// HasConflict reports whether another enabled profile already owns hotkey.
func (c *Configuration) HasConflict(hotkey, excludeID string) bool {
	for _, p := range c.Profiles {
		if p.Hotkey == hotkey && p.ID != excludeID && p.IsEnabled {
			return true
		}
	}
	return false
}

// Add appends a validated, conflict-free profile.
func (c *Configuration) Add(p *HotkeyProfile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if existing := c.ByID(p.ID); existing != nil {
		return fmt.Errorf("profile %q already exists", p.ID)
	}
	if p.IsEnabled && c.HasConflict(p.Hotkey, p.ID) {
		return &ConflictError{Hotkey: p.Hotkey, OwnerID: c.ByHotkey(p.Hotkey).ID}
	}
	c.Profiles = append(c.Profiles, p)
	c.LastModified = time.Now()
	return nil
}

// Update replaces an existing profile in place. Conflicts are rejected, never
// silently overwritten.
func (c *Configuration) Update(p *HotkeyProfile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	existing := c.ByID(p.ID)
	if existing == nil {
		return &NotFoundError{ID: p.ID}
	}
	if p.IsEnabled && c.HasConflict(p.Hotkey, p.ID) {
		return &ConflictError{Hotkey: p.Hotkey, OwnerID: c.ByHotkey(p.Hotkey).ID}
	}
	for i, q := range c.Profiles {
		if q.ID == p.ID {
			p.UpdatedAt = time.Now()
			c.Profiles[i] = p
			break
		}
	}
	c.LastModified = time.Now()
	return nil
}

// Remove deletes a profile by id. Default profiles may be removed too.
func (c *Configuration) Remove(id string) error {
	for i, p := range c.Profiles {
		if p.ID == id {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			if c.ActiveProfileID == id {
				c.ActiveProfileID = ""
			}
			c.LastModified = time.Now()
			return nil
		}
	}
	return &NotFoundError{ID: id}
}

// SetActive points the active-profile marker at an existing profile.
func (c *Configuration) SetActive(id string) error {
	if c.ByID(id) == nil {
		return &NotFoundError{ID: id}
	}
	c.ActiveProfileID = id
	c.LastModified = time.Now()
	return nil
}

// Clone deep-copies the configuration, so a candidate mutation can be built
// and persisted without touching the live aggregate. Timestamps are carried
// over untouched.
func (c *Configuration) Clone() *Configuration {
	cp := *c
	cp.Profiles = make([]*HotkeyProfile, len(c.Profiles))
	for i, p := range c.Profiles {
		q := *p
		cp.Profiles[i] = &q
	}
	return &cp
}

// Enabled returns the enabled profiles in declaration order.
func (c *Configuration) Enabled() []*HotkeyProfile {
	var out []*HotkeyProfile
	for _, p := range c.Profiles {
		if p.IsEnabled {
			out = append(out, p)
		}
	}
	return out
}

// Default builds the stock configuration shipped on first run.
func Default() *Configuration {
	c := NewConfiguration()
	now := time.Now()

	add := func(p *HotkeyProfile) {
		p.CreatedAt = now
		p.UpdatedAt = now
		p.IsDefault = true
		// Stock profiles never conflict with each other.
		_ = c.Add(p)
	}

	add(&HotkeyProfile{
		ID:             "default-auto",
		Name:           "自动语音转写",
		Hotkey:         "F2",
		InputLanguage:  "auto",
		OutputLanguage: "none",
		RecordingMode:  ModePushToTalk,
		IsEnabled:      true,
	})
	add(&HotkeyProfile{
		ID:                "default-auto-zh",
		Name:              "自动检测→中文（含校正效果）",
		Hotkey:            "F3",
		InputLanguage:     "auto",
		OutputLanguage:    "zh-CN",
		TranslationPrompt: correctionPromptZH,
		RecordingMode:     ModePushToTalk,
		IsEnabled:         false,
	})
	add(&HotkeyProfile{
		ID:             "default-auto-en",
		Name:           "自动检测→英文",
		Hotkey:         "F4",
		InputLanguage:  "auto",
		OutputLanguage: "en-US",
		RecordingMode:  ModePushToTalk,
		IsEnabled:      false,
	})
	add(&HotkeyProfile{
		ID:             "default-auto-ja",
		Name:           "自动检测→日文",
		Hotkey:         "F5",
		InputLanguage:  "auto",
		OutputLanguage: "ja-JP",
		RecordingMode:  ModePushToTalk,
		IsEnabled:      false,
	})

	c.ActiveProfileID = "default-auto"
	return c
}

const correctionPromptZH = `* rule: This is the text result from user speech recognition.
* rule: Please correct any misspellings, homophone errors, and basic grammar mistakes.
* rule: Add appropriate punctuation to ensure the output is readable and natural.
* rule: Only output the corrected text, no explanations, no quotes, and no additional commentary.
* rule: Users may mix Chinese and English words in their input; maintain this mixed-language format in the output.
* rule: Do not translate embedded English words (e.g., "budget", "meeting", "review") into Chinese.
* rule: If an embedded English word has a spelling error, correct it to the proper form without translating it.
* rule: All other content should be in the specified target language: {output_language}.
* rule: If the user input is very short (one or two words), do not attempt to complete or extend the sentence.
* rule: Treat the input as a raw transcription to be cleaned, not as a message requiring a reply.`
