// Package hotkey binds keyboard keys to dictation profiles. The platform
// independent part is the keymap and the key-spec parser; the Windows build
// adds a low-level keyboard interceptor that feeds the keymap.
package hotkey

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind distinguishes press from release events.
type Kind int

const (
	KindPress Kind = iota
	KindRelease
)

func (k Kind) String() string {
	if k == KindPress {
		return "press"
	}
	return "release"
}

// Event is one hotkey transition delivered to the dispatcher.
type Event struct {
	ProfileID string
	Kind      Kind
	VK        uint32
	Target    uintptr // foreground window at press time, 0 when unknown
	Time      time.Time
}

// Binding ties a parsed key to a profile.
type Binding struct {
	ProfileID string
	Spec      string
	VK        uint32
}

// Keymap maps virtual-key codes to profile ids and tracks which bound keys
// are currently held. It is safe for concurrent use; the hook callback reads
// it while the configuration side replaces it.
type Keymap struct {
	log *zap.Logger

	mu      sync.RWMutex
	byVK    map[uint32]Binding
	pressed map[uint32]bool
}

// NewKeymap returns an empty keymap.
func NewKeymap(log *zap.Logger) *Keymap {
	return &Keymap{
		log:     log,
		byVK:    make(map[uint32]Binding),
		pressed: make(map[uint32]bool),
	}
}

// Replace swaps in a new set of bindings, keeping held-key state so a key
// released after a reload still pairs with its press. Unparseable specs and
// duplicate keys are skipped with a warning; the first binding for a key
// wins. Returns the number of keys bound.
func (k *Keymap) Replace(bindings []Binding) int {
	byVK := make(map[uint32]Binding, len(bindings))
	for _, b := range bindings {
		vk, truncated, err := ParseKey(b.Spec)
		if err != nil {
			k.log.Warn("skipping unparseable hotkey",
				zap.String("profile", b.ProfileID),
				zap.String("hotkey", b.Spec),
				zap.Error(err))
			continue
		}
		if truncated {
			k.log.Warn("hotkey modifiers are not supported, binding the trailing key",
				zap.String("profile", b.ProfileID),
				zap.String("hotkey", b.Spec))
		}
		if owner, exists := byVK[vk]; exists {
			k.log.Warn("skipping conflicting hotkey",
				zap.String("profile", b.ProfileID),
				zap.String("hotkey", b.Spec),
				zap.String("owner", owner.ProfileID))
			continue
		}
		b.VK = vk
		byVK[vk] = b
	}

	k.mu.Lock()
	k.byVK = byVK
	k.mu.Unlock()
	return len(byVK)
}

// Bindings returns a snapshot of the current bindings.
func (k *Keymap) Bindings() []Binding {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]Binding, 0, len(k.byVK))
	for _, b := range k.byVK {
		out = append(out, b)
	}
	return out
}

// Press records a key-down for vk. It returns the bound profile id, or
// ok=false when the key is unbound or already held (keyboard auto-repeat).
func (k *Keymap) Press(vk uint32) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	b, bound := k.byVK[vk]
	if !bound {
		return "", false
	}
	if k.pressed[vk] {
		return "", false
	}
	k.pressed[vk] = true
	return b.ProfileID, true
}

// Release records a key-up for vk. It returns ok=false when no matching
// press was seen, so a release without a press is a no-op upstream.
func (k *Keymap) Release(vk uint32) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.pressed[vk] {
		return "", false
	}
	delete(k.pressed, vk)
	b, bound := k.byVK[vk]
	if !bound {
		// binding vanished in a reload while the key was held
		return "", false
	}
	return b.ProfileID, true
}

// Held reports whether vk is currently held.
func (k *Keymap) Held(vk uint32) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.pressed[vk]
}

const (
	vkNumpad0  = 0x60
	vkAdd      = 0x6B
	vkSubtract = 0x6D
)

// ParseKey accepts strings like "F2", "alt+q" or "esc" and returns the
// virtual-key code of the trailing key. Modifier prefixes are tolerated but
// not enforced; truncated reports that they were dropped.
func ParseKey(s string) (uint32, bool, error) {
	if strings.TrimSpace(s) == "" {
		return 0, false, fmt.Errorf("empty key")
	}
	parts := strings.Split(s, "+")
	for i := range parts {
		parts[i] = strings.TrimSpace(strings.ToLower(parts[i]))
	}
	keyToken := parts[len(parts)-1]
	truncated := len(parts) > 1

	if len(keyToken) == 1 {
		ch := keyToken[0]
		if ch >= 'a' && ch <= 'z' {
			return uint32(ch - 'a' + 'A'), truncated, nil
		}
		if ch >= '0' && ch <= '9' {
			return uint32(ch), truncated, nil
		}
	}
	switch keyToken {
	case "esc", "escape":
		return 0x1B, truncated, nil
	case "space":
		return 0x20, truncated, nil
	case "enter", "return":
		return 0x0D, truncated, nil
	case "tab":
		return 0x09, truncated, nil
	case "backspace":
		return 0x08, truncated, nil
	case "insert":
		return 0x2D, truncated, nil
	case "delete":
		return 0x2E, truncated, nil
	case "home":
		return 0x24, truncated, nil
	case "end":
		return 0x23, truncated, nil
	case "pageup":
		return 0x21, truncated, nil
	case "pagedown":
		return 0x22, truncated, nil
	case "left":
		return 0x25, truncated, nil
	case "up":
		return 0x26, truncated, nil
	case "right":
		return 0x27, truncated, nil
	case "down":
		return 0x28, truncated, nil
	case "add", "plus", "kpadd":
		return vkAdd, truncated, nil
	case "subtract", "minus", "kpsubtract":
		return vkSubtract, truncated, nil
	}
	if strings.HasPrefix(keyToken, "f") {
		if n, err := strconv.Atoi(strings.TrimPrefix(keyToken, "f")); err == nil && n >= 1 && n <= 24 {
			return 0x70 + uint32(n-1), truncated, nil
		}
	}
	for _, prefix := range []string{"numpad", "num", "kp"} {
		if strings.HasPrefix(keyToken, prefix) {
			if n, err := strconv.Atoi(strings.TrimPrefix(keyToken, prefix)); err == nil && n >= 0 && n <= 9 {
				return vkNumpad0 + uint32(n), truncated, nil
			}
		}
	}
	return 0, false, fmt.Errorf("unsupported key token: %s", s)
}
