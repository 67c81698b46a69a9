package profile

import (
	"sync"

	"go.uber.org/zap"
)

// Registry is the in-memory view of the store with a mutation API. Every
// mutation validates against the configuration invariants, persists
// synchronously, then signals subscribers so hotkey registrations follow the
// stored state.
type Registry struct {
	log   *zap.Logger
	store *Store

	mu   sync.RWMutex
	cfg  *Configuration
	subs []chan struct{}
}

// NewRegistry loads the store and wraps it.
func NewRegistry(store *Store, log *zap.Logger) (*Registry, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Registry{log: log, store: store, cfg: cfg}, nil
}

// Subscribe returns a signal channel that receives (at least) one tick after
// every configuration change. The channel has capacity one; a slow consumer
// coalesces bursts instead of blocking the mutator.
func (r *Registry) Subscribe() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{}, 1)
	r.subs = append(r.subs, ch)
	return ch
}

// Unsubscribe removes a channel returned by Subscribe.
func (r *Registry) Unsubscribe(ch <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.subs {
		if c == ch {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

// Enabled returns a snapshot of the enabled profiles.
func (r *Registry) Enabled() []*HotkeyProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	enabled := r.cfg.Enabled()
	out := make([]*HotkeyProfile, len(enabled))
	for i, p := range enabled {
		out[i] = p.Clone()
	}
	return out
}

// All returns a snapshot of every profile.
func (r *Registry) All() []*HotkeyProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*HotkeyProfile, len(r.cfg.Profiles))
	for i, p := range r.cfg.Profiles {
		out[i] = p.Clone()
	}
	return out
}

// ByID returns a copy of the profile with the given id, or nil.
func (r *Registry) ByID(id string) *HotkeyProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p := r.cfg.ByID(id); p != nil {
		return p.Clone()
	}
	return nil
}

// Active returns a copy of the active profile, or nil when unset.
func (r *Registry) Active() *HotkeyProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p := r.cfg.ByID(r.cfg.ActiveProfileID); p != nil {
		return p.Clone()
	}
	return nil
}

// Add inserts a new profile.
func (r *Registry) Add(p *HotkeyProfile) error {
	return r.mutate(func(c *Configuration) error { return c.Add(p) })
}

// Update replaces an existing profile.
func (r *Registry) Update(p *HotkeyProfile) error {
	return r.mutate(func(c *Configuration) error { return c.Update(p) })
}

// Remove deletes a profile by id.
func (r *Registry) Remove(id string) error {
	return r.mutate(func(c *Configuration) error { return c.Remove(id) })
}

// SetEnabled flips a profile's enabled flag, honoring the conflict invariant
// when enabling.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	return r.mutate(func(c *Configuration) error {
		p := c.ByID(id)
		if p == nil {
			return &NotFoundError{ID: id}
		}
		if enabled && c.HasConflict(p.Hotkey, p.ID) {
			return &ConflictError{Hotkey: p.Hotkey, OwnerID: c.ByHotkey(p.Hotkey).ID}
		}
		cp := p.Clone()
		cp.IsEnabled = enabled
		return c.Update(cp)
	})
}

// SetActive moves the active-profile pointer.
func (r *Registry) SetActive(id string) error {
	return r.mutate(func(c *Configuration) error { return c.SetActive(id) })
}

// RestoreDefaults replaces the whole configuration with the stock profiles.
func (r *Registry) RestoreDefaults() error {
	r.mu.Lock()
	def := Default()
	if err := r.store.Save(def); err != nil {
		r.mu.Unlock()
		return err
	}
	r.cfg = def
	r.mu.Unlock()
	r.notify()
	return nil
}

// Import replaces the configuration from an exported file.
func (r *Registry) Import(path string) error {
	cfg, err := r.store.Import(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	if err := r.store.Save(cfg); err != nil {
		r.mu.Unlock()
		return err
	}
	r.cfg = cfg
	r.mu.Unlock()
	r.notify()
	return nil
}

// Export writes the current configuration to path.
func (r *Registry) Export(path string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Export(r.cfg, path)
}

// Reload re-reads the store, picking up external edits to profiles.json.
func (r *Registry) Reload() error {
	cfg, err := r.store.Load()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	r.log.Info("profile configuration reloaded", zap.Int("profiles", len(cfg.Profiles)))
	r.notify()
	return nil
}

// mutate runs fn against a copy and only advances the live configuration
// once the store accepted the new revision, so a failed save never leaves
// memory and disk disagreeing.
func (r *Registry) mutate(fn func(*Configuration) error) error {
	r.mu.Lock()
	next := r.cfg.Clone()
	if err := fn(next); err != nil {
		r.mu.Unlock()
		return err
	}
	if err := r.store.Save(next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.cfg = next
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *Registry) notify() {
	r.mu.RLock()
	subs := make([]chan struct{}, len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
