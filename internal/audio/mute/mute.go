// Package mute silences system playback while the microphone is open, so
// speaker output does not bleed into the transcription. The platform volume
// API sits behind SessionAPI; the snapshot/restore logic is portable.
package mute

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// SessionAPI exposes the volume of each active playback endpoint, keyed by
// enumeration index.
type SessionAPI interface {
	Volumes() ([]float32, error)
	SetVolume(index int, level float32) error
}

// Muter brackets a recording: Mute snapshots every audible endpoint and
// zeroes it, Restore puts the snapshot back. Both are idempotent, and
// Restore is best-effort so endpoints that vanished mid-recording cannot
// keep the rest silenced.
type Muter struct {
	log *zap.Logger
	api SessionAPI

	mu       sync.Mutex
	snapshot map[int]float32
}

// New creates a muter over the given volume API.
func New(api SessionAPI, log *zap.Logger) *Muter {
	return &Muter{log: log, api: api}
}

// Muted reports whether a snapshot is currently held.
func (m *Muter) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot != nil
}

// Mute zeroes every audible endpoint, remembering the previous levels.
// Calling Mute while already muted is a no-op, so the snapshot never
// captures the zeroed state.
func (m *Muter) Mute() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot != nil {
		return nil
	}

	volumes, err := m.api.Volumes()
	if err != nil {
		return fmt.Errorf("enumerate playback volumes: %w", err)
	}

	snapshot := make(map[int]float32)
	for i, v := range volumes {
		if v <= 0 {
			continue
		}
		if err := m.api.SetVolume(i, 0); err != nil {
			// roll back what we already silenced
			for j, prev := range snapshot {
				_ = m.api.SetVolume(j, prev)
			}
			return fmt.Errorf("mute endpoint %d: %w", i, err)
		}
		snapshot[i] = v
	}
	m.snapshot = snapshot
	m.log.Debug("playback muted", zap.Int("endpoints", len(snapshot)))
	return nil
}

// Restore puts the snapshot levels back. Endpoints that disappeared are
// skipped with a warning. Silent endpoints outside the snapshot are brought
// back to full volume; they were either silenced while the bracket was held
// or appeared muted during it, and leaving them dead loses audio the user
// never turned off. Calling Restore while not muted is a no-op.
func (m *Muter) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil
	}
	for i, v := range m.snapshot {
		if err := m.api.SetVolume(i, v); err != nil {
			m.log.Warn("failed to restore playback volume",
				zap.Int("endpoint", i),
				zap.Error(err))
		}
	}
	if volumes, err := m.api.Volumes(); err == nil {
		for i, v := range volumes {
			if _, known := m.snapshot[i]; known || v > 0 {
				continue
			}
			if err := m.api.SetVolume(i, 1); err != nil {
				m.log.Warn("failed to revive silent endpoint",
					zap.Int("endpoint", i),
					zap.Error(err))
			}
		}
	}
	m.snapshot = nil
	m.log.Debug("playback restored")
	return nil
}

// ForceRestore raises every silent endpoint to full volume, snapshot or not.
// It is the shutdown escape hatch: whatever state the bracket died in, the
// system ends up audible.
func (m *Muter) ForceRestore() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	volumes, err := m.api.Volumes()
	if err != nil {
		return fmt.Errorf("enumerate playback volumes: %w", err)
	}
	for i, v := range volumes {
		if v > 0 {
			continue
		}
		if err := m.api.SetVolume(i, 1); err != nil {
			m.log.Warn("failed to force-restore playback volume",
				zap.Int("endpoint", i),
				zap.Error(err))
		}
	}
	m.snapshot = nil
	return nil
}
