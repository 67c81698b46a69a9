// Package notify shows desktop notifications for recording and pipeline
// milestones.
package notify

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

const title = "Spext"

// Notifier shows desktop notifications when enabled. A disabled notifier is
// a no-op, so call sites never check the config themselves.
type Notifier struct {
	log     *zap.Logger
	enabled bool
}

// New creates a notifier.
func New(enabled bool, log *zap.Logger) *Notifier {
	return &Notifier{log: log, enabled: enabled}
}

// Show displays a notification. Failures are logged, never fatal.
func (n *Notifier) Show(message string) {
	if n == nil || !n.enabled {
		return
	}
	if err := beeep.Notify(title, message, ""); err != nil {
		n.log.Debug("notification failed", zap.Error(err))
	}
}
