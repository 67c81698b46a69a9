//go:build !windows

package hotkey

import (
	"fmt"

	"go.uber.org/zap"
)

// Interceptor is not supported on non-Windows builds.
type Interceptor struct {
	events chan Event
}

func NewInterceptor(keymap *Keymap, log *zap.Logger, debug bool) *Interceptor {
	return &Interceptor{events: make(chan Event)}
}

func (in *Interceptor) Events() <-chan Event { return in.events }

func (in *Interceptor) Start() error {
	return fmt.Errorf("keyboard hook not supported on this platform")
}

func (in *Interceptor) Close() error {
	close(in.events)
	return nil
}
