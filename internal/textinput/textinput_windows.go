//go:build windows

package textinput

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/lxn/win"
	"github.com/micmonay/keybd_event"
	"go.uber.org/zap"
)

// Typer injects text into a window via the clipboard and a synthetic Ctrl+V.
// The clipboard contents are restored afterwards.
type Typer struct {
	log *zap.Logger
}

// New creates a typer.
func New(log *zap.Logger) *Typer {
	return &Typer{log: log}
}

// Type focuses the target window (the one that had focus when the hotkey was
// pressed) and pastes text into it. A zero target pastes into whatever is
// focused now.
func (t *Typer) Type(target uintptr, text string) error {
	if text == "" {
		return nil
	}
	if target != 0 {
		if !win.SetForegroundWindow(win.HWND(target)) {
			t.log.Warn("could not refocus target window, pasting into current focus")
		}
		// give the window manager a moment to move focus
		time.Sleep(50 * time.Millisecond)
	}

	orig, _ := clipboard.ReadAll()
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	time.Sleep(80 * time.Millisecond)

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("init key injection: %w", err)
	}
	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)
	if err := kb.Launching(); err != nil {
		return fmt.Errorf("send paste keystroke: %w", err)
	}
	time.Sleep(120 * time.Millisecond)
	_ = clipboard.WriteAll(orig)
	return nil
}
