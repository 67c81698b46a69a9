//go:build !windows

package textinput

import (
	"fmt"

	"go.uber.org/zap"
)

// Typer is not supported on non-Windows builds.
type Typer struct{}

func New(log *zap.Logger) *Typer { return &Typer{} }

func (t *Typer) Type(target uintptr, text string) error {
	return fmt.Errorf("text injection not supported on this platform")
}
