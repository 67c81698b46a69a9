//go:build !windows

package mute

import "fmt"

// WASAPI is only available on Windows.
type WASAPI struct{}

func (WASAPI) Volumes() ([]float32, error) {
	return nil, fmt.Errorf("system audio control not supported on this platform")
}

func (WASAPI) SetVolume(index int, level float32) error {
	return fmt.Errorf("system audio control not supported on this platform")
}
