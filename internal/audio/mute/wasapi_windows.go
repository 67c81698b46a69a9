//go:build windows

package mute

import (
	"fmt"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
)

// WASAPI reads and writes the master volume of every active render endpoint
// through Core Audio. Each call re-enumerates the devices, so indexes stay
// aligned between a Volumes snapshot and the SetVolume calls that follow it
// within one mute/restore bracket.
type WASAPI struct{}

// Volumes returns the master volume scalar of each active render endpoint.
func (WASAPI) Volumes() ([]float32, error) {
	var out []float32
	err := withEndpoints(func(index int, aev *wca.IAudioEndpointVolume) error {
		var level float32
		if err := aev.GetMasterVolumeLevelScalar(&level); err != nil {
			return fmt.Errorf("get volume of endpoint %d: %w", index, err)
		}
		out = append(out, level)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetVolume sets the master volume scalar of the endpoint at index.
func (WASAPI) SetVolume(index int, level float32) error {
	found := false
	err := withEndpoints(func(i int, aev *wca.IAudioEndpointVolume) error {
		if i != index {
			return nil
		}
		found = true
		if err := aev.SetMasterVolumeLevelScalar(level, nil); err != nil {
			return fmt.Errorf("set volume of endpoint %d: %w", index, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("endpoint %d not found", index)
	}
	return nil
}

func withEndpoints(fn func(index int, aev *wca.IAudioEndpointVolume) error) error {
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		return fmt.Errorf("CoInitializeEx: %w", err)
	}
	defer ole.CoUninitialize()

	var mmde *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &mmde); err != nil {
		return fmt.Errorf("create device enumerator: %w", err)
	}
	defer mmde.Release()

	var dc *wca.IMMDeviceCollection
	if err := mmde.EnumAudioEndpoints(wca.ERender, wca.DEVICE_STATE_ACTIVE, &dc); err != nil {
		return fmt.Errorf("enumerate render endpoints: %w", err)
	}
	defer dc.Release()

	var count uint32
	if err := dc.GetCount(&count); err != nil {
		return fmt.Errorf("count endpoints: %w", err)
	}

	for i := uint32(0); i < count; i++ {
		var device *wca.IMMDevice
		if err := dc.Item(i, &device); err != nil {
			return fmt.Errorf("open endpoint %d: %w", i, err)
		}
		var aev *wca.IAudioEndpointVolume
		if err := device.Activate(wca.IID_IAudioEndpointVolume, wca.CLSCTX_ALL, nil, &aev); err != nil {
			device.Release()
			return fmt.Errorf("activate endpoint volume %d: %w", i, err)
		}
		err := fn(int(i), aev)
		aev.Release()
		device.Release()
		if err != nil {
			return err
		}
	}
	return nil
}
