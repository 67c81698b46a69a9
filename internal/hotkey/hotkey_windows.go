//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
	"go.uber.org/zap"
)

const (
	whKeyboardLL  = 13
	wmKeydown     = 0x0100
	wmKeyup       = 0x0101
	wmSyskeydown  = 0x0104
	wmSyskeyup    = 0x0105
	wmQuit        = 0x0012
	llkhfInjected = 0x10
)

type kbdllHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

// Interceptor installs a WH_KEYBOARD_LL hook on its own locked OS thread and
// turns bound key transitions into Events. Bound keys are swallowed so the
// focused application never sees them; everything else passes through the
// hook chain untouched, and the callback itself never blocks.
type Interceptor struct {
	log    *zap.Logger
	keymap *Keymap
	events chan Event
	debug  bool

	threadID uint32
	hook     uintptr
}

// NewInterceptor wraps a keymap. Events carries a small buffer; if the
// consumer falls behind, transitions are dropped rather than stalling the
// keyboard hook.
func NewInterceptor(keymap *Keymap, log *zap.Logger, debug bool) *Interceptor {
	return &Interceptor{
		log:    log,
		keymap: keymap,
		events: make(chan Event, 32),
		debug:  debug,
	}
}

// Events returns the stream of hotkey transitions.
func (in *Interceptor) Events() <-chan Event { return in.events }

// Start installs the hook and begins pumping messages. It returns once the
// hook is installed or installation failed.
func (in *Interceptor) Start() error {
	errCh := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		user32 := syscall.NewLazyDLL("user32.dll")
		kernel32 := syscall.NewLazyDLL("kernel32.dll")
		procSetWindowsHookExW := user32.NewProc("SetWindowsHookExW")
		procUnhookWindowsHookEx := user32.NewProc("UnhookWindowsHookEx")
		procCallNextHookEx := user32.NewProc("CallNextHookEx")
		procGetMessageW := user32.NewProc("GetMessageW")
		procGetCurrentThreadId := kernel32.NewProc("GetCurrentThreadId")

		tid, _, _ := procGetCurrentThreadId.Call()
		in.threadID = uint32(tid)

		callback := syscall.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
			if int32(nCode) < 0 {
				ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
				return ret
			}

			msg := uint32(wParam)
			k := (*kbdllHookStruct)(unsafe.Pointer(lParam))

			// Synthetic input (our own paste keystrokes included) passes
			// through, or injected text would re-trigger recording.
			if (k.flags & llkhfInjected) != 0 {
				ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
				return ret
			}

			switch msg {
			case wmKeydown, wmSyskeydown:
				if profileID, ok := in.keymap.Press(k.vkCode); ok {
					in.enqueue(Event{
						ProfileID: profileID,
						Kind:      KindPress,
						VK:        k.vkCode,
						Target:    uintptr(win.GetForegroundWindow()),
						Time:      time.Now(),
					})
					return 1
				}
			case wmKeyup, wmSyskeyup:
				if profileID, ok := in.keymap.Release(k.vkCode); ok {
					in.enqueue(Event{
						ProfileID: profileID,
						Kind:      KindRelease,
						VK:        k.vkCode,
						Time:      time.Now(),
					})
					return 1
				}
			}

			ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
			return ret
		})

		hook, _, _ := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), callback, 0, 0)
		if hook == 0 {
			errCh <- fmt.Errorf("SetWindowsHookExW failed")
			return
		}
		in.hook = hook
		in.log.Info("keyboard hook installed")
		errCh <- nil

		var msg struct {
			Hwnd    uintptr
			Message uint32
			WParam  uintptr
			LParam  uintptr
			Time    uint32
			PtX     int32
			PtY     int32
		}
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) == -1 {
				in.log.Warn("GetMessageW error, exiting hook loop")
				break
			}
			if ret == 0 {
				break
			}
		}

		procUnhookWindowsHookEx.Call(hook)
		in.log.Info("keyboard hook uninstalled")
		close(in.events)
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		return fmt.Errorf("timeout installing keyboard hook")
	}
}

// Close posts WM_QUIT to the hook thread, which unhooks and closes Events.
func (in *Interceptor) Close() error {
	if in.threadID == 0 {
		return nil
	}
	user32 := syscall.NewLazyDLL("user32.dll")
	procPostThreadMessageW := user32.NewProc("PostThreadMessageW")
	r, _, _ := procPostThreadMessageW.Call(uintptr(in.threadID), uintptr(wmQuit), 0, 0)
	if r == 0 {
		return fmt.Errorf("PostThreadMessageW failed")
	}
	return nil
}

func (in *Interceptor) enqueue(ev Event) {
	select {
	case in.events <- ev:
		if in.debug {
			in.log.Debug("hotkey event",
				zap.String("profile", ev.ProfileID),
				zap.Stringer("kind", ev.Kind),
				zap.Uint32("vk", ev.VK))
		}
	default:
		in.log.Warn("hotkey event dropped, consumer too slow",
			zap.String("profile", ev.ProfileID),
			zap.Stringer("kind", ev.Kind))
	}
}
