// Package dispatch is the state machine between hotkey events and the
// recording pipeline: Idle -> Recording -> Processing -> Idle, with one
// global busy flag. Events that do not fit the current state are dropped
// with a log line, never queued.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/aaronpeng2020/spext/internal/hotkey"
	"github.com/aaronpeng2020/spext/internal/pipeline"
	"github.com/aaronpeng2020/spext/internal/profile"
)

// Phase is the dispatcher's position in the recording cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseProcessing
)

func (p Phase) String() string {
	switch p {
	case PhaseRecording:
		return "recording"
	case PhaseProcessing:
		return "processing"
	default:
		return "idle"
	}
}

// Recorder is the capture session.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
}

// Recognizer turns a clip into final text under a profile's settings.
type Recognizer interface {
	Process(ctx context.Context, audio []byte, prof *profile.HotkeyProfile) (string, error)
}

// Typer injects text into the target window.
type Typer interface {
	Type(target uintptr, text string) error
}

// Muter brackets the recording with system-audio silence.
type Muter interface {
	Mute() error
	Restore() error
}

// Notifier surfaces milestones to the user.
type Notifier interface {
	Show(message string)
}

// Profiles resolves profile ids from events to current settings.
type Profiles interface {
	ByID(id string) *profile.HotkeyProfile
}

// Options wires a Dispatcher.
type Options struct {
	Recorder   Recorder
	Recognizer Recognizer
	Typer      Typer
	Muter      Muter
	Notifier   Notifier
	Profiles   Profiles

	MuteWhileRecording bool
	// TypeFailureMarker pastes "[request failed]" into the target window
	// when every retry was exhausted, so the user sees the failure where
	// the text would have landed.
	TypeFailureMarker bool
}

// Dispatcher consumes hotkey events and drives one recording at a time.
type Dispatcher struct {
	log  *zap.Logger
	opts Options

	mu         sync.Mutex
	phase      Phase
	activeID   string
	activeProf *profile.HotkeyProfile
	target     uintptr
}

// New creates a dispatcher.
func New(opts Options, log *zap.Logger) *Dispatcher {
	return &Dispatcher{log: log, opts: opts}
}

// Phase returns the current phase.
func (d *Dispatcher) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Run consumes events until ctx is done or the channel closes.
func (d *Dispatcher) Run(ctx context.Context, events <-chan hotkey.Event) {
	for {
		select {
		case <-ctx.Done():
			d.abort()
			return
		case ev, ok := <-events:
			if !ok {
				d.abort()
				return
			}
			d.Handle(ctx, ev)
		}
	}
}

// Handle processes one event. A panic anywhere downstream is contained here;
// the dispatcher resets to idle rather than taking the keyboard hook down.
func (d *Dispatcher) Handle(ctx context.Context, ev hotkey.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic while handling hotkey event", zap.Any("panic", r))
			d.reset()
		}
	}()

	prof := d.opts.Profiles.ByID(ev.ProfileID)
	if prof == nil || !prof.IsEnabled {
		d.log.Debug("event for unknown or disabled profile", zap.String("profile", ev.ProfileID))
		return
	}

	switch {
	case ev.Kind == hotkey.KindPress && prof.Mode() == profile.ModePushToTalk:
		d.begin(ctx, prof, ev.Target)
	case ev.Kind == hotkey.KindRelease && prof.Mode() == profile.ModePushToTalk:
		d.finishIfActive(ctx, prof.ID)
	case ev.Kind == hotkey.KindPress && prof.Mode() == profile.ModeToggle:
		if d.isActive(prof.ID) {
			d.finishIfActive(ctx, prof.ID)
		} else {
			d.begin(ctx, prof, ev.Target)
		}
	default:
		// toggle releases carry no meaning
	}
}

func (d *Dispatcher) isActive(profileID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase == PhaseRecording && d.activeID == profileID
}

func (d *Dispatcher) begin(ctx context.Context, prof *profile.HotkeyProfile, target uintptr) {
	d.mu.Lock()
	if d.phase != PhaseIdle {
		phase := d.phase
		d.mu.Unlock()
		d.log.Info("busy, dropping hotkey press",
			zap.String("profile", prof.ID),
			zap.Stringer("phase", phase))
		return
	}
	d.phase = PhaseRecording
	d.activeID = prof.ID
	d.activeProf = prof
	d.target = target
	d.mu.Unlock()

	if d.opts.MuteWhileRecording {
		if err := d.opts.Muter.Mute(); err != nil {
			d.log.Warn("could not mute system audio", zap.Error(err))
		}
	}

	if err := d.opts.Recorder.Start(ctx); err != nil {
		d.log.Error("failed to start recording", zap.Error(err))
		d.opts.Notifier.Show("Recording failed to start")
		// the bracket opened above; close it or the system stays silent
		if d.opts.MuteWhileRecording {
			if rerr := d.opts.Muter.Restore(); rerr != nil {
				d.log.Warn("could not restore system audio", zap.Error(rerr))
			}
		}
		d.reset()
		return
	}

	d.log.Info("recording started", zap.String("profile", prof.Name))
	d.opts.Notifier.Show("Recording...")
}

// finishIfActive ends the recording when profileID owns it; a release that
// does not match a running recording is a no-op.
func (d *Dispatcher) finishIfActive(ctx context.Context, profileID string) {
	d.mu.Lock()
	if d.phase != PhaseRecording || d.activeID != profileID {
		d.mu.Unlock()
		return
	}
	d.phase = PhaseProcessing
	prof := d.activeProf
	target := d.target
	d.mu.Unlock()

	audio, err := d.opts.Recorder.Stop()

	if d.opts.MuteWhileRecording {
		if rerr := d.opts.Muter.Restore(); rerr != nil {
			d.log.Warn("could not restore system audio", zap.Error(rerr))
		}
	}

	if err != nil {
		d.log.Error("recording failed", zap.Error(err))
		d.opts.Notifier.Show("Recording failed")
		d.reset()
		return
	}
	d.log.Info("recording stopped", zap.String("profile", prof.Name), zap.Int("bytes", len(audio)))

	// Recognition runs off the event loop; the Processing phase keeps new
	// presses dropped until the text has landed.
	go d.process(ctx, audio, prof, target)
}

func (d *Dispatcher) process(ctx context.Context, audio []byte, prof *profile.HotkeyProfile, target uintptr) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic while processing clip", zap.Any("panic", r))
		}
		d.reset()
	}()

	text, err := d.opts.Recognizer.Process(ctx, audio, prof)
	if err != nil {
		d.log.Error("recognition failed", zap.Error(err))
		var ae *pipeline.AuthError
		if errors.As(err, &ae) {
			d.opts.Notifier.Show("Recognition failed: check the API key")
			return
		}
		d.opts.Notifier.Show("Recognition failed")
		var re *pipeline.RetryExhaustedError
		if d.opts.TypeFailureMarker && errors.As(err, &re) {
			if terr := d.opts.Typer.Type(target, "[request failed]"); terr != nil {
				d.log.Warn("could not type failure marker", zap.Error(terr))
			}
		}
		return
	}
	if text == "" {
		d.log.Warn("recognition produced empty text")
		d.opts.Notifier.Show("Nothing recognized")
		return
	}

	if err := d.opts.Typer.Type(target, text); err != nil {
		d.log.Error("failed to type text", zap.Error(err))
		d.opts.Notifier.Show("Could not paste text")
		return
	}
	d.log.Info("text delivered", zap.String("profile", prof.Name), zap.Int("chars", len(text)))
}

// abort stops a recording in flight during shutdown and restores audio.
func (d *Dispatcher) abort() {
	d.mu.Lock()
	recording := d.phase == PhaseRecording
	d.mu.Unlock()
	if recording {
		_, _ = d.opts.Recorder.Stop()
	}
	if d.opts.MuteWhileRecording {
		_ = d.opts.Muter.Restore()
	}
	d.reset()
}

func (d *Dispatcher) reset() {
	d.mu.Lock()
	d.phase = PhaseIdle
	d.activeID = ""
	d.activeProf = nil
	d.target = 0
	d.mu.Unlock()
}
