package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aaronpeng2020/spext/internal/hotkey"
	"github.com/aaronpeng2020/spext/internal/pipeline"
	"github.com/aaronpeng2020/spext/internal/profile"
)

type fakeRecorder struct {
	mu       sync.Mutex
	started  int
	stopped  int
	startErr error
	stopErr  error
}

func (f *fakeRecorder) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	return nil
}

func (f *fakeRecorder) Stop() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return []byte("clip"), f.stopErr
}

type fakeRecognizer struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
	panic bool
}

func (f *fakeRecognizer) Process(ctx context.Context, audio []byte, prof *profile.HotkeyProfile) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	return f.text, f.err
}

type fakeTyper struct {
	mu     sync.Mutex
	typed  []string
	target uintptr
}

func (f *fakeTyper) Type(target uintptr, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed = append(f.typed, text)
	f.target = target
	return nil
}

func (f *fakeTyper) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.typed...)
}

type fakeMuter struct {
	mu       sync.Mutex
	muted    int
	restored int
}

func (f *fakeMuter) Mute() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted++
	return nil
}

func (f *fakeMuter) Restore() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored++
	return nil
}

type fakeNotifier struct{}

func (fakeNotifier) Show(string) {}

type fakeProfiles map[string]*profile.HotkeyProfile

func (f fakeProfiles) ByID(id string) *profile.HotkeyProfile { return f[id] }

func ptt(id string) *profile.HotkeyProfile {
	p := profile.NewProfile()
	p.ID = id
	p.Name = id
	p.Hotkey = "F2"
	p.InputLanguage = "auto"
	p.OutputLanguage = "none"
	return p
}

func toggle(id string) *profile.HotkeyProfile {
	p := ptt(id)
	p.RecordingMode = profile.ModeToggle
	return p
}

type fixture struct {
	d    *Dispatcher
	rec  *fakeRecorder
	pipe *fakeRecognizer
	ty   *fakeTyper
	mut  *fakeMuter
}

func newFixture(profiles fakeProfiles) *fixture {
	f := &fixture{
		rec:  &fakeRecorder{},
		pipe: &fakeRecognizer{text: "hello"},
		ty:   &fakeTyper{},
		mut:  &fakeMuter{},
	}
	f.d = New(Options{
		Recorder:           f.rec,
		Recognizer:         f.pipe,
		Typer:              f.ty,
		Muter:              f.mut,
		Notifier:           fakeNotifier{},
		Profiles:           profiles,
		MuteWhileRecording: true,
		TypeFailureMarker:  true,
	}, zap.NewNop())
	return f
}

func waitIdle(t *testing.T, d *Dispatcher) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d.Phase() == PhaseIdle {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("dispatcher did not return to idle")
}

func press(id string, target uintptr) hotkey.Event {
	return hotkey.Event{ProfileID: id, Kind: hotkey.KindPress, Target: target, Time: time.Now()}
}

func release(id string) hotkey.Event {
	return hotkey.Event{ProfileID: id, Kind: hotkey.KindRelease, Time: time.Now()}
}

func TestPushToTalkCycle(t *testing.T) {
	f := newFixture(fakeProfiles{"a": ptt("a")})
	ctx := context.Background()

	f.d.Handle(ctx, press("a", 42))
	assert.Equal(t, PhaseRecording, f.d.Phase())
	assert.Equal(t, 1, f.mut.muted)

	f.d.Handle(ctx, release("a"))
	waitIdle(t, f.d)

	assert.Equal(t, 1, f.rec.started)
	assert.Equal(t, 1, f.rec.stopped)
	assert.Equal(t, 1, f.mut.restored)
	assert.Equal(t, []string{"hello"}, f.ty.all())
	assert.Equal(t, uintptr(42), f.ty.target, "text lands in the window captured at press time")
}

func TestReleaseWithoutPressIsNoop(t *testing.T) {
	f := newFixture(fakeProfiles{"a": ptt("a")})

	f.d.Handle(context.Background(), release("a"))
	assert.Equal(t, PhaseIdle, f.d.Phase())
	assert.Equal(t, 0, f.rec.stopped)
	assert.Empty(t, f.ty.all())
}

func TestBusyPressIsDropped(t *testing.T) {
	f := newFixture(fakeProfiles{"a": ptt("a"), "b": ptt("b")})
	ctx := context.Background()

	f.d.Handle(ctx, press("a", 0))
	f.d.Handle(ctx, press("b", 0))
	assert.Equal(t, 1, f.rec.started, "second press while busy must be dropped")

	// the dropped profile's release does not stop a's recording
	f.d.Handle(ctx, release("b"))
	assert.Equal(t, PhaseRecording, f.d.Phase())

	f.d.Handle(ctx, release("a"))
	waitIdle(t, f.d)
	assert.Equal(t, []string{"hello"}, f.ty.all())
}

func TestToggleMode(t *testing.T) {
	f := newFixture(fakeProfiles{"a": toggle("a")})
	ctx := context.Background()

	// four presses, two full sessions
	for i := 0; i < 2; i++ {
		f.d.Handle(ctx, press("a", 0))
		assert.Equal(t, PhaseRecording, f.d.Phase())
		f.d.Handle(ctx, release("a")) // releases are meaningless in toggle mode
		assert.Equal(t, PhaseRecording, f.d.Phase())
		f.d.Handle(ctx, press("a", 0))
		waitIdle(t, f.d)
	}
	assert.Equal(t, 2, f.rec.started)
	assert.Equal(t, 2, f.rec.stopped)
	assert.Len(t, f.ty.all(), 2)
}

func TestDisabledProfileIgnored(t *testing.T) {
	p := ptt("a")
	p.IsEnabled = false
	f := newFixture(fakeProfiles{"a": p})

	f.d.Handle(context.Background(), press("a", 0))
	assert.Equal(t, PhaseIdle, f.d.Phase())
	assert.Equal(t, 0, f.rec.started)
}

func TestRetryExhaustedTypesFailureMarker(t *testing.T) {
	f := newFixture(fakeProfiles{"a": ptt("a")})
	f.pipe.err = &pipeline.RetryExhaustedError{Attempts: 4, MaxRetry: 3, LastErr: errors.New("http 500")}
	ctx := context.Background()

	f.d.Handle(ctx, press("a", 7))
	f.d.Handle(ctx, release("a"))
	waitIdle(t, f.d)

	assert.Equal(t, []string{"[request failed]"}, f.ty.all())
	assert.Equal(t, uintptr(7), f.ty.target)
}

func TestAuthErrorTypesNothing(t *testing.T) {
	f := newFixture(fakeProfiles{"a": ptt("a")})
	f.pipe.err = &pipeline.AuthError{Endpoint: "https://example.test"}
	ctx := context.Background()

	f.d.Handle(ctx, press("a", 0))
	f.d.Handle(ctx, release("a"))
	waitIdle(t, f.d)
	assert.Empty(t, f.ty.all())
}

func TestStartFailureRestoresAudio(t *testing.T) {
	f := newFixture(fakeProfiles{"a": ptt("a")})
	f.rec.startErr = errors.New("no capture device")

	f.d.Handle(context.Background(), press("a", 0))

	assert.Equal(t, PhaseIdle, f.d.Phase())
	assert.Equal(t, 1, f.mut.muted)
	assert.Equal(t, 1, f.mut.restored, "mute bracket must close when the recorder never starts")
}

func TestStopErrorStillRestoresAudio(t *testing.T) {
	f := newFixture(fakeProfiles{"a": ptt("a")})
	f.rec.stopErr = errors.New("device lost")
	ctx := context.Background()

	f.d.Handle(ctx, press("a", 0))
	f.d.Handle(ctx, release("a"))
	waitIdle(t, f.d)

	assert.Equal(t, 1, f.mut.restored)
	assert.Empty(t, f.ty.all())
	assert.Equal(t, 0, f.pipe.calls)
}

func TestRecognizerPanicRecovered(t *testing.T) {
	f := newFixture(fakeProfiles{"a": ptt("a")})
	f.pipe.panic = true
	ctx := context.Background()

	f.d.Handle(ctx, press("a", 0))
	f.d.Handle(ctx, release("a"))
	waitIdle(t, f.d)

	// dispatcher is usable again
	f.pipe.panic = false
	f.d.Handle(ctx, press("a", 0))
	assert.Equal(t, PhaseRecording, f.d.Phase())
	f.d.Handle(ctx, release("a"))
	waitIdle(t, f.d)
	assert.Equal(t, []string{"hello"}, f.ty.all())
}

func TestRunDrainsUntilContextDone(t *testing.T) {
	f := newFixture(fakeProfiles{"a": ptt("a")})
	events := make(chan hotkey.Event, 4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.d.Run(ctx, events)
		close(done)
	}()

	events <- press("a", 0)
	events <- release("a")
	require.Eventually(t, func() bool {
		return len(f.ty.all()) == 1
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit on cancel")
	}
}
