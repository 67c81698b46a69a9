// Package record captures microphone audio into an in-memory WAV clip.
// Capture devices sit behind the CaptureSource interface so the session
// logic is testable without audio hardware.
package record

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"
)

// State represents session state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
)

// Format describes the capture parameters.
type Format struct {
	SampleRate int
	BitDepth   int
	Channels   int
}

// CaptureStream is an open capture device delivering int16 frames.
type CaptureStream interface {
	Start() error
	// Read fills buf with the next frame of samples.
	Read(buf []int16) error
	Stop() error
	Close() error
}

// CaptureSource opens capture streams.
type CaptureSource interface {
	Open(format Format, frameSize int) (CaptureStream, error)
}

const frameSize = 1024

type result struct {
	data []byte
	err  error
}

// Session records one clip at a time. Start begins capture on a background
// goroutine; Stop ends it and returns the encoded WAV bytes. A Session is
// reusable after it returns to idle.
type Session struct {
	log    *zap.Logger
	source CaptureSource
	format Format
	debug  bool

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan result

	levels chan float64
}

// NewSession creates a session over the given source.
func NewSession(source CaptureSource, format Format, log *zap.Logger, debug bool) *Session {
	return &Session{
		log:    log,
		source: source,
		format: format,
		debug:  debug,
		state:  StateIdle,
		levels: make(chan float64, 8),
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Levels delivers an RMS level per captured frame, for UI feedback. Sends are
// non-blocking; an unread consumer just misses samples.
func (s *Session) Levels() <-chan float64 { return s.levels }

// Start begins capturing. It fails when a recording is already in progress.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("recording already in progress")
	}
	s.state = StateRecording
	s.done = make(chan result, 1)
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	stream, err := s.source.Open(s.format, frameSize)
	if err != nil {
		s.finishState()
		return fmt.Errorf("open capture stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		s.finishState()
		return fmt.Errorf("start capture stream: %w", err)
	}

	go s.captureLoop(loopCtx, stream)
	return nil
}

// Stop ends the recording and returns the WAV clip. Stop is idempotent:
// when no recording is running it returns (nil, nil), so a stray release or
// a double shutdown costs nothing.
func (s *Session) Stop() ([]byte, error) {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return nil, nil
	}
	s.state = StateStopping
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	res := <-done
	s.finishState()
	return res.data, res.err
}

// Cancel ends the recording and discards the clip.
func (s *Session) Cancel() error {
	_, err := s.Stop()
	return err
}

func (s *Session) finishState() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

func (s *Session) captureLoop(ctx context.Context, stream CaptureStream) {
	mem := &memWriter{}
	enc := wav.NewEncoder(mem, s.format.SampleRate, s.format.BitDepth, s.format.Channels, 1)
	format := &audio.Format{NumChannels: s.format.Channels, SampleRate: s.format.SampleRate}

	in := make([]int16, frameSize)
	intBuf := make([]int, frameSize)
	frames := 0

	fail := func(err error) {
		_ = stream.Stop()
		_ = stream.Close()
		s.done <- result{err: err}
	}

	for {
		select {
		case <-ctx.Done():
			_ = stream.Stop()
			_ = stream.Close()
			if err := enc.Close(); err != nil {
				s.done <- result{err: fmt.Errorf("finalize wav: %w", err)}
				return
			}
			if s.debug {
				s.log.Debug("capture finished",
					zap.Int("frames", frames),
					zap.Int("bytes", len(mem.Bytes())))
			}
			s.done <- result{data: mem.Bytes()}
			return
		default:
		}

		if err := stream.Read(in); err != nil {
			fail(fmt.Errorf("capture read: %w", err))
			return
		}
		s.emitLevel(in)
		for i, v := range in {
			intBuf[i] = int(v)
		}
		buf := &audio.IntBuffer{Format: format, Data: intBuf, SourceBitDepth: s.format.BitDepth}
		if err := enc.Write(buf); err != nil {
			fail(fmt.Errorf("wav write: %w", err))
			return
		}
		frames++
	}
}

func (s *Session) emitLevel(samples []int16) {
	var sum float64
	for _, v := range samples {
		f := float64(v) / math.MaxInt16
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	select {
	case s.levels <- rms:
	default:
	}
}

// memWriter is an in-memory io.WriteSeeker. The WAV encoder seeks back to
// patch chunk sizes on Close, so a plain bytes.Buffer is not enough.
type memWriter struct {
	buf []byte
	pos int
}

func (w *memWriter) Write(p []byte) (int, error) {
	if need := w.pos + len(p); need > len(w.buf) {
		grown := make([]byte, need)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return len(p), nil
}

func (w *memWriter) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.pos) + offset
	case io.SeekEnd:
		abs = int64(len(w.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative seek position: %d", abs)
	}
	w.pos = int(abs)
	return abs, nil
}

// Bytes returns the encoded clip.
func (w *memWriter) Bytes() []byte { return w.buf }
