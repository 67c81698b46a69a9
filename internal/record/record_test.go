package record

import (
	"bytes"
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource emits a constant sample value with a small delay per frame.
type fakeSource struct {
	sample  int16
	opened  atomic.Int32
	closed  atomic.Int32
	openErr error
}

type fakeStream struct {
	src    *fakeSource
	sample int16
}

func (f *fakeSource) Open(format Format, frameSize int) (CaptureStream, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened.Add(1)
	return &fakeStream{src: f, sample: f.sample}, nil
}

func (f *fakeStream) Start() error { return nil }

func (f *fakeStream) Read(buf []int16) error {
	time.Sleep(time.Millisecond)
	for i := range buf {
		buf[i] = f.sample
	}
	return nil
}

func (f *fakeStream) Stop() error { return nil }

func (f *fakeStream) Close() error {
	f.src.closed.Add(1)
	return nil
}

func testFormat() Format {
	return Format{SampleRate: 16000, BitDepth: 16, Channels: 1}
}

func TestSessionProducesDecodableWav(t *testing.T) {
	src := &fakeSource{sample: 1000}
	s := NewSession(src, testFormat(), zap.NewNop(), false)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateRecording, s.State())
	time.Sleep(50 * time.Millisecond)

	data, err := s.Stop()
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, StateIdle, s.State())

	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	require.True(t, dec.IsValidFile())
	assert.Equal(t, uint32(16000), dec.SampleRate)
	assert.Equal(t, uint16(16), dec.BitDepth)
	assert.Equal(t, uint16(1), dec.NumChans)

	pcm, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	require.NotEmpty(t, pcm.Data)
	assert.Equal(t, 1000, pcm.Data[0])

	assert.Equal(t, int32(1), src.closed.Load(), "stream must be closed")
}

func TestSessionRejectsConcurrentStart(t *testing.T) {
	s := NewSession(&fakeSource{}, testFormat(), zap.NewNop(), false)
	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))
	_, err := s.Stop()
	require.NoError(t, err)
}

func TestSessionStopIsIdempotent(t *testing.T) {
	s := NewSession(&fakeSource{sample: 7}, testFormat(), zap.NewNop(), false)

	// stopping before any start is a harmless no-op
	data, err := s.Stop()
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(10 * time.Millisecond)
	data, err = s.Stop()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// and so is a second stop after the clip was taken
	data, err = s.Stop()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSessionReusableAfterStop(t *testing.T) {
	s := NewSession(&fakeSource{sample: 7}, testFormat(), zap.NewNop(), false)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Start(context.Background()))
		time.Sleep(10 * time.Millisecond)
		data, err := s.Stop()
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestSessionOpenFailureReturnsToIdle(t *testing.T) {
	src := &fakeSource{openErr: io.ErrUnexpectedEOF}
	s := NewSession(src, testFormat(), zap.NewNop(), false)

	assert.Error(t, s.Start(context.Background()))
	assert.Equal(t, StateIdle, s.State())
}

func TestSessionEmitsLevels(t *testing.T) {
	s := NewSession(&fakeSource{sample: 16000}, testFormat(), zap.NewNop(), false)
	require.NoError(t, s.Start(context.Background()))

	select {
	case lvl := <-s.Levels():
		assert.InDelta(t, float64(16000)/32767, lvl, 0.01)
	case <-time.After(time.Second):
		t.Fatal("expected a level sample")
	}

	_, err := s.Stop()
	require.NoError(t, err)
}

func TestMemWriterSeekAndPatch(t *testing.T) {
	w := &memWriter{}
	_, err := w.Write([]byte("0123456789"))
	require.NoError(t, err)

	pos, err := w.Seek(2, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	_, err = w.Write([]byte("AB"))
	require.NoError(t, err)
	assert.Equal(t, []byte("01AB456789"), w.Bytes())

	_, err = w.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}
