package record

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource captures from the default input device.
type PortAudioSource struct{}

type portAudioStream struct {
	stream *portaudio.Stream
	in     []int16
}

// Open initializes PortAudio and opens the default input stream. The library
// is terminated again when the stream is closed.
func (PortAudioSource) Open(format Format, frameSize int) (CaptureStream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	in := make([]int16, frameSize)
	stream, err := portaudio.OpenDefaultStream(format.Channels, 0, float64(format.SampleRate), len(in), in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open default stream: %w", err)
	}
	return &portAudioStream{stream: stream, in: in}, nil
}

func (p *portAudioStream) Start() error { return p.stream.Start() }

func (p *portAudioStream) Read(buf []int16) error {
	if err := p.stream.Read(); err != nil {
		return err
	}
	copy(buf, p.in)
	return nil
}

func (p *portAudioStream) Stop() error { return p.stream.Stop() }

func (p *portAudioStream) Close() error {
	err := p.stream.Close()
	_ = portaudio.Terminate()
	return err
}
