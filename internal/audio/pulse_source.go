package audio

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

const pulseApplicationName = "VoiceCapture"

// PulseSource records from a PulseAudio (or pipewire-pulse) source
type PulseSource struct {
	device string
}

var _ Source = (*PulseSource)(nil)

// NewPulseSource creates a source for the named device. An empty name or
// "default" selects the server's default source.
func NewPulseSource(device string) *PulseSource {
	return &PulseSource{device: device}
}

func (s *PulseSource) Open(sampleRate int, w io.Writer) (SourceStream, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName(pulseApplicationName))
	if err != nil {
		return nil, fmt.Errorf("connecting to PulseAudio: %w", err)
	}

	opts := []pulse.RecordOption{
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordMediaName(pulseApplicationName),
	}
	if s.device != "" && s.device != "default" {
		source, err := client.SourceByID(s.device)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("unknown PulseAudio source %q: %w", s.device, err)
		}
		opts = append(opts, pulse.RecordSource(source))
	}

	stream, err := client.NewRecord(int16Writer{w}, opts...)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("creating record stream: %w", err)
	}

	slog.Debug("PulseAudio record stream opened", "device", s.device, "sample_rate", sampleRate)
	return &pulseStream{client: client, stream: stream}, nil
}

// int16Writer hands raw S16_LE bytes to the wrapped writer
type int16Writer struct {
	io.Writer
}

var _ pulse.Writer = int16Writer{}

func (int16Writer) Format() byte { return proto.FormatInt16LE }

type pulseStream struct {
	client *pulse.Client
	stream *pulse.RecordStream
}

// Start flushes whatever the server buffered and uncorks the stream
func (p *pulseStream) Start() error {
	p.stream.Start()
	return p.stream.Error()
}

// Stop corks the stream at the server
func (p *pulseStream) Stop() error {
	p.stream.Stop()
	return p.stream.Error()
}

func (p *pulseStream) Close() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("closing record stream: %v", r)
		}
	}()
	p.stream.Stop()
	p.stream.Close()
	p.client.Close()
	return nil
}
