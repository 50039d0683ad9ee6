package audio

import (
	"fmt"
	"io"
	"sync"
)

// Source opens raw PCM input: signed 16-bit little-endian, mono
type Source interface {
	Open(sampleRate int, w io.Writer) (SourceStream, error)
}

// SourceStream delivers PCM to the writer passed to Open while started.
// Stop must halt capture at the device, not just delivery.
type SourceStream interface {
	Start() error
	Stop() error
	Close() error
}

// gate forwards PCM to the encoder while open and discards it while closed
type gate struct {
	mutex   sync.Mutex
	w       io.Writer
	open    bool
	dropped int64
}

func newGate(w io.Writer) *gate {
	return &gate{w: w, open: true}
}

func (g *gate) Write(p []byte) (int, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if !g.open {
		g.dropped += int64(len(p))
		return len(p), nil
	}
	return g.w.Write(p)
}

func (g *gate) set(open bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.open = open
}

func (g *gate) droppedBytes() int64 {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.dropped
}

// feed connects a source stream to the encoder input
type feed struct {
	stream SourceStream
	gate   *gate
}

func openFeed(source Source, sampleRate int, sink io.Writer) (*feed, error) {
	g := newGate(sink)
	stream, err := source.Open(sampleRate, g)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio source: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio source: %w", err)
	}
	return &feed{stream: stream, gate: g}, nil
}

// pause halts the device stream and closes the gate, so nothing captured
// while paused reaches the encoder
func (f *feed) pause() error {
	f.gate.set(false)
	if err := f.stream.Stop(); err != nil {
		f.gate.set(true)
		return err
	}
	return nil
}

func (f *feed) resume() error {
	if err := f.stream.Start(); err != nil {
		return err
	}
	f.gate.set(true)
	return nil
}

func (f *feed) close() error {
	f.gate.set(false)
	return f.stream.Close()
}
