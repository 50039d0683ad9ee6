package audio

import (
	"github.com/audiolibrelab/voicecapture/internal/format"
)

// Engine creates captures that write encoded audio to a file
type Engine interface {
	// NewCapture prepares a capture writing to outputPath in the given format.
	// Nothing is recorded until Start is called.
	NewCapture(outputPath string, spec format.Spec) (Capture, error)

	// Available reports whether the engine can record on this host
	Available() error
}

// Capture is one running encoder writing to a single output file
type Capture interface {
	Start() error
	Pause() error
	Resume() error

	// Stop flushes and closes the output file. Calling Stop on a capture
	// that already failed returns the failure but still releases resources.
	Stop() error
}
