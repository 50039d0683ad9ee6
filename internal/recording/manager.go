package recording

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/audiolibrelab/voicecapture/internal/audio"
	"github.com/audiolibrelab/voicecapture/internal/format"
	"github.com/audiolibrelab/voicecapture/internal/packager"
	"github.com/audiolibrelab/voicecapture/internal/session"
	"github.com/audiolibrelab/voicecapture/internal/storage"
)

// State is the state of the recording state machine
type State string

const (
	StateNone      State = "NONE"
	StateRecording State = "RECORDING"
	StatePaused    State = "PAUSED"
)

// Info describes the live session
type Info struct {
	State         State            `json:"state"`
	OutputPath    string           `json:"output_path"`
	Format        format.Spec      `json:"format"`
	StartTime     time.Time        `json:"start_time"`
	SavedCategory session.Category `json:"saved_category"`
}

// recordingSession exists only while the state is RECORDING or PAUSED
type recordingSession struct {
	state      State
	outputPath string
	format     format.Spec
	startTime  time.Time
	lease      *session.Lease
	capture    audio.Capture
}

// Manager owns zero or one recording session. All transitions are
// serialised by a single mutex.
type Manager struct {
	guardian *session.Guardian
	engine   audio.Engine
	storage  storage.Provider
	packager *packager.Packager

	mutex   sync.Mutex
	current *recordingSession
}

// NewManager creates a Manager with no live session
func NewManager(guardian *session.Guardian, engine audio.Engine, store storage.Provider, pkg *packager.Packager) *Manager {
	return &Manager{
		guardian: guardian,
		engine:   engine,
		storage:  store,
		packager: pkg,
	}
}

// Start records with the fixed default format
func (m *Manager) Start() error {
	return m.start(func() (format.Spec, error) {
		return format.Default(), nil
	})
}

// StartWithFormat records with a resolved encoder, sample rate and bit rate
func (m *Manager) StartWithFormat(sampleRate float64, bitRate int, encoderID string) error {
	return m.start(func() (format.Spec, error) {
		return format.Resolve(encoderID, sampleRate, bitRate)
	})
}

func (m *Manager) start(resolve func() (format.Spec, error)) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current != nil {
		return fmt.Errorf("%w, current: %s", ErrAlreadyRecording, m.current.state)
	}

	spec, err := resolve()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	lease, err := m.guardian.Acquire()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisitionFailed, err)
	}

	rec, err := m.begin(spec)
	if err != nil {
		lease.Release()
		return fmt.Errorf("%w: %w", ErrAcquisitionFailed, err)
	}
	rec.lease = lease

	m.current = rec
	slog.Info("Recording started", "format", spec.String(), "output", rec.outputPath)
	return nil
}

// begin picks a fresh output path and starts the capture engine
func (m *Manager) begin(spec format.Spec) (*recordingSession, error) {
	dir, err := m.storage.Dir()
	if err != nil {
		return nil, err
	}

	outputPath := filepath.Join(dir, uuid.NewString()+spec.Extension)

	capture, err := m.engine.NewCapture(outputPath, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare capture: %w", err)
	}

	if err := capture.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}

	return &recordingSession{
		state:      StateRecording,
		outputPath: outputPath,
		format:     spec,
		startTime:  time.Now(),
		capture:    capture,
	}, nil
}

// Pause moves RECORDING to PAUSED and reports whether it did. It fails
// with ErrNotRecording when there is no session.
func (m *Manager) Pause() (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current == nil {
		return false, ErrNotRecording
	}
	if m.current.state != StateRecording {
		return false, nil
	}

	if err := m.current.capture.Pause(); err != nil {
		slog.Warn("Failed to pause capture", "error", err)
		return false, nil
	}

	m.current.state = StatePaused
	slog.Info("Recording paused")
	return true, nil
}

// Resume moves PAUSED to RECORDING and reports whether it did. It fails
// with ErrNotRecording when there is no session.
func (m *Manager) Resume() (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current == nil {
		return false, ErrNotRecording
	}
	if m.current.state != StatePaused {
		return false, nil
	}

	if err := m.current.capture.Resume(); err != nil {
		slog.Warn("Failed to resume capture", "error", err)
		return false, nil
	}

	m.current.state = StateRecording
	slog.Info("Recording resumed")
	return true, nil
}

// Stop ends the session, restores the audio session and packages the
// output. The state is NONE afterwards whatever the outcome.
func (m *Manager) Stop(ctx context.Context) (packager.Artifact, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rec := m.current
	if rec == nil {
		return packager.Artifact{}, ErrNotRecording
	}

	m.teardown(rec)

	if err := packager.Exists(rec.outputPath); err != nil {
		return packager.Artifact{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	artifact := m.packager.Package(ctx, rec.outputPath, rec.format)
	if artifact.Empty() {
		return packager.Artifact{}, fmt.Errorf("%w: %s", ErrEmptyRecording, rec.outputPath)
	}

	slog.Info("Recording stopped",
		"ms_duration", artifact.MsDuration,
		"bytes", len(artifact.Data),
		"mime_type", artifact.MimeType)
	return artifact, nil
}

// Shutdown ends a live session without packaging it and removes its output
func (m *Manager) Shutdown() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rec := m.current
	if rec == nil {
		return
	}

	m.teardown(rec)
	if err := os.Remove(rec.outputPath); err != nil && !os.IsNotExist(err) {
		slog.Debug("Failed to remove abandoned recording", "path", rec.outputPath, "error", err)
	}
	slog.Info("Recording abandoned", "output", rec.outputPath)
}

// teardown stops the capture, releases the session lease and clears the
// current session. Must be called with the mutex held.
func (m *Manager) teardown(rec *recordingSession) {
	defer func() {
		rec.lease.Release()
		m.current = nil
	}()

	if err := rec.capture.Stop(); err != nil {
		slog.Warn("Capture did not stop cleanly", "error", err)
	}
}

// Status returns the current state
func (m *Manager) Status() State {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current == nil {
		return StateNone
	}
	return m.current.state
}

// Info returns a copy of the live session, or false when there is none
func (m *Manager) Info() (Info, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current == nil {
		return Info{State: StateNone}, false
	}

	return Info{
		State:         m.current.state,
		OutputPath:    m.current.outputPath,
		Format:        m.current.format,
		StartTime:     m.current.startTime,
		SavedCategory: m.current.lease.Saved(),
	}, true
}
