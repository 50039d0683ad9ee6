package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/audiolibrelab/voicecapture/internal/audio"
	"github.com/audiolibrelab/voicecapture/internal/config"
	"github.com/audiolibrelab/voicecapture/internal/packager"
	"github.com/audiolibrelab/voicecapture/internal/recording"
	"github.com/audiolibrelab/voicecapture/internal/session"
	"github.com/audiolibrelab/voicecapture/internal/storage"
)

// Service is the boundary the CLI and the HTTP server call into
type Service interface {
	// Recording operations
	Start() error
	StartWithFormat(params FormatParams) error
	Stop(ctx context.Context) (packager.Artifact, error)
	Pause() (bool, error)
	Resume() (bool, error)
	GetCurrentStatus() recording.State
	GetSessionInfo() (recording.Info, bool)

	// Device operations
	CanDeviceRecord() bool
	HasPermission() bool

	// Information operations
	GetConfig() *config.Config
	GetLastError() string

	// Shutdown abandons a live session and restores the audio session
	Shutdown()
}

// ResultCode is the failure code reported to callers
type ResultCode string

const (
	CodeMissingPermission      ResultCode = "MISSING_PERMISSION"
	CodeAlreadyRecording       ResultCode = "ALREADY_RECORDING"
	CodeCannotRecord           ResultCode = "CANNOT_RECORD"
	CodeUnsupportedFormat      ResultCode = "UNSUPPORTED_FORMAT"
	CodeRecordingNotStarted    ResultCode = "RECORDING_HAS_NOT_STARTED"
	CodeEmptyRecording         ResultCode = "EMPTY_RECORDING"
	CodeFailedToFetchRecording ResultCode = "FAILED_TO_FETCH_RECORDING"
	CodeMicrophoneBeingUsed    ResultCode = "MICROPHONE_BEING_USED"
)

// ErrPermissionDenied is returned when microphone access has not been granted
var ErrPermissionDenied = errors.New("microphone permission not granted")

// CallError carries the result code of a failed call
type CallError struct {
	Code ResultCode
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// CodeOf returns the result code carried by err, or CANNOT_RECORD
func CodeOf(err error) ResultCode {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Code
	}
	return CodeCannotRecord
}

// PermissionProvider reports whether microphone access is granted
type PermissionProvider interface {
	Granted() bool
}

// StaticPermission is a permission fixed by configuration
type StaticPermission bool

func (p StaticPermission) Granted() bool {
	return bool(p)
}

// FormatParams are the optional parameters of a parameterised start. Zero
// values are filled from the configured defaults.
type FormatParams struct {
	Encoder    string
	SampleRate float64
	BitRate    int
}

// VoiceCaptureService is the main service implementation
type VoiceCaptureService struct {
	cfg        *config.Config
	manager    *recording.Manager
	engine     audio.Engine
	permission PermissionProvider

	// Error tracking
	lastError      string
	lastErrorMutex sync.RWMutex
}

// New creates a service wired from configuration
func New(cfg *config.Config) Service {
	engine := audio.NewEngine(cfg)
	manager := recording.NewManager(
		session.NewGuardian(newAudioSession(cfg.Audio.Session)),
		engine,
		storage.NewTempDir(cfg.Output.Directory),
		packager.New(packager.NewFFProbe(cfg.Audio.FFprobePath), cfg.Output.KeepFiles),
	)
	return NewWithManager(cfg, manager, engine, StaticPermission(cfg.Permission.MicrophoneGranted))
}

// NewWithManager creates a service over an existing manager
func NewWithManager(cfg *config.Config, manager *recording.Manager, engine audio.Engine, permission PermissionProvider) *VoiceCaptureService {
	return &VoiceCaptureService{
		cfg:        cfg,
		manager:    manager,
		engine:     engine,
		permission: permission,
	}
}

func newAudioSession(kind string) session.AudioSession {
	switch strings.ToLower(kind) {
	case "memory":
		return session.NewMemory("")
	default:
		return session.NewPulse()
	}
}

// Start records with the default format
func (s *VoiceCaptureService) Start() error {
	slog.Debug("Service.Start called")
	if !s.permission.Granted() {
		return s.fail(&CallError{Code: CodeMissingPermission, Err: ErrPermissionDenied})
	}
	if err := s.manager.Start(); err != nil {
		return s.fail(toCallError(err))
	}
	s.clearLastError()
	return nil
}

// StartWithFormat records with the requested format, filling missing
// parameters from the configured defaults
func (s *VoiceCaptureService) StartWithFormat(params FormatParams) error {
	params = s.withDefaults(params)
	slog.Debug("Service.StartWithFormat called",
		"encoder", params.Encoder,
		"sample_rate", params.SampleRate,
		"bit_rate", params.BitRate)

	if !s.permission.Granted() {
		return s.fail(&CallError{Code: CodeMissingPermission, Err: ErrPermissionDenied})
	}
	if err := s.manager.StartWithFormat(params.SampleRate, params.BitRate, params.Encoder); err != nil {
		return s.fail(toCallError(err))
	}
	s.clearLastError()
	return nil
}

func (s *VoiceCaptureService) withDefaults(params FormatParams) FormatParams {
	if params.Encoder == "" {
		params.Encoder = s.cfg.Defaults.Encoder
	}
	if params.SampleRate == 0 {
		params.SampleRate = s.cfg.Defaults.SampleRate
	}
	if params.BitRate == 0 {
		params.BitRate = s.cfg.Defaults.BitRate
	}
	return params
}

// Stop ends the session and returns its artifact
func (s *VoiceCaptureService) Stop(ctx context.Context) (packager.Artifact, error) {
	artifact, err := s.manager.Stop(ctx)
	if err != nil {
		return packager.Artifact{}, s.fail(toCallError(err))
	}
	s.clearLastError()
	return artifact, nil
}

// Pause fails when no session exists and otherwise reports whether the
// session moved to PAUSED
func (s *VoiceCaptureService) Pause() (bool, error) {
	paused, err := s.manager.Pause()
	if err != nil {
		return false, s.fail(toCallError(err))
	}
	return paused, nil
}

// Resume fails when no session exists and otherwise reports whether the
// session moved back to RECORDING
func (s *VoiceCaptureService) Resume() (bool, error) {
	resumed, err := s.manager.Resume()
	if err != nil {
		return false, s.fail(toCallError(err))
	}
	return resumed, nil
}

func (s *VoiceCaptureService) GetCurrentStatus() recording.State {
	return s.manager.Status()
}

func (s *VoiceCaptureService) GetSessionInfo() (recording.Info, bool) {
	return s.manager.Info()
}

// CanDeviceRecord reports whether the capture engine is usable on this host
func (s *VoiceCaptureService) CanDeviceRecord() bool {
	if err := s.engine.Available(); err != nil {
		slog.Debug("Device cannot record", "error", err)
		return false
	}
	return true
}

// HasPermission reports whether microphone access is granted
func (s *VoiceCaptureService) HasPermission() bool {
	return s.permission.Granted()
}

func (s *VoiceCaptureService) GetConfig() *config.Config {
	return s.cfg
}

func (s *VoiceCaptureService) Shutdown() {
	s.manager.Shutdown()
}

// toCallError maps recording failures onto result codes
func toCallError(err error) *CallError {
	code := CodeCannotRecord
	switch {
	case errors.Is(err, recording.ErrAlreadyRecording):
		code = CodeAlreadyRecording
	case errors.Is(err, session.ErrBusy):
		code = CodeMicrophoneBeingUsed
	case errors.Is(err, recording.ErrUnsupportedFormat):
		code = CodeUnsupportedFormat
	case errors.Is(err, recording.ErrNotRecording):
		code = CodeRecordingNotStarted
	case errors.Is(err, recording.ErrFetchFailed):
		code = CodeFailedToFetchRecording
	case errors.Is(err, recording.ErrEmptyRecording):
		code = CodeEmptyRecording
	}
	return &CallError{Code: code, Err: err}
}

// fail records err as the last error and returns it
func (s *VoiceCaptureService) fail(err *CallError) error {
	s.setLastError(err.Error())
	return err
}

// GetLastError returns the last error message (thread-safe)
func (s *VoiceCaptureService) GetLastError() string {
	s.lastErrorMutex.RLock()
	defer s.lastErrorMutex.RUnlock()
	return s.lastError
}

// setLastError sets the last error message (thread-safe)
func (s *VoiceCaptureService) setLastError(err string) {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = err

	slog.Error("Service error occurred", "error_message", err)
}

// clearLastError clears the last error message (thread-safe)
func (s *VoiceCaptureService) clearLastError() {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = ""
}
