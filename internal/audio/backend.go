package audio

import (
	"strings"

	"github.com/audiolibrelab/voicecapture/internal/config"
)

// BackendType represents the type of capture backend
type BackendType string

const (
	BackendTypeFFmpeg BackendType = "ffmpeg"
	BackendTypeAuto   BackendType = "auto"
)

// NewEngine creates a capture engine using the backend selected by configuration
func NewEngine(cfg *config.Config) Engine {
	source := NewPulseSource(cfg.Audio.InputDevice)
	switch determineBackend(cfg) {
	case BackendTypeFFmpeg:
		return NewFFmpegEngine(cfg.Audio, source)
	default:
		// ffmpeg is the only available backend
		return NewFFmpegEngine(cfg.Audio, source)
	}
}

// determineBackend determines which backend to use based on configuration
func determineBackend(cfg *config.Config) BackendType {
	switch strings.ToLower(cfg.Audio.Backend) {
	case "ffmpeg", "auto", "":
		return BackendTypeFFmpeg
	}
	return BackendTypeFFmpeg
}

// GetAvailableBackends returns list of available backends on current system
func GetAvailableBackends() []BackendType {
	return []BackendType{BackendTypeFFmpeg}
}
