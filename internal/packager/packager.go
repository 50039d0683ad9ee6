package packager

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	"github.com/audiolibrelab/voicecapture/internal/format"
)

// UnknownDuration marks an artifact whose duration could not be read
const UnknownDuration int64 = -1

// Artifact is the complete output of one recording session
type Artifact struct {
	Data       []byte `json:"-"`
	Content    string `json:"content"`
	MimeType   string `json:"mimeType"`
	MsDuration int64  `json:"msDuration"`

	encoded bool
}

// Empty reports whether the artifact must be treated as an empty recording
func (a Artifact) Empty() bool {
	return !a.encoded || a.MsDuration < 0
}

// Packager turns a finished output file into an Artifact
type Packager struct {
	prober    Prober
	keepFiles bool
}

// New creates a Packager. Output files are deleted after packaging unless
// keepFiles is set.
func New(prober Prober, keepFiles bool) *Packager {
	return &Packager{prober: prober, keepFiles: keepFiles}
}

// Package reads path, measures its duration and encodes its bytes. An
// unreadable file yields an artifact without content and with an unknown
// duration; the caller decides whether that is an error.
func (p *Packager) Package(ctx context.Context, path string, spec format.Spec) Artifact {
	artifact := Artifact{
		MimeType:   spec.MimeType(),
		MsDuration: UnknownDuration,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read recording", "path", path, "error", err)
		return artifact
	}

	artifact.Data = data
	artifact.Content = base64.StdEncoding.EncodeToString(data)
	artifact.encoded = true

	if len(data) > 0 {
		if duration, err := p.prober.Duration(ctx, path); err != nil {
			slog.Warn("Failed to read recording duration", "path", path, "error", err)
		} else {
			artifact.MsDuration = duration.Milliseconds()
		}
	}

	if !p.keepFiles {
		if err := os.Remove(path); err != nil {
			slog.Debug("Failed to remove recording file", "path", path, "error", err)
		}
	}

	slog.Debug("Recording packaged",
		"path", path,
		"bytes", len(data),
		"ms_duration", artifact.MsDuration,
		"mime_type", artifact.MimeType)

	return artifact
}

// Exists reports whether a capture produced any output file at all
func Exists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("recording file %s: %w", path, err)
	}
	return nil
}
