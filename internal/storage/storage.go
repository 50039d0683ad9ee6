package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultDirName = "voicecapture"

// Provider returns a writable directory for session output files
type Provider interface {
	Dir() (string, error)
}

// TempDir provides a directory under the configured location, or under the
// system temp directory when none is configured
type TempDir struct {
	directory string
}

var _ Provider = (*TempDir)(nil)

// NewTempDir creates a provider for directory. An empty directory selects
// <os temp>/voicecapture.
func NewTempDir(directory string) *TempDir {
	return &TempDir{directory: directory}
}

// Dir creates the directory if needed and returns its path
func (t *TempDir) Dir() (string, error) {
	dir := t.directory
	if dir == "" {
		dir = filepath.Join(os.TempDir(), defaultDirName)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	return dir, nil
}
