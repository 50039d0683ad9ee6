package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempDir_CreatesConfiguredDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	got, err := NewTempDir(dir).Dir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestTempDir_DefaultsUnderSystemTemp(t *testing.T) {
	got, err := NewTempDir("").Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.TempDir(), defaultDirName), got)
}

func TestTempDir_Unwritable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := NewTempDir(filepath.Join(file, "sub")).Dir()
	assert.Error(t, err)
}
