package session

import (
	"fmt"
	"sync"
)

// Category is the process-wide audio session configuration
type Category string

const (
	CategoryAmbient       Category = "ambient"
	CategorySoloAmbient   Category = "solo-ambient"
	CategoryPlayback      Category = "playback"
	CategoryRecord        Category = "record"
	CategoryPlayAndRecord Category = "play-and-record"
)

// AudioSession is the device-wide audio configuration the Guardian mutates.
// Implementations are not expected to be safe for concurrent use; the
// Guardian serialises every call.
type AudioSession interface {
	// Category returns the currently active configuration
	Category() (Category, error)

	// SetCategory applies a configuration
	SetCategory(category Category) error

	// SetActive activates or deactivates the session
	SetActive(active bool) error
}

// Memory keeps the session configuration in process memory. It is used on
// hosts without an OS-level session concept.
type Memory struct {
	mu       sync.Mutex
	category Category
	active   bool
}

var _ AudioSession = (*Memory)(nil)

// NewMemory creates a Memory session starting in the given category
func NewMemory(initial Category) *Memory {
	if initial == "" {
		initial = CategorySoloAmbient
	}
	return &Memory{category: initial}
}

func (m *Memory) Category() (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.category, nil
}

func (m *Memory) SetCategory(category Category) error {
	if category == "" {
		return fmt.Errorf("empty session category")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.category = category
	return nil
}

func (m *Memory) SetActive(active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = active
	return nil
}

// Active reports whether the session is currently activated
func (m *Memory) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
