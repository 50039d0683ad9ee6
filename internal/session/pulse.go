package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jfreymuth/pulse"
)

const pulseApplicationName = "VoiceCapture"

// Pulse is an AudioSession backed by a PulseAudio (or pipewire-pulse)
// server. Activation holds a client connection open for the lifetime of
// the session and requires an input-capable default source.
type Pulse struct {
	mu       sync.Mutex
	category Category
	client   *pulse.Client
}

var _ AudioSession = (*Pulse)(nil)

// NewPulse creates a Pulse session. No connection is made until activation.
func NewPulse() *Pulse {
	return &Pulse{category: CategorySoloAmbient}
}

func (p *Pulse) Category() (Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.category, nil
}

func (p *Pulse) SetCategory(category Category) error {
	if category == "" {
		return fmt.Errorf("empty session category")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.category = category
	return nil
}

func (p *Pulse) SetActive(active bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !active {
		if p.client != nil {
			p.client.Close()
			p.client = nil
			slog.Debug("PulseAudio session deactivated")
		}
		return nil
	}

	if p.client != nil {
		return nil
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName(pulseApplicationName))
	if err != nil {
		return fmt.Errorf("connecting to PulseAudio: %w", err)
	}

	if p.category == CategoryRecord || p.category == CategoryPlayAndRecord {
		source, err := client.DefaultSource()
		if err != nil {
			client.Close()
			return fmt.Errorf("no input-capable default source: %w", err)
		}
		slog.Debug("PulseAudio session activated", "source", source.ID(), "category", p.category)
	}

	p.client = client
	return nil
}

// InputSource describes a capture source known to the PulseAudio server
type InputSource struct {
	ID   string
	Name string
}

// ListPulseSources lists capture sources on the PulseAudio server
func ListPulseSources() ([]InputSource, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName(pulseApplicationName))
	if err != nil {
		return nil, fmt.Errorf("connecting to PulseAudio: %w", err)
	}
	defer client.Close()

	sources, err := client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("listing PulseAudio sources: %w", err)
	}

	result := make([]InputSource, 0, len(sources))
	for _, s := range sources {
		result = append(result, InputSource{ID: s.ID(), Name: s.Name()})
	}
	return result, nil
}
