package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// ErrBusy is returned when the exclusive session is already held
var ErrBusy = errors.New("audio session is already held")

// AcquisitionError reports which acquisition step failed
type AcquisitionError struct {
	Step string
	Err  error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("cannot acquire audio session (%s): %v", e.Step, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// Guardian is the only component allowed to mutate the audio session. It
// hands out at most one Lease at a time.
type Guardian struct {
	session AudioSession

	mutex sync.Mutex
	held  bool
}

// NewGuardian creates a Guardian over the given session
func NewGuardian(session AudioSession) *Guardian {
	return &Guardian{session: session}
}

// Lease represents exclusive use of the audio session. The configuration
// that was active before acquisition is restored by Release.
type Lease struct {
	guardian *Guardian
	saved    Category
	once     sync.Once
}

// Acquire remembers the current configuration, switches to play-and-record
// and activates the session. On failure nothing is left changed.
func (g *Guardian) Acquire() (*Lease, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.held {
		return nil, &AcquisitionError{Step: "exclusive", Err: ErrBusy}
	}

	saved, err := g.session.Category()
	if err != nil {
		return nil, &AcquisitionError{Step: "read category", Err: err}
	}

	if err := g.session.SetCategory(CategoryPlayAndRecord); err != nil {
		g.rollback(saved, false)
		return nil, &AcquisitionError{Step: "set category", Err: err}
	}

	if err := g.session.SetActive(true); err != nil {
		g.rollback(saved, true)
		return nil, &AcquisitionError{Step: "activate", Err: err}
	}

	g.held = true
	slog.Debug("Audio session acquired", "saved_category", saved)

	return &Lease{guardian: g, saved: saved}, nil
}

// rollback undoes a partial acquisition. Must be called with the mutex held.
func (g *Guardian) rollback(saved Category, deactivate bool) {
	var mErr *multierror.Error
	if deactivate {
		if err := g.session.SetActive(false); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("deactivate: %w", err))
		}
	}
	if err := g.session.SetCategory(saved); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("restore category %s: %w", saved, err))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		slog.Warn("Audio session rollback incomplete", "error", err)
	}
}

// Held reports whether a lease is outstanding
func (g *Guardian) Held() bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.held
}

// Saved returns the configuration that Release will restore
func (l *Lease) Saved() Category {
	return l.saved
}

// Release deactivates the session and restores the saved configuration.
// Failures are logged and never returned; the Guardian is always freed so
// a later Acquire is not blocked. Calling Release more than once is a no-op.
func (l *Lease) Release() {
	l.once.Do(func() {
		g := l.guardian
		g.mutex.Lock()
		defer g.mutex.Unlock()

		var mErr *multierror.Error
		if err := g.session.SetActive(false); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("deactivate: %w", err))
		}
		if err := g.session.SetCategory(l.saved); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("restore category %s: %w", l.saved, err))
		}

		if err := mErr.ErrorOrNil(); err != nil {
			slog.Warn("Audio session release failed", "error", err)
		} else {
			slog.Debug("Audio session released", "restored_category", l.saved)
		}

		l.saved = ""
		g.held = false
	})
}
