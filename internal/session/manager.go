package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alecgard/groupdesk/internal/client"
)

// ErrSessionFetch is returned when the session lookup fails for any reason
// other than "not signed in".
var ErrSessionFetch = errors.New("unable to load your session")

// Backend is the slice of the auth service the manager needs.
type Backend interface {
	GetSession(ctx context.Context) (json.RawMessage, error)
	LoginURL(referrer string) string
	Logout(ctx context.Context, redirect string) (string, error)
}

// MetricsRecorder is an optional interface for counting session lookups.
type MetricsRecorder interface {
	RecordSessionLookup(outcome string)
}

// Manager tracks who the caller is. Create one per browser request (or one
// per CLI process); it is not meant to outlive its caller.
type Manager struct {
	backend Backend
	metrics MetricsRecorder

	mu          sync.Mutex
	user        *User
	loading     bool
	initialized bool
	err         error
}

// NewManager creates a session manager backed by the auth service.
func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend}
}

// SetMetrics configures an optional metrics recorder.
func (m *Manager) SetMetrics(rec MetricsRecorder) {
	m.metrics = rec
}

// Init loads the session once. Later calls are no-ops; use Refresh to
// force a reload.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	done := m.initialized
	err := m.err
	m.mu.Unlock()
	if done {
		return err
	}
	return m.Refresh(ctx)
}

// Refresh re-runs the session lookup. A 404 clears the user without an
// error. Any other failure records ErrSessionFetch and keeps the user that
// was loaded before.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	raw, err := m.backend.GetSession(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	m.initialized = true

	switch {
	case err == nil:
		p, derr := DecodePayload(raw)
		if errors.Is(derr, errEmptyPayload) {
			m.user = nil
			m.err = nil
			m.record("anonymous")
			return nil
		}
		if derr != nil {
			m.err = fmt.Errorf("%w: %w", ErrSessionFetch, derr)
			m.record("error")
			return m.err
		}
		m.user = p.User()
		m.err = nil
		if m.user == nil {
			m.record("anonymous")
		} else {
			m.record("authenticated")
		}
		return nil
	case client.IsNotFound(err):
		m.user = nil
		m.err = nil
		m.record("anonymous")
		return nil
	default:
		m.err = fmt.Errorf("%w: %w", ErrSessionFetch, err)
		m.record("error")
		slog.Warn("session lookup failed", "error", err)
		return m.err
	}
}

func (m *Manager) record(outcome string) {
	if m.metrics != nil {
		m.metrics.RecordSessionLookup(outcome)
	}
}

// User returns the signed-in user, or nil.
func (m *Manager) User() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Loading reports whether a lookup is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the last lookup error, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Authenticated reports whether a user is signed in.
func (m *Manager) Authenticated() bool {
	return m.User() != nil
}

// LoginURL returns the auth service's login page with returnTo as the referrer.
func (m *Manager) LoginURL(returnTo string) string {
	return m.backend.LoginURL(returnTo)
}

// Logout signs the user out and returns where the browser should go next:
// the auth service's redirect if it gave one, otherwise redirectTo. The
// local user is cleared either way.
func (m *Manager) Logout(ctx context.Context, redirectTo string) (string, error) {
	target, err := m.backend.Logout(ctx, redirectTo)

	m.mu.Lock()
	m.user = nil
	m.err = nil
	m.mu.Unlock()

	if target == "" {
		target = redirectTo
	}
	if err != nil {
		return target, fmt.Errorf("logging out: %w", err)
	}
	return target, nil
}
