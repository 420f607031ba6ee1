package session

import (
	"sync"

	"github.com/facetlabs/facet/internal/infrastructure/monitoring"
	"github.com/facetlabs/facet/internal/shared/id"
)

// Manager tracks live sessions for the diagnostics and lock-file HTTP
// surfaces. Sessions register on connect and deregister on disconnect.
type Manager struct {
	sessions sync.Map
	metrics  *monitoring.Metrics
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{}
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Add registers a session.
func (m *Manager) Add(s *Session) {
	m.sessions.Store(s.ID, s)
	if m.metrics != nil {
		m.metrics.SessionOpened()
	}
}

// Remove deregisters a session.
func (m *Manager) Remove(sessionID id.SessionID) {
	if _, loaded := m.sessions.LoadAndDelete(sessionID); loaded && m.metrics != nil {
		m.metrics.SessionClosed()
	}
}

// Get retrieves a live session by ID.
func (m *Manager) Get(sessionID id.SessionID) (*Session, bool) {
	val, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return val.(*Session), true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	var n int
	m.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
