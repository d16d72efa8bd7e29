package session

import (
	"sync"
	"time"

	"github.com/CallMeTrinity/sae501-api-server/game/service"
)

// Manager is the in-memory session registry.
type Manager struct {
	sessions map[string]*service.Session
	mu       sync.RWMutex
}

var _ service.SessionRegistry = (*Manager)(nil)

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
	}
}

// GetOrCreate returns the session entry for id, creating an empty one on
// first reference. It never fails.
func (m *Manager) GetOrCreate(id string) *service.Session {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		return sess
	}
	sess = service.NewSession(id)
	m.sessions[id] = sess
	return sess
}

// Get returns the session entry for id without creating it.
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, service.ErrSessionNotFound
	}
	return sess, nil
}

// List returns all live session entries.
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Touch updates the last-accessed time for a session, if it exists.
func (m *Manager) Touch(id string) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		sess.Touch()
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpiredSessions removes sessions that have not been accessed in the
// given duration and reports how many were removed.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, sess := range m.sessions {
		if sess.LastAccessedAt().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
