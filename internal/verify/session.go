package verify

import (
	"sync"

	"github.com/google/uuid"
)

// Manager tracks live conversation sessions by ID. Sessions are isolated
// from each other; the case store is the only state they share.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create starts an empty session and returns its ID.
func (m *Manager) Create() (string, *Session) {
	id := uuid.NewString()
	s := &Session{}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	return id, s
}

// Get returns the session for an ID, if it is still live.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// End discards a session. Anything not yet resolved is simply dropped;
// nothing has been persisted for it.
func (m *Manager) End(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
