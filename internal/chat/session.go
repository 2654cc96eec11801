package chat

import "sync"

// SessionManager owns one answering pipeline per conversation session,
// created on first use and dropped on reset or disconnect. Dropping a
// session discards everything the pipeline accumulated for it; the next
// message starts from a fresh instance.
type SessionManager struct {
	factory func() Assistant

	mu   sync.Mutex
	live map[string]Assistant
}

// NewSessionManager builds a manager around the pipeline factory.
func NewSessionManager(factory func() Assistant) *SessionManager {
	if factory == nil {
		panic("chat: session factory cannot be nil")
	}
	return &SessionManager{
		factory: factory,
		live:    make(map[string]Assistant),
	}
}

// Session returns the pipeline for the session, creating it lazily.
func (m *SessionManager) Session(id string) Assistant {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.live[id]; ok {
		return a
	}
	a := m.factory()
	m.live[id] = a
	return a
}

// Drop discards the session's pipeline.
func (m *SessionManager) Drop(id string) {
	m.mu.Lock()
	delete(m.live, id)
	m.mu.Unlock()
}

// Len reports how many sessions currently hold a pipeline.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
