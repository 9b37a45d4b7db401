package history

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps histories in process memory. It backs tests and
// single-process setups where durability doesn't matter.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Message)}
}

// AddMessage appends msg to its session.
func (s *MemoryStore) AddMessage(_ context.Context, msg Message) error {
	s.mu.Lock()
	s.sessions[msg.SessionID] = append(s.sessions[msg.SessionID], msg)
	s.mu.Unlock()
	return nil
}

// Messages returns a copy of the session's messages in insertion order.
func (s *MemoryStore) Messages(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[sessionID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Search returns messages whose content contains query, case-insensitively.
func (s *MemoryStore) Search(_ context.Context, sessionID, query string) ([]Message, error) {
	q := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Message
	for _, m := range s.sessions[sessionID] {
		if strings.Contains(strings.ToLower(m.Content), q) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Clear drops the session. Clearing an unknown session is a no-op.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}
