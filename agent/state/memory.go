package state

import (
	"context"
	"strings"
	"sync"

	contractx "github.com/svergara/concierge/agent/contract"
)

// MemoryStore keeps conversations in process memory. It is the default
// backend for local development and tests; history disappears on
// restart.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]contractx.ConversationTurn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		turns: make(map[string][]contractx.ConversationTurn),
	}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) ([]contractx.ConversationTurn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.turns[sessionID]
	if len(stored) == 0 {
		return nil, nil
	}
	out := make([]contractx.ConversationTurn, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, turns []contractx.ConversationTurn) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	if len(turns) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns[sessionID] = append(s.turns[sessionID], turns...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.turns, sessionID)
	return nil
}
