// Package memory implements ports.HistoryStore in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/petsaude/iasys/pkg/domain"
)

// Store keeps transcripts in a map. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string][]domain.ChatMessage
}

// NewStore creates an empty in-memory history store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]domain.ChatMessage),
	}
}

// Append adds messages to the session transcript.
func (s *Store) Append(ctx context.Context, sessionID string, messages ...domain.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = append(s.data[sessionID], messages...)
	return nil
}

// History returns a copy of the session transcript, oldest first.
func (s *Store) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Copy so callers can't mutate the stored slice.
	return append([]domain.ChatMessage(nil), s.data[sessionID]...), nil
}

// Delete removes the session transcript.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}
