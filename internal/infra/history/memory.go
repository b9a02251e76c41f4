// Package history is the in-process conversation context store.
//
// Design:
//   - One ordered message slice per conversation id, guarded by a single RWMutex.
//   - Append applies a whole batch under the lock, so a turn's user and
//     assistant messages are never split by another writer.
//   - History returns a copy; callers may mutate it freely.
//   - No persistence, no TTL, no size cap: memory grows until Clear or restart.
package history

import (
	"slices"
	"sync"

	"github.com/matiasleandrokruk/neoguard/internal/domain/generation"
)

// MemoryStore is the in-memory implementation of generation.HistoryStore.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]generation.Message
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{conversations: make(map[string][]generation.Message)}
}

// History returns a snapshot of the conversation, or an empty slice for unknown ids.
func (s *MemoryStore) History(conversationID string) []generation.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.conversations[conversationID]
	if len(msgs) == 0 {
		return []generation.Message{}
	}
	return slices.Clone(msgs)
}

// Append adds messages in call order, creating the conversation on first use.
func (s *MemoryStore) Append(conversationID string, messages ...generation.Message) {
	if len(messages) == 0 {
		return
	}
	s.mu.Lock()
	s.conversations[conversationID] = append(s.conversations[conversationID], messages...)
	s.mu.Unlock()
}

// Clear drops all history for the conversation. Unknown ids are a no-op.
func (s *MemoryStore) Clear(conversationID string) {
	s.mu.Lock()
	delete(s.conversations, conversationID)
	s.mu.Unlock()
}

// Len reports how many conversations are currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
