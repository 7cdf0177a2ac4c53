package history

import (
	"context"
	"sync"
)

// MemoryStore keeps histories in process memory; they are lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[int64][]Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[int64][]Turn)}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arr := s.turns[userID]
	out := make([]Turn, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, userID int64, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[userID] = append(s.turns[userID], turns...)
	return nil
}

func (s *MemoryStore) Truncate(_ context.Context, userID int64, maxLen int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	arr, ok := s.turns[userID]
	if !ok {
		return nil
	}
	if maxLen <= 0 {
		s.turns[userID] = nil
		return nil
	}
	if len(arr) <= maxLen {
		return nil
	}
	// fresh backing array so the evicted prefix can be collected
	kept := make([]Turn, maxLen)
	copy(kept, arr[len(arr)-maxLen:])
	s.turns[userID] = kept
	return nil
}

// Len is the number of turns held for userID.
func (s *MemoryStore) Len(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns[userID])
}
