package session

import (
	"context"
	"sync"
	"time"
)

// Store persists session states by session id.
type Store interface {
	// Get returns the stored state and whether one exists.
	Get(ctx context.Context, sid string) (State, bool, error)
	// Put stores st, replacing any previous state, for at most ttl.
	Put(ctx context.Context, st State, ttl time.Duration) error
	Close() error
}

type memoryEntry struct {
	state    State
	deadline time.Time
}

// MemoryStore keeps states in process memory. Entries are dropped once
// their ttl has passed.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(ctx context.Context, sid string) (State, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[sid]
	s.mu.RUnlock()
	if !ok {
		return State{}, false, nil
	}
	if !e.deadline.IsZero() && !s.now().Before(e.deadline) {
		s.mu.Lock()
		delete(s.entries, sid)
		s.mu.Unlock()
		return State{}, false, nil
	}
	return e.state, true, nil
}

func (s *MemoryStore) Put(ctx context.Context, st State, ttl time.Duration) error {
	var deadline time.Time
	if ttl > 0 {
		deadline = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[st.SessionID] = memoryEntry{state: st, deadline: deadline}
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error { return nil }
