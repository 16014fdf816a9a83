package replay

import (
	"context"
	"sync"
)

// Store is the raw byte-level backend for the replay cache. Backends
// must provide atomic upsert per key; concurrent writers for the same
// key race harmlessly because the payload is deterministic.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, val []byte) error
	// Clear removes every replay record. Test/ops use only.
	Clear(ctx context.Context) error
}

// MemoryStore is the in-process backend. Records never expire.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, val []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), val...)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string][]byte)
	return nil
}

// Len reports the number of cached records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
