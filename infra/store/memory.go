package store

import (
	"context"
	"sort"
	"sync"

	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricecache"
)

var _ pricecache.Store = (*MemoryStore)(nil)

// MemoryStore keeps records in process memory. It survives nothing but is
// handy for tests and single-shot CLI runs.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[pricecache.Partition]map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[pricecache.Partition]map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, p pricecache.Partition, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[p][key]
	if !ok {
		return nil, model.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Put(_ context.Context, p pricecache.Partition, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[p] == nil {
		s.data[p] = make(map[string][]byte)
	}
	s.data[p][key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, p pricecache.Partition, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[p], key)
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, p pricecache.Partition) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data[p]))
	for k := range s.data[p] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Count(_ context.Context, p pricecache.Partition) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[p]), nil
}

func (s *MemoryStore) Clear(_ context.Context, p pricecache.Partition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, p)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
