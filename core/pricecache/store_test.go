package pricecache

import (
	"context"
	"sync"

	"github.com/kilianp07/evtariff/core/model"
)

// mapStore is an in-test Store with optional failure injection.
type mapStore struct {
	mu   sync.Mutex
	data map[Partition]map[string][]byte
	fail error
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[Partition]map[string][]byte)}
}

func (s *mapStore) Get(_ context.Context, p Partition, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	v, ok := s.data[p][key]
	if !ok {
		return nil, model.ErrNotFound
	}
	return v, nil
}

func (s *mapStore) Put(_ context.Context, p Partition, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if s.data[p] == nil {
		s.data[p] = make(map[string][]byte)
	}
	s.data[p][key] = value
	return nil
}

func (s *mapStore) Delete(_ context.Context, p Partition, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	delete(s.data[p], key)
	return nil
}

func (s *mapStore) Keys(_ context.Context, p Partition) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	keys := make([]string, 0, len(s.data[p]))
	for k := range s.data[p] {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *mapStore) Count(_ context.Context, p Partition) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return 0, s.fail
	}
	return len(s.data[p]), nil
}

func (s *mapStore) Clear(_ context.Context, p Partition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	delete(s.data, p)
	return nil
}

func (s *mapStore) Close() error { return nil }

func (s *mapStore) has(p Partition, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[p][key]
	return ok
}
