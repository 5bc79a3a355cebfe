package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricecache"
)

// fakeSource is an in-memory DataSource counting its calls.
type fakeSource struct {
	mu       sync.Mutex
	stations map[string]*model.Station
	clients  map[string]*model.ClientTariff
	rules    map[string][]model.TariffRule
	plans    map[string]*model.TariffPlan

	stationErr error
	clientErr  error
	rulesErr   error
	panicOn    string

	stationCalls int
	rulesCalls   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		stations: map[string]*model.Station{},
		clients:  map[string]*model.ClientTariff{},
		rules:    map[string][]model.TariffRule{},
		plans:    map[string]*model.TariffPlan{},
	}
}

func (f *fakeSource) GetStation(_ context.Context, id string) (*model.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stationCalls++
	if f.panicOn == id {
		panic("boom")
	}
	if f.stationErr != nil {
		return nil, f.stationErr
	}
	s, ok := f.stations[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return s, nil
}

func (f *fakeSource) GetActiveClientTariff(_ context.Context, clientID string, _ time.Time) (*model.ClientTariff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clientErr != nil {
		return nil, f.clientErr
	}
	return f.clients[clientID], nil
}

func (f *fakeSource) GetActiveRules(_ context.Context, planID string) ([]model.TariffRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rulesCalls++
	if f.rulesErr != nil {
		return nil, f.rulesErr
	}
	return f.rules[planID], nil
}

func (f *fakeSource) GetTariffPlan(_ context.Context, planID string) (*model.TariffPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[planID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return p, nil
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stationCalls
}

// memStore is a minimal pricecache.Store counting writes.
type memStore struct {
	mu   sync.Mutex
	data map[pricecache.Partition]map[string][]byte
	puts int
}

func newMemStore() *memStore {
	return &memStore{data: map[pricecache.Partition]map[string][]byte{}}
}

func (s *memStore) Get(_ context.Context, p pricecache.Partition, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[p][key]
	if !ok {
		return nil, model.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Put(_ context.Context, p pricecache.Partition, key string, v []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.data[p] == nil {
		s.data[p] = map[string][]byte{}
	}
	s.data[p][key] = v
	return nil
}

func (s *memStore) Delete(_ context.Context, p pricecache.Partition, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[p], key)
	return nil
}

func (s *memStore) Keys(_ context.Context, p pricecache.Partition) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data[p]))
	for k := range s.data[p] {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *memStore) Count(_ context.Context, p pricecache.Partition) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[p]), nil
}

func (s *memStore) Clear(_ context.Context, p pricecache.Partition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, p)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
