package source

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricing"
)

var _ pricing.DataSource = (*StaticSource)(nil)

// Fixtures is the document layout read by StaticSource.
type Fixtures struct {
	Stations      []model.Station      `yaml:"stations"`
	Plans         []model.TariffPlan   `yaml:"plans"`
	Rules         []model.TariffRule   `yaml:"rules"`
	ClientTariffs []model.ClientTariff `yaml:"client_tariffs"`
}

// StaticSource serves tariff records held in memory, typically loaded from a
// YAML file. Stations are matched by id or serial number.
type StaticSource struct {
	mu       sync.RWMutex
	stations map[string]model.Station
	plans    map[string]model.TariffPlan
	rules    map[string][]model.TariffRule
	clients  map[string][]model.ClientTariff
}

// LoadStatic reads fixtures from a YAML file.
func LoadStatic(path string) (*StaticSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("static source: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("static source: parse %s: %w", path, err)
	}
	return NewStatic(f), nil
}

// NewStatic indexes f.
func NewStatic(f Fixtures) *StaticSource {
	s := &StaticSource{}
	s.Replace(f)
	return s
}

// Replace swaps the served records for f.
func (s *StaticSource) Replace(f Fixtures) {
	stations := make(map[string]model.Station, 2*len(f.Stations))
	for _, st := range f.Stations {
		if st.SerialNumber != "" {
			stations[st.SerialNumber] = st
		}
		stations[st.ID] = st
	}
	plans := make(map[string]model.TariffPlan, len(f.Plans))
	for _, p := range f.Plans {
		plans[p.ID] = p
	}
	rules := map[string][]model.TariffRule{}
	for _, r := range f.Rules {
		if r.IsActive {
			rules[r.TariffPlanID] = append(rules[r.TariffPlanID], r)
		}
	}
	for _, list := range rules {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Priority > list[j].Priority })
	}
	clients := map[string][]model.ClientTariff{}
	for _, c := range f.ClientTariffs {
		clients[c.ClientID] = append(clients[c.ClientID], c)
	}

	s.mu.Lock()
	s.stations, s.plans, s.rules, s.clients = stations, plans, rules, clients
	s.mu.Unlock()
}

func (s *StaticSource) GetStation(_ context.Context, stationID string) (*model.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stations[stationID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &st, nil
}

// GetActiveClientTariff returns the valid tariff with the latest start.
func (s *StaticSource) GetActiveClientTariff(_ context.Context, clientID string, now time.Time) (*model.ClientTariff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *model.ClientTariff
	for i := range s.clients[clientID] {
		c := s.clients[clientID][i]
		if !c.ValidAt(now) {
			continue
		}
		if best == nil || c.ValidFrom.After(best.ValidFrom) {
			best = &c
		}
	}
	return best, nil
}

func (s *StaticSource) GetActiveRules(_ context.Context, planID string) ([]model.TariffRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TariffRule(nil), s.rules[planID]...), nil
}

func (s *StaticSource) GetTariffPlan(_ context.Context, planID string) (*model.TariffPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[planID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}
