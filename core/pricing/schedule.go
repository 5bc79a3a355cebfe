package pricing

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SampleHour is one representative hour of a day-ahead schedule.
type SampleHour struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
}

// DefaultSampleHours are the hours previewed by a Projector.
var DefaultSampleHours = []SampleHour{
	{0, "Night"},
	{6, "Morning"},
	{9, "Start of day"},
	{12, "Day"},
	{15, "Afternoon"},
	{18, "Evening"},
	{21, "Late evening"},
}

// Slot is the rate previewed at one sample hour.
type Slot struct {
	Time       string    `json:"time"`
	Label      string    `json:"label"`
	Rate       float64   `json:"rate"`
	At         time.Time `json:"at"`
	Currency   string    `json:"currency"`
	ActiveRule string    `json:"active_rule"`
}

// Schedule is a day-ahead price table for one charging point.
type Schedule struct {
	StationID     string `json:"station_id"`
	ConnectorType string `json:"connector_type,omitempty"`
	ClientID      string `json:"client_id,omitempty"`
	Slots         []Slot `json:"slots"`
}

// Summary aggregates the rates of a schedule.
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Rates returns the slot rates in order.
func (s Schedule) Rates() []float64 {
	out := make([]float64, len(s.Slots))
	for i, sl := range s.Slots {
		out[i] = sl.Rate
	}
	return out
}

// Summary computes min, max, mean and standard deviation of the rates. An
// empty schedule yields a zero Summary.
func (s Schedule) Summary() Summary {
	rates := s.Rates()
	if len(rates) == 0 {
		return Summary{}
	}
	sum := Summary{
		Min:  floats.Min(rates),
		Max:  floats.Max(rates),
		Mean: stat.Mean(rates, nil),
	}
	if len(rates) > 1 {
		sum.StdDev = stat.StdDev(rates, nil)
	}
	return sum
}

// Projector previews the rate of a charging point at fixed hours of the
// current day.
type Projector struct {
	resolver *Resolver
	hours    []SampleHour
}

// NewProjector creates a Projector. Nil or empty hours select DefaultSampleHours.
func NewProjector(r *Resolver, hours []SampleHour) *Projector {
	if len(hours) == 0 {
		hours = DefaultSampleHours
	}
	return &Projector{resolver: r, hours: hours}
}

// Project evaluates the waterfall at each sample hour of today, in the
// resolver's location. The in-process cache entry for the request is evicted
// before every sample; the evaluations themselves bypass both cache tiers.
func (p *Projector) Project(ctx context.Context, req Request) Schedule {
	day := p.resolver.Now()
	key := req.Key()
	cache := p.resolver.Cache()
	sched := Schedule{
		StationID:     req.StationID,
		ConnectorType: req.ConnectorType,
		ClientID:      req.ClientID,
		Slots:         make([]Slot, 0, len(p.hours)),
	}
	for _, h := range p.hours {
		if cache != nil {
			cache.EvictMemory(key)
		}
		at := time.Date(day.Year(), day.Month(), day.Day(), h.Hour, 0, 0, 0, day.Location())
		res := p.resolver.ResolveAt(ctx, req, at)
		hhmm := fmt.Sprintf("%02d:00", h.Hour)
		sched.Slots = append(sched.Slots, Slot{
			Time:       hhmm,
			Label:      fmt.Sprintf("%s (%s)", h.Label, hhmm),
			Rate:       res.RatePerKWh,
			At:         at,
			Currency:   res.Currency,
			ActiveRule: res.ActiveRule,
		})
	}
	return sched
}
