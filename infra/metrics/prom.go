package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/evtariff/core/events"
	coremetrics "github.com/kilianp07/evtariff/core/metrics"
)

// PromSink records resolutions, cache traffic and invalidations in
// Prometheus metrics.
type PromSink struct {
	resolutions   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	rate          *prometheus.GaugeVec
	cacheEvents   *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	invalidated   *prometheus.CounterVec
}

// NewPromSink registers tariff metrics on the default Prometheus registerer.
// The HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.resolutions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_resolutions_total",
		Help: "Resolved tariffs by source",
	}, []string{"source", "degraded"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tariff_resolution_latency_seconds",
		Help:    "Latency of tariff resolution as observed by the resolver",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})); err != nil {
		return nil, err
	}
	if s.rate, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tariff_rate_per_kwh",
		Help: "Last resolved energy rate per station",
	}, []string{"station_id", "currency"})); err != nil {
		return nil, err
	}
	if s.cacheEvents, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_cache_events_total",
		Help: "Cache interactions by partition, tier and outcome",
	}, []string{"partition", "tier", "outcome"})); err != nil {
		return nil, err
	}
	if s.invalidations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_invalidations_total",
		Help: "Cache invalidations by origin",
	}, []string{"origin", "scope"})); err != nil {
		return nil, err
	}
	if s.invalidated, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_invalidated_entries_total",
		Help: "Cache entries removed by invalidations",
	}, []string{"origin"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordResolution counts the resolution and tracks the station rate.
func (s *PromSink) RecordResolution(ev events.ResolutionEvent) error {
	s.resolutions.WithLabelValues(ev.Source, strconv.FormatBool(ev.Degraded)).Inc()
	s.latency.WithLabelValues(ev.Source).Observe(ev.Latency.Seconds())
	if ev.StationID != "" && ev.Source != events.SourcePreview {
		s.rate.WithLabelValues(ev.StationID, ev.Currency).Set(ev.RatePerKWh)
	}
	return nil
}

func (s *PromSink) RecordCacheEvent(ev events.CacheEvent) error {
	s.cacheEvents.WithLabelValues(ev.Partition, ev.Tier, ev.Outcome).Inc()
	return nil
}

func (s *PromSink) RecordInvalidation(ev events.InvalidationEvent) error {
	scope := "station"
	if ev.StationID == "" {
		scope = "all"
	}
	s.invalidations.WithLabelValues(ev.Origin, scope).Inc()
	s.invalidated.WithLabelValues(ev.Origin).Add(float64(ev.Removed))
	return nil
}

var (
	_ coremetrics.MetricsSink          = (*PromSink)(nil)
	_ coremetrics.CacheRecorder        = (*PromSink)(nil)
	_ coremetrics.InvalidationRecorder = (*PromSink)(nil)
)
