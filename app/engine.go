// Package app wires configuration, data source, cache, metrics and the
// invalidation listener into an Engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kilianp07/evtariff/config"
	"github.com/kilianp07/evtariff/core/clock"
	"github.com/kilianp07/evtariff/core/events"
	coremetrics "github.com/kilianp07/evtariff/core/metrics"
	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/monitoring"
	"github.com/kilianp07/evtariff/core/pricecache"
	"github.com/kilianp07/evtariff/core/pricing"
	"github.com/kilianp07/evtariff/infra/logger"
	"github.com/kilianp07/evtariff/infra/metrics"
	inframon "github.com/kilianp07/evtariff/infra/monitoring"
	"github.com/kilianp07/evtariff/infra/mqtt"
	"github.com/kilianp07/evtariff/internal/eventbus"
)

// Invalidation origins.
const (
	OriginAPI   = "api"
	OriginSweep = "sweep"
)

// ErrNoPersistentStore is returned by operations needing the persistent tier
// when the engine runs memory-only.
var ErrNoPersistentStore = errors.New("no persistent store configured")

// ErrMQTTDisabled is returned by Announce when no broker is configured.
var ErrMQTTDisabled = errors.New("mqtt is not configured")

// Engine is the composition root of the pricing service. Resolve, ComputeCost
// and Project are safe for concurrent use.
type Engine struct {
	cfg       *config.Config
	source    pricing.DataSource
	cache     *pricecache.Cache
	resolver  *pricing.Resolver
	projector *pricing.Projector
	sink      coremetrics.MetricsSink
	clock     clock.Clock
	log       logger.Logger

	bus           *eventbus.Bus
	invalidations *eventbus.TypedBus[events.InvalidationRequest]
	collectorDone <-chan struct{}

	mu          sync.Mutex
	invalidator *mqtt.Invalidator
	started     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	closeOnce   sync.Once

	storeSet bool
	store    pricecache.Store
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSource replaces the configured data source.
func WithSource(src pricing.DataSource) Option {
	return func(e *Engine) { e.source = src }
}

// WithStore replaces the configured persistent store. A nil store makes the
// cache memory-only.
func WithStore(s pricecache.Store) Option {
	return func(e *Engine) { e.store, e.storeSet = s, true }
}

// WithClock sets the clock used by the resolver and the cache.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithMetricsSink replaces the configured metrics sinks.
func WithMetricsSink(s coremetrics.MetricsSink) Option {
	return func(e *Engine) { e.sink = s }
}

// New builds an Engine from cfg. A persistent store that cannot be opened is
// logged and the engine continues memory-only.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	e := &Engine{cfg: cfg, log: logger.New("engine")}
	for _, o := range opts {
		o(e)
	}
	if e.clock == nil {
		e.clock = clock.Real{}
	}

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		e.log.Errorf("sentry init: %v", err)
	} else {
		monitoring.Init(mon)
	}

	loc, err := cfg.Pricing.Location()
	if err != nil {
		return nil, err
	}
	if e.source == nil {
		if e.source, err = pricing.NewDataSource(cfg.Source); err != nil {
			return nil, fmt.Errorf("data source: %w", err)
		}
	}
	if !e.storeSet {
		e.store, err = pricecache.NewStore(cfg.Store)
		if err != nil {
			e.log.Warnw("persistent store unavailable, running memory-only", map[string]any{
				"type":  cfg.Store.Type,
				"error": err.Error(),
			})
			monitoring.Report("engine", err, map[string]string{"store": cfg.Store.Type})
			e.store = nil
		}
	}
	if e.sink == nil {
		if e.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			e.closeStore()
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}

	e.bus = eventbus.New()
	e.invalidations = eventbus.NewTyped[events.InvalidationRequest]()
	e.collectorDone = metrics.StartEventCollector(context.Background(), e.bus, e.sink)

	e.cache = pricecache.New(e.store, cfg.Cache.PriceCache(), e.clock, logger.New("pricing-cache"))
	e.cache.SetBus(e.bus)
	e.cache.Init(ctx)

	e.resolver, err = pricing.NewResolver(e.source, pricing.Options{
		Cache:           e.cache,
		Clock:           e.clock,
		Location:        loc,
		DefaultRate:     cfg.Pricing.DefaultRate,
		DefaultCurrency: cfg.Pricing.DefaultCurrency,
		Logger:          logger.New("resolver"),
		Bus:             e.bus,
	})
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	e.projector = pricing.NewProjector(e.resolver, cfg.Pricing.SampleHours)
	return e, nil
}

func (e *Engine) closeStore() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// Resolve returns the price currently applying to req. It never fails.
func (e *Engine) Resolve(ctx context.Context, req pricing.Request) model.PricingResult {
	return e.resolver.Resolve(ctx, req)
}

// ComputeCost itemizes the cost of a session under p.
func (e *Engine) ComputeCost(energyKWh, durationMinutes float64, p model.PricingResult) model.SessionCostBreakdown {
	return pricing.ComputeCost(energyKWh, durationMinutes, p)
}

// Quote resolves the current price for req and computes the session cost.
func (e *Engine) Quote(ctx context.Context, req pricing.Request, energyKWh, durationMinutes float64) (model.PricingResult, model.SessionCostBreakdown) {
	p := e.Resolve(ctx, req)
	return p, e.ComputeCost(energyKWh, durationMinutes, p)
}

// Project previews today's rates for req at the configured sample hours.
func (e *Engine) Project(ctx context.Context, req pricing.Request) pricing.Schedule {
	return e.projector.Project(ctx, req)
}

// ClearCache empties both cache tiers.
func (e *Engine) ClearCache(ctx context.Context) error {
	_, err := e.invalidate(ctx, events.InvalidationRequest{All: true, Origin: OriginAPI})
	return err
}

// InvalidateStation drops every cached price of a station and returns the
// number of removed entries.
func (e *Engine) InvalidateStation(ctx context.Context, stationID string) int {
	n, _ := e.invalidate(ctx, events.InvalidationRequest{StationID: stationID, Origin: OriginAPI})
	return n
}

func (e *Engine) invalidate(ctx context.Context, req events.InvalidationRequest) (int, error) {
	var (
		removed int
		err     error
	)
	if req.All {
		s, _ := e.cache.Stats(ctx)
		removed = s.Pricing + s.Plans + s.Rules + s.Favorites + s.Memory
		err = e.cache.InvalidateAll(ctx)
		e.log.Infof("cache cleared (origin %s)", req.Origin)
	} else {
		removed = e.cache.InvalidateStation(ctx, req.StationID)
		e.log.Debugw("station invalidated", map[string]any{"station_id": req.StationID, "origin": req.Origin, "removed": removed})
	}
	e.bus.Publish(events.InvalidationEvent{
		StationID: req.StationID,
		Origin:    req.Origin,
		Removed:   removed,
		Time:      e.clock.Now(),
	})
	return removed, err
}

// CacheFavorite snapshots the current pricing, plan and rules of a station
// for offline use.
func (e *Engine) CacheFavorite(ctx context.Context, stationID string) (model.FavoriteBundle, error) {
	if !e.cache.Persistent() {
		return model.FavoriteBundle{}, ErrNoPersistentStore
	}
	b := model.FavoriteBundle{
		StationID: stationID,
		Pricing:   e.Resolve(ctx, pricing.Request{StationID: stationID}),
	}
	station, err := e.source.GetStation(ctx, stationID)
	switch {
	case err != nil && !errors.Is(err, model.ErrNotFound):
		e.log.Warnw("favorite station lookup failed", map[string]any{"station_id": stationID, "error": err.Error()})
	case err == nil && station != nil && station.TariffPlanID != "":
		if plan, err := e.source.GetTariffPlan(ctx, station.TariffPlanID); err == nil {
			b.TariffPlan = plan
		}
		if rules, err := e.source.GetActiveRules(ctx, station.TariffPlanID); err == nil {
			b.Rules = rules
		} else if cached, ok := e.cache.GetRules(ctx, station.TariffPlanID); ok {
			b.Rules = cached
		}
	}
	e.cache.PutFavorite(ctx, b)
	return b, nil
}

// Favorite returns the offline bundle of a station while it is fresh.
func (e *Engine) Favorite(ctx context.Context, stationID string) (*model.FavoriteBundle, bool) {
	return e.cache.GetFavorite(ctx, stationID)
}

// Stats reports cache occupancy.
func (e *Engine) Stats(ctx context.Context) (pricecache.Stats, error) {
	return e.cache.Stats(ctx)
}

// Sweep removes stale cache records and returns how many were dropped.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	n, err := e.cache.Sweep(ctx)
	if n > 0 {
		e.bus.Publish(events.InvalidationEvent{Origin: OriginSweep, Removed: n, Time: e.clock.Now()})
	}
	return n, err
}

// Announce tells other instances sharing the MQTT broker that the tariffs of
// stationID changed, or all tariffs when stationID is empty.
func (e *Engine) Announce(stationID string) error {
	inv, err := e.ensureInvalidator()
	if err != nil {
		return err
	}
	return inv.Announce(stationID)
}

func (e *Engine) ensureInvalidator() (*mqtt.Invalidator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.invalidator != nil {
		return e.invalidator, nil
	}
	if !e.cfg.MQTT.Enabled() {
		return nil, ErrMQTTDisabled
	}
	inv, err := mqtt.NewInvalidator(e.cfg.MQTT, e.invalidations)
	if err != nil {
		return nil, fmt.Errorf("mqtt invalidator: %w", err)
	}
	e.invalidator = inv
	return inv, nil
}

// Start launches the background workers: the MQTT invalidation listener,
// the periodic sweep and the Prometheus endpoint, each when configured.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	ctx, e.cancel = context.WithCancel(ctx)
	e.mu.Unlock()

	reqs := e.invalidations.Subscribe()
	e.wg.Add(1)
	go e.consumeInvalidations(ctx, reqs)

	if e.cfg.MQTT.Enabled() {
		if _, err := e.ensureInvalidator(); err != nil {
			return err
		}
	}
	if d := e.cfg.Cache.SweepInterval; d > 0 {
		e.wg.Add(1)
		go e.sweepLoop(ctx, d)
	}
	if addr := e.cfg.Metrics.PrometheusAddr; addr != "" {
		bound, err := metrics.StartPromServer(ctx, addr, nil)
		if err != nil {
			return fmt.Errorf("prometheus endpoint: %w", err)
		}
		e.log.Infof("serving metrics on %s", bound)
	}
	return nil
}

// Run starts the engine and blocks until ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (e *Engine) consumeInvalidations(ctx context.Context, reqs <-chan events.InvalidationRequest) {
	defer e.wg.Done()
	defer monitoring.Recover()
	defer e.invalidations.Unsubscribe(reqs)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-reqs:
			if !ok {
				return
			}
			if _, err := e.invalidate(ctx, req); err != nil {
				e.log.Errorf("invalidation from %s failed: %v", req.Origin, err)
				monitoring.Report("engine", err, map[string]string{"origin": req.Origin})
			}
		}
	}
}

func (e *Engine) sweepLoop(ctx context.Context, every time.Duration) {
	defer e.wg.Done()
	defer monitoring.Recover()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := e.Sweep(ctx)
			if err != nil {
				e.log.Warnf("cache sweep: %v", err)
				continue
			}
			e.log.Debugf("cache sweep removed %d records", n)
		}
	}
}

// Close stops the background workers, drains pending events into the
// metrics sinks and releases the store and the data source.
func (e *Engine) Close() error {
	var errs []error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		cancel, inv := e.cancel, e.invalidator
		e.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		e.wg.Wait()
		if inv != nil {
			inv.Close()
		}
		e.invalidations.Close()
		e.bus.Close()
		<-e.collectorDone
		if f, ok := e.sink.(coremetrics.Flusher); ok {
			errs = append(errs, f.Flush())
		}
		if e.cache != nil {
			errs = append(errs, e.cache.Close())
		}
		if c, ok := e.source.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
		monitoring.Flush(2 * time.Second)
	})
	return errors.Join(errs...)
}
