package pricecache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/kilianp07/evtariff/core/clock"
	"github.com/kilianp07/evtariff/core/events"
	"github.com/kilianp07/evtariff/core/logger"
	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/monitoring"
	"github.com/kilianp07/evtariff/internal/eventbus"
)

// Tier names the cache level that served a lookup.
type Tier string

const (
	TierNone       Tier = ""
	TierMemory     Tier = "memory"
	TierPersistent Tier = "persistent"
)

const schemaKey = "schema"

type memEntry struct {
	result model.PricingResult
	stored time.Time
}

// Cache layers an in-process map of resolved prices over a persistent Store.
// It is safe for concurrent use. Concurrent writers for the same key race and
// the last write wins.
type Cache struct {
	mu     sync.RWMutex
	memory map[Key]memEntry

	store Store
	cfg   Config
	clock clock.Clock
	log   logger.Logger
	bus   eventbus.EventBus
}

// New creates a cache over store. A nil store yields a memory-only cache.
func New(store Store, cfg Config, clk clock.Clock, log logger.Logger) *Cache {
	cfg.applyDefaults()
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Cache{
		memory: make(map[Key]memEntry),
		store:  store,
		cfg:    cfg,
		clock:  clk,
		log:    log,
	}
}

// SetBus configures the bus receiving cache events.
func (c *Cache) SetBus(bus eventbus.EventBus) {
	c.mu.Lock()
	c.bus = bus
	c.mu.Unlock()
}

// Persistent reports whether a persistent tier is attached.
func (c *Cache) Persistent() bool { return c.store != nil }

// Config returns the effective TTL configuration.
func (c *Cache) Config() Config { return c.cfg }

// Init checks the persisted schema version and sweeps stale records.
// Failures are logged and otherwise ignored.
func (c *Cache) Init(ctx context.Context) {
	if c.store == nil {
		return
	}
	c.checkSchema(ctx)
	if n, err := c.Sweep(ctx); err != nil {
		c.log.Warnf("initial sweep incomplete after removing %d entries: %v", n, err)
	} else if n > 0 {
		c.log.Infof("initial sweep removed %d stale entries", n)
	}
}

func (c *Cache) checkSchema(ctx context.Context) {
	want := strconv.Itoa(c.cfg.SchemaVersion)
	raw, err := c.store.Get(ctx, PartitionMeta, schemaKey)
	switch {
	case errors.Is(err, model.ErrNotFound):
	case err != nil:
		c.storeFailure(PartitionMeta, "get", err)
		return
	case string(raw) == want:
		return
	default:
		c.log.Infof("store schema %q does not match %s, clearing cached data", raw, want)
		for _, p := range DataPartitions {
			if err := c.store.Clear(ctx, p); err != nil {
				c.storeFailure(p, "clear", err)
			}
		}
	}
	if err := c.store.Put(ctx, PartitionMeta, schemaKey, []byte(want)); err != nil {
		c.storeFailure(PartitionMeta, "put", err)
	}
}

// GetPricing looks key up in memory, then in the persistent tier. A
// persistent hit is promoted into memory.
func (c *Cache) GetPricing(ctx context.Context, key Key) (model.PricingResult, Tier, bool) {
	now := c.clock.Now()
	c.mu.RLock()
	e, ok := c.memory[key]
	c.mu.RUnlock()
	switch {
	case ok && now.Sub(e.stored) < c.cfg.MemoryTTL:
		c.observe(PartitionPricing, TierMemory, events.CacheHit)
		return e.result, TierMemory, true
	case ok:
		c.mu.Lock()
		if cur, still := c.memory[key]; still && cur.stored.Equal(e.stored) {
			delete(c.memory, key)
		}
		c.mu.Unlock()
		c.observe(PartitionPricing, TierMemory, events.CacheStale)
	default:
		c.observe(PartitionPricing, TierMemory, events.CacheMiss)
	}

	res, ok := readEntry[model.PricingResult](ctx, c, PartitionPricing, key.Encode())
	if !ok {
		return model.PricingResult{}, TierNone, false
	}
	c.mu.Lock()
	c.memory[key] = memEntry{result: res, stored: now}
	c.mu.Unlock()
	return res, TierPersistent, true
}

// PutPricing writes res to both tiers.
func (c *Cache) PutPricing(ctx context.Context, key Key, res model.PricingResult) {
	c.mu.Lock()
	c.memory[key] = memEntry{result: res, stored: c.clock.Now()}
	c.mu.Unlock()
	cacheWrites.WithLabelValues(string(PartitionPricing), string(TierMemory)).Inc()
	writeEntry(ctx, c, PartitionPricing, key.Encode(), res)
}

// EvictMemory drops key from the in-process tier only.
func (c *Cache) EvictMemory(key Key) {
	c.mu.Lock()
	delete(c.memory, key)
	c.mu.Unlock()
}

// GetPlan returns a fresh cached tariff plan.
func (c *Cache) GetPlan(ctx context.Context, planID string) (*model.TariffPlan, bool) {
	p, ok := readEntry[model.TariffPlan](ctx, c, PartitionPlans, planID)
	if !ok {
		return nil, false
	}
	return &p, true
}

// PutPlan persists plan.
func (c *Cache) PutPlan(ctx context.Context, plan model.TariffPlan) {
	writeEntry(ctx, c, PartitionPlans, plan.ID, plan)
}

// GetRules returns the fresh cached active rules of a plan.
func (c *Cache) GetRules(ctx context.Context, planID string) ([]model.TariffRule, bool) {
	return readEntry[[]model.TariffRule](ctx, c, PartitionRules, planID)
}

// PutRules persists the active rules of a plan.
func (c *Cache) PutRules(ctx context.Context, planID string, rules []model.TariffRule) {
	writeEntry(ctx, c, PartitionRules, planID, rules)
}

// GetFavorite returns the favorite bundle of a station if it is younger
// than the favorites TTL.
func (c *Cache) GetFavorite(ctx context.Context, stationID string) (*model.FavoriteBundle, bool) {
	b, ok := readEntry[model.FavoriteBundle](ctx, c, PartitionFavorites, stationID)
	if !ok {
		return nil, false
	}
	return &b, true
}

// PutFavorite persists a favorite bundle.
func (c *Cache) PutFavorite(ctx context.Context, b model.FavoriteBundle) {
	writeEntry(ctx, c, PartitionFavorites, b.StationID, b)
}

// InvalidateStation removes every cached price and the favorite bundle of a
// station from both tiers and returns the number of removed entries.
func (c *Cache) InvalidateStation(ctx context.Context, stationID string) int {
	removed := 0
	c.mu.Lock()
	for k := range c.memory {
		if k.StationID == stationID {
			delete(c.memory, k)
			removed++
		}
	}
	c.mu.Unlock()
	if c.store == nil {
		return removed
	}

	keys, err := c.store.Keys(ctx, PartitionPricing)
	if err != nil {
		c.storeFailure(PartitionPricing, "keys", err)
	}
	for _, raw := range keys {
		k, err := ParseKey(raw)
		if err != nil || k.StationID != stationID {
			continue
		}
		if c.delete(ctx, PartitionPricing, raw) {
			removed++
		}
	}
	if _, err := c.store.Get(ctx, PartitionFavorites, stationID); err == nil {
		if c.delete(ctx, PartitionFavorites, stationID) {
			removed++
		}
	}
	return removed
}

// InvalidateAll empties the memory tier and every data partition.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	c.memory = make(map[Key]memEntry)
	c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	var errs []error
	for _, p := range DataPartitions {
		if err := c.store.Clear(ctx, p); err != nil {
			c.storeFailure(p, "clear", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sweep removes expired memory entries and every persisted record that is
// stale for its partition or carries a foreign schema version. It returns the
// number of removed records.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	now := c.clock.Now()
	removed := 0
	c.mu.Lock()
	for k, e := range c.memory {
		if now.Sub(e.stored) >= c.cfg.MemoryTTL {
			delete(c.memory, k)
			removed++
		}
	}
	c.mu.Unlock()
	if c.store == nil {
		return removed, nil
	}

	var errs []error
	for _, p := range DataPartitions {
		keys, err := c.store.Keys(ctx, p)
		if err != nil {
			c.storeFailure(p, "keys", err)
			errs = append(errs, err)
			continue
		}
		ttl := c.cfg.ttl(p)
		for _, k := range keys {
			raw, err := c.store.Get(ctx, p, k)
			if err != nil {
				continue
			}
			h, err := decodeHeader(raw)
			if err == nil && h.Version == c.cfg.SchemaVersion && now.Sub(h.Timestamp) < ttl {
				continue
			}
			if c.delete(ctx, p, k) {
				removed++
			}
		}
	}
	return removed, errors.Join(errs...)
}

// Close releases the persistent store.
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *Cache) delete(ctx context.Context, p Partition, key string) bool {
	if err := c.store.Delete(ctx, p, key); err != nil {
		c.storeFailure(p, "delete", err)
		return false
	}
	return true
}

func (c *Cache) storeFailure(p Partition, op string, err error) {
	storeErrors.WithLabelValues(string(p), op).Inc()
	c.log.Warnw("persistent store failure", map[string]any{
		"partition": string(p),
		"op":        op,
		"error":     err.Error(),
	})
	monitoring.Report("pricing-cache", err, map[string]string{"partition": string(p), "op": op})
	c.observe(p, TierPersistent, events.CacheError)
}

func (c *Cache) observe(p Partition, tier Tier, outcome string) {
	cacheLookups.WithLabelValues(string(p), string(tier), outcome).Inc()
	c.mu.RLock()
	bus := c.bus
	c.mu.RUnlock()
	if bus != nil {
		bus.Publish(events.CacheEvent{
			Partition: string(p),
			Tier:      string(tier),
			Outcome:   outcome,
			Time:      c.clock.Now(),
		})
	}
}

func readEntry[T any](ctx context.Context, c *Cache, p Partition, key string) (T, bool) {
	var zero T
	if c.store == nil {
		return zero, false
	}
	raw, err := c.store.Get(ctx, p, key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.observe(p, TierPersistent, events.CacheMiss)
		} else {
			c.storeFailure(p, "get", err)
		}
		return zero, false
	}
	e, err := decodeEntry[T](raw)
	if err != nil {
		c.log.Warnf("discarding undecodable %s entry %s: %v", p, key, err)
	}
	if err != nil || e.Version != c.cfg.SchemaVersion || !e.Fresh(c.clock.Now(), c.cfg.ttl(p)) {
		c.observe(p, TierPersistent, events.CacheStale)
		c.delete(ctx, p, key)
		return zero, false
	}
	c.observe(p, TierPersistent, events.CacheHit)
	return e.Data, true
}

func writeEntry[T any](ctx context.Context, c *Cache, p Partition, key string, data T) {
	if c.store == nil {
		return
	}
	b, err := encodeEntry(Entry[T]{Key: key, Data: data, Timestamp: c.clock.Now(), Version: c.cfg.SchemaVersion})
	if err != nil {
		c.storeFailure(p, "encode", err)
		return
	}
	if err := c.store.Put(ctx, p, key, b); err != nil {
		c.storeFailure(p, "put", err)
		return
	}
	cacheWrites.WithLabelValues(string(p), string(TierPersistent)).Inc()
}
