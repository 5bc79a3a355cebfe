package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/evtariff/core/pricecache"
)

// CacheConfig holds the freshness windows of the pricing cache.
type CacheConfig struct {
	MemoryTTL    time.Duration `json:"memory_ttl"`
	OfflineTTL   time.Duration `json:"offline_ttl"`
	FavoritesTTL time.Duration `json:"favorites_ttl"`
	// SweepInterval enables a periodic sweep of stale entries when positive.
	SweepInterval time.Duration `json:"sweep_interval"`
}

// SetDefaults applies the standard TTLs.
func (c *CacheConfig) SetDefaults() {
	if c.MemoryTTL == 0 {
		c.MemoryTTL = pricecache.DefaultMemoryTTL
	}
	if c.OfflineTTL == 0 {
		c.OfflineTTL = pricecache.DefaultOfflineTTL
	}
	if c.FavoritesTTL == 0 {
		c.FavoritesTTL = pricecache.DefaultFavoritesTTL
	}
}

// Validate rejects negative durations.
func (c CacheConfig) Validate() error {
	for name, d := range map[string]time.Duration{
		"memory_ttl":     c.MemoryTTL,
		"offline_ttl":    c.OfflineTTL,
		"favorites_ttl":  c.FavoritesTTL,
		"sweep_interval": c.SweepInterval,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// PriceCache converts the section into the cache configuration.
func (c CacheConfig) PriceCache() pricecache.Config {
	return pricecache.Config{
		MemoryTTL:     c.MemoryTTL,
		OfflineTTL:    c.OfflineTTL,
		FavoritesTTL:  c.FavoritesTTL,
		SchemaVersion: pricecache.SchemaVersion,
	}
}
