package pricecache

import "time"

const (
	// SchemaVersion is the layout version written into every persisted entry.
	SchemaVersion = 1

	DefaultMemoryTTL    = 5 * time.Minute
	DefaultOfflineTTL   = 24 * time.Hour
	DefaultFavoritesTTL = 7 * 24 * time.Hour
)

// Config holds the freshness windows of each tier.
type Config struct {
	MemoryTTL     time.Duration
	OfflineTTL    time.Duration
	FavoritesTTL  time.Duration
	SchemaVersion int
}

// DefaultConfig returns the standard TTLs.
func DefaultConfig() Config {
	return Config{
		MemoryTTL:     DefaultMemoryTTL,
		OfflineTTL:    DefaultOfflineTTL,
		FavoritesTTL:  DefaultFavoritesTTL,
		SchemaVersion: SchemaVersion,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MemoryTTL <= 0 {
		c.MemoryTTL = d.MemoryTTL
	}
	if c.OfflineTTL <= 0 {
		c.OfflineTTL = d.OfflineTTL
	}
	if c.FavoritesTTL <= 0 {
		c.FavoritesTTL = d.FavoritesTTL
	}
	if c.SchemaVersion <= 0 {
		c.SchemaVersion = d.SchemaVersion
	}
}

func (c Config) ttl(p Partition) time.Duration {
	if p == PartitionFavorites {
		return c.FavoritesTTL
	}
	return c.OfflineTTL
}
