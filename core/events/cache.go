package events

import "time"

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"
	CacheWrite = "write"
	CacheError = "error"
)

// CacheEvent records a single cache tier interaction.
type CacheEvent struct {
	Partition string
	Tier      string
	Outcome   string
	Time      time.Time
}

// InvalidationEvent is published after cached prices were removed.
// StationID is empty when the whole cache was cleared.
type InvalidationEvent struct {
	StationID string
	Origin    string
	Removed   int
	Time      time.Time
}

// InvalidationRequest asks the engine to drop cached prices for a station,
// or everything when All is set.
type InvalidationRequest struct {
	StationID string
	All       bool
	Origin    string
}
