package metrics

import "github.com/kilianp07/evtariff/core/events"

// MetricsSink records resolved prices for observability purposes.
type MetricsSink interface {
	RecordResolution(ev events.ResolutionEvent) error
}

// CacheRecorder records cache lookups and writes.
type CacheRecorder interface {
	RecordCacheEvent(ev events.CacheEvent) error
}

// InvalidationRecorder records station or full cache invalidations.
type InvalidationRecorder interface {
	RecordInvalidation(ev events.InvalidationEvent) error
}

// Flusher is implemented by sinks buffering writes.
type Flusher interface {
	Flush() error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordResolution(events.ResolutionEvent) error     { return nil }
func (NopSink) RecordCacheEvent(events.CacheEvent) error           { return nil }
func (NopSink) RecordInvalidation(events.InvalidationEvent) error { return nil }
