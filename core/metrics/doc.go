// Package metrics defines the sinks that record pricing activity. A
// MetricsSink receives every resolution; sinks may also implement
// CacheRecorder and InvalidationRecorder. Several sinks are combined with
// NewMultiSink, which the factory helpers return automatically when more
// than one sink is configured.
package metrics
