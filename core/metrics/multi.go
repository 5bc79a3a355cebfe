package metrics

import (
	"errors"

	"github.com/kilianp07/evtariff/core/events"
)

// MultiSink fans events out to several sinks. Every sink receives the event
// even when an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordResolution forwards the resolution to all sinks.
func (m *MultiSink) RecordResolution(ev events.ResolutionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordResolution(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordCacheEvent forwards cache events to sinks implementing CacheRecorder.
func (m *MultiSink) RecordCacheEvent(ev events.CacheEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(CacheRecorder); ok {
			if err := rec.RecordCacheEvent(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordInvalidation forwards invalidations to sinks implementing
// InvalidationRecorder.
func (m *MultiSink) RecordInvalidation(ev events.InvalidationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(InvalidationRecorder); ok {
			if err := rec.RecordInvalidation(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Flush flushes every buffering sink.
func (m *MultiSink) Flush() error {
	var errs []error
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
