package metrics

import (
	"errors"
	"testing"

	"github.com/kilianp07/evtariff/core/events"
	"github.com/kilianp07/evtariff/core/factory"
)

type recordSink struct {
	resolutions   int
	cache         int
	invalidations int
	flushes       int
	err           error
}

func (r *recordSink) RecordResolution(events.ResolutionEvent) error {
	r.resolutions++
	return r.err
}

func (r *recordSink) RecordCacheEvent(events.CacheEvent) error {
	r.cache++
	return nil
}

func (r *recordSink) RecordInvalidation(events.InvalidationEvent) error {
	r.invalidations++
	return nil
}

func (r *recordSink) Flush() error {
	r.flushes++
	return nil
}

type resolutionOnly struct{ n int }

func (r *resolutionOnly) RecordResolution(events.ResolutionEvent) error {
	r.n++
	return nil
}

func init() {
	_ = RegisterMetricsSink("test-record", func(map[string]any) (MetricsSink, error) {
		return &recordSink{}, nil
	})
}

/*
TestNewMetricsSink validates NewMetricsSink behavior with zero, one, and multiple configs.
Cases:
  - no config -> NopSink
  - one config -> the sink itself
  - two configs -> MultiSink with two sub-sinks
  - unknown type -> error
*/
func TestNewMetricsSink(t *testing.T) {
	s, err := NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create nop default: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "test-record"}})
	if err != nil {
		t.Fatalf("create single: %v", err)
	}
	if _, ok := s.(*recordSink); !ok {
		t.Fatalf("expected recordSink, got %T", s)
	}

	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "test-record"}, {Type: "test-record"}})
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	m, ok := s.(*MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if len(m.Sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(m.Sinks))
	}

	if _, err := NewMetricsSink([]factory.ModuleConfig{{Type: "test-record"}, {Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

// TestMultiSink ensures events are forwarded to all sinks and optional
// recorders are skipped for sinks not implementing them.
func TestMultiSink(t *testing.T) {
	failing := &recordSink{err: errors.New("write failed")}
	ok := &recordSink{}
	plain := &resolutionOnly{}
	m := NewMultiSink(failing, ok, plain)

	if err := m.RecordResolution(events.ResolutionEvent{StationID: "st-1"}); err == nil {
		t.Fatal("expected joined error")
	}
	if err := m.RecordCacheEvent(events.CacheEvent{}); err != nil {
		t.Fatalf("cache event: %v", err)
	}
	if err := m.RecordInvalidation(events.InvalidationEvent{}); err != nil {
		t.Fatalf("invalidation: %v", err)
	}
	if err := m.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if ok.resolutions != 1 || plain.n != 1 {
		t.Fatal("resolution not forwarded past the failing sink")
	}
	if failing.cache != 1 || ok.invalidations != 1 || ok.flushes != 1 {
		t.Fatal("optional recorders not forwarded")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Sinks: []factory.ModuleConfig{{Type: "prometheus"}}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Config{Sinks: []factory.ModuleConfig{{}}}).Validate(); err == nil {
		t.Fatal("expected error for missing type")
	}
}
