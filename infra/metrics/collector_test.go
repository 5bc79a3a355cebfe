package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evtariff/core/events"
	"github.com/kilianp07/evtariff/internal/eventbus"
)

type recordSink struct {
	mu            sync.Mutex
	resolutions   []events.ResolutionEvent
	cache         []events.CacheEvent
	invalidations []events.InvalidationEvent
	fail          error
}

func (r *recordSink) RecordResolution(ev events.ResolutionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolutions = append(r.resolutions, ev)
	return r.fail
}

func (r *recordSink) RecordCacheEvent(ev events.CacheEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = append(r.cache, ev)
	return nil
}

func (r *recordSink) RecordInvalidation(ev events.InvalidationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidations = append(r.invalidations, ev)
	return nil
}

func (r *recordSink) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.resolutions), len(r.cache), len(r.invalidations)
}

func TestEventCollectorDispatchesByType(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sink := &recordSink{fail: errors.New("sink down")}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sink)

	bus.Publish(events.ResolutionEvent{StationID: "st-1"})
	bus.Publish(events.CacheEvent{Partition: "pricing"})
	bus.Publish(events.InvalidationEvent{StationID: "st-1"})
	bus.Publish("ignored")

	require.Eventually(t, func() bool {
		r, c, i := sink.counts()
		return r == 1 && c == 1 && i == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestEventCollectorNilArgs(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, &recordSink{})
	_, open := <-done
	assert.False(t, open)
}
