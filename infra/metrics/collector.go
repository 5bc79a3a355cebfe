package metrics

import (
	"context"

	"github.com/kilianp07/evtariff/core/events"
	coremetrics "github.com/kilianp07/evtariff/core/metrics"
	"github.com/kilianp07/evtariff/infra/logger"
	"github.com/kilianp07/evtariff/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				var err error
				switch e := ev.(type) {
				case events.ResolutionEvent:
					err = sink.RecordResolution(e)
				case events.CacheEvent:
					if r, ok := sink.(coremetrics.CacheRecorder); ok {
						err = r.RecordCacheEvent(e)
					}
				case events.InvalidationEvent:
					if r, ok := sink.(coremetrics.InvalidationRecorder); ok {
						err = r.RecordInvalidation(e)
					}
				}
				if err != nil {
					log.Warnw("metrics sink failed", map[string]any{"event": eventName(ev), "error": err.Error()})
				}
			}
		}
	}()
	return done
}

func eventName(ev eventbus.Event) string {
	switch ev.(type) {
	case events.ResolutionEvent:
		return "resolution"
	case events.CacheEvent:
		return "cache"
	case events.InvalidationEvent:
		return "invalidation"
	}
	return "unknown"
}
