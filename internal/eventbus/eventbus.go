// Package eventbus carries resolution, cache and invalidation events between
// the pricing engine and its observers.
package eventbus

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus, an untyped TypedBus whose subscribers
// type-switch on the events they care about.
type Bus struct {
	*TypedBus[Event]
}

var _ EventBus = (*Bus)(nil)

// New creates a new Bus with DefaultBuffer.
func New() *Bus { return &Bus{TypedBus: NewTyped[Event]()} }

// NewWithBuffer creates a Bus whose subscribers buffer n events.
func NewWithBuffer(n int) *Bus { return &Bus{TypedBus: NewTypedWithBuffer[Event](n)} }
