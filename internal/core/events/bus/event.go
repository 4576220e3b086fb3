package bus

import "time"

// Event is one engine occurrence delivered through the Bus.
//
// Type is the routing key handlers subscribe on, e.g. "unit.moved". Data
// carries the typed payload; consumers assert its concrete type by Type.
// Events are values and must be treated as read-only after publication.
type Event struct {
	Type   string
	Source string
	At     time.Time
	Data   any
	Meta   map[string]string
}

// NewEvent stamps an event with the current time.
func NewEvent(typ, source string, data any) Event {
	return Event{Type: typ, Source: source, At: time.Now(), Data: data}
}

// Handler is a callback invoked per delivered event. Errors returned from
// handlers are aggregated and surfaced to the publisher.
type Handler func(Event) error

// Filter decides whether an event should be delivered. If any filter returns
// false, the event is dropped silently.
type Filter func(Event) bool

// Observer is notified about deliveries. Implementations can export metrics
// or logs; they should return quickly.
type Observer interface {
	OnPublish(topic, eventType string, event Event)
	OnDelivered(topic, eventType string, handlers int, err error, elapsed time.Duration)
}

// Metrics is a small counter set, updated only while at least one observer
// is registered.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
	Topics            uint64
}

// TopicInfo is a snapshot of one topic.
type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}
