package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Bus is a thread-safe in-process pub/sub fan-out for engine events.
//
// Handlers subscribe by event type, optionally inside a topic; the server
// gives every battle its own topic so spectators of one game never hear
// another. Delivery is synchronous in the publisher's goroutine, so handlers
// must be quick or offload. Handler errors are joined and returned to the
// publisher. Metrics are collected only while an observer is registered.
type Bus struct {
	mu sync.RWMutex
	// topic -> event type -> subscription id
	handlers  map[string]map[string]map[uuid.UUID]*Subscription
	topics    map[string]struct{}
	metrics   Metrics
	observers map[Observer]struct{}
}

// New returns an empty bus. The default topic "" always exists.
func New() *Bus {
	return &Bus{
		handlers:  make(map[string]map[string]map[uuid.UUID]*Subscription),
		topics:    map[string]struct{}{"": {}},
		observers: make(map[Observer]struct{}),
	}
}

// Subscription is a registered handler bound to one event type. Cancel it to
// stop receiving events; cancelling twice is safe.
type Subscription struct {
	id        uuid.UUID
	topic     string
	eventType string
	handler   Handler
	active    bool
	cancel    func()
}

func (s *Subscription) ID() uuid.UUID     { return s.id }
func (s *Subscription) EventType() string { return s.eventType }

// IsActive reports whether the subscription still receives events.
func (s *Subscription) IsActive() bool {
	if s == nil {
		return false
	}
	return s.active
}

// Cancel de-registers the handler. Safe to call repeatedly.
func (s *Subscription) Cancel() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// CreateTopic declares a topic. Repeat declarations are idempotent.
func (b *Bus) CreateTopic(name string) {
	b.mu.Lock()
	b.ensureTopicLocked(name)
	b.mu.Unlock()
}

// Subscribe registers a handler for eventType in the default topic.
func (b *Bus) Subscribe(eventType string, handler Handler) *Subscription {
	return b.SubscribeTopic("", eventType, handler)
}

// SubscribeTopic registers a handler for eventType within topic, creating the
// topic as needed.
func (b *Bus) SubscribeTopic(topic, eventType string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureTopicLocked(topic)
	if b.handlers[topic][eventType] == nil {
		b.handlers[topic][eventType] = make(map[uuid.UUID]*Subscription)
	}
	s := &Subscription{id: uuid.New(), topic: topic, eventType: eventType, handler: handler, active: true}
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if m, ok := b.handlers[topic][eventType]; ok {
			delete(m, s.id)
		}
		s.active = false
	}
	b.handlers[topic][eventType][s.id] = s
	return s
}

// Publish delivers the event synchronously to subscribers of event.Type in
// the default topic.
func (b *Bus) Publish(event Event) error {
	return b.deliver("", event)
}

// PublishToTopic delivers the event within one topic only.
func (b *Bus) PublishToTopic(topic string, event Event) error {
	return b.deliver(topic, event)
}

// PublishFiltered applies filters before delivery; a rejecting filter drops
// the event without error.
func (b *Bus) PublishFiltered(event Event, filters ...Filter) error {
	for _, f := range filters {
		if !f(event) {
			b.mu.Lock()
			if len(b.observers) > 0 {
				b.metrics.DroppedByFilters++
			}
			b.mu.Unlock()
			return nil
		}
	}
	return b.Publish(event)
}

// PublishAsync publishes from a separate goroutine. The returned channel
// receives the joined delivery error (or nil) and is then closed.
func (b *Bus) PublishAsync(event Event) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- b.Publish(event)
		close(ch)
	}()
	return ch
}

// PublishBatch publishes events in order and aggregates their errors.
func (b *Bus) PublishBatch(events ...Event) error {
	var all error
	for _, e := range events {
		if err := b.Publish(e); err != nil {
			all = errors.Join(all, err)
		}
	}
	return all
}

// AddObserver registers an observer; metrics collection starts with the
// first one.
func (b *Bus) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

// RemoveObserver unregisters a previously added observer.
func (b *Bus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

// GetMetrics returns a best-effort counter snapshot.
func (b *Bus) GetMetrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

// GetTopics returns a snapshot of known topics.
func (b *Bus) GetTopics() []TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TopicInfo, 0, len(b.topics))
	for name := range b.topics {
		info := TopicInfo{Name: name}
		if hm := b.handlers[name]; hm != nil {
			info.EventTypes = len(hm)
			for _, m := range hm {
				info.Subs += len(m)
			}
		}
		out = append(out, info)
	}
	return out
}

func (b *Bus) ensureTopicLocked(topic string) {
	b.topics[topic] = struct{}{}
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[string]map[uuid.UUID]*Subscription)
	}
}

func (b *Bus) deliver(topic string, event Event) error {
	start := time.Now()
	b.mu.RLock()
	var subs []*Subscription
	if inner := b.handlers[topic]; inner != nil {
		if m := inner[event.Type]; m != nil {
			subs = make([]*Subscription, 0, len(m))
			for _, s := range m {
				subs = append(subs, s)
			}
		}
	}
	obsCount := len(b.observers)
	b.mu.RUnlock()

	if obsCount > 0 {
		for obs := range b.observers {
			obs.OnPublish(topic, event.Type, event)
		}
	}

	var all error
	for _, s := range subs {
		if !s.active {
			continue
		}
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	if obsCount > 0 {
		elapsed := time.Since(start)
		for obs := range b.observers {
			obs.OnDelivered(topic, event.Type, len(subs), all, elapsed)
		}
		b.mu.Lock()
		b.metrics.Published++
		b.metrics.DeliveredHandlers += uint64(len(subs))
		if all != nil {
			b.metrics.Errors++
		}
		b.metrics.Topics = uint64(len(b.topics))
		var active uint64
		for _, et := range b.handlers {
			for _, m := range et {
				active += uint64(len(m))
			}
		}
		b.metrics.SubscribersActive = active
		b.mu.Unlock()
	}
	return all
}
