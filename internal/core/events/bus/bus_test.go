package bus

import (
	"errors"
	"testing"
	"time"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_, _ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_, _ string, handlers int, err error, _ time.Duration) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	called := 0
	b.Subscribe("unit.moved", func(e Event) error {
		called++
		if e.Source != "battle" {
			t.Errorf("source = %q", e.Source)
		}
		return nil
	})
	if err := b.Publish(NewEvent("unit.moved", "battle", 123)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if called != 1 {
		t.Fatalf("handler called %d times", called)
	}
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	e1 := errors.New("first")
	e2 := errors.New("second")
	b.Subscribe("x", func(Event) error { return e1 })
	b.Subscribe("x", func(Event) error { return e2 })
	err := b.Publish(NewEvent("x", "t", nil))
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("joined error missing a cause: %v", err)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	called := 0
	sub := b.Subscribe("x", func(Event) error { called++; return nil })
	_ = b.Publish(NewEvent("x", "t", nil))
	sub.Cancel()
	sub.Cancel() // repeat is safe
	_ = b.Publish(NewEvent("x", "t", nil))
	if called != 1 {
		t.Fatalf("handler called %d times after cancel", called)
	}
	if sub.IsActive() {
		t.Fatal("cancelled subscription still active")
	}
}

func TestPublishAsyncReturnsErrorChannel(t *testing.T) {
	b := New()
	handlerErr := errors.New("fail")
	b.Subscribe("x", func(Event) error { return handlerErr })
	select {
	case err := <-b.PublishAsync(NewEvent("x", "t", nil)):
		if !errors.Is(err, handlerErr) {
			t.Fatalf("got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("async publish never completed")
	}
}

func TestTopicsIsolation(t *testing.T) {
	b := New()
	b.CreateTopic("battle-1")
	b.CreateTopic("battle-2")
	count1, count2 := 0, 0
	b.SubscribeTopic("battle-1", "unit.moved", func(Event) error { count1++; return nil })
	b.SubscribeTopic("battle-2", "unit.moved", func(Event) error { count2++; return nil })
	_ = b.PublishToTopic("battle-1", NewEvent("unit.moved", "battle", nil))
	if count1 != 1 || count2 != 0 {
		t.Fatalf("topic isolation failed: %d %d", count1, count2)
	}
}

func TestFiltersDropSilently(t *testing.T) {
	b := New()
	called := false
	b.Subscribe("x", func(Event) error { called = true; return nil })
	reject := func(Event) bool { return false }
	if err := b.PublishFiltered(NewEvent("x", "t", nil), reject); err != nil {
		t.Fatalf("dropped publish returned error: %v", err)
	}
	if called {
		t.Fatal("handler called for a filtered event")
	}
}

func TestPublishBatchAggregates(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	b.Subscribe("bad", func(Event) error { return boom })
	good := 0
	b.Subscribe("good", func(Event) error { good++; return nil })
	err := b.PublishBatch(
		NewEvent("good", "t", nil),
		NewEvent("bad", "t", nil),
		NewEvent("good", "t", nil),
	)
	if !errors.Is(err, boom) {
		t.Fatalf("batch error = %v", err)
	}
	if good != 2 {
		t.Fatalf("good handler called %d times", good)
	}
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	b.Subscribe("e", func(Event) error { return nil })
	_ = b.Publish(NewEvent("e", "t", nil))
	if m := b.GetMetrics(); m.Published != 0 {
		t.Fatalf("metrics should stay zero without observers: %+v", m)
	}

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "t", nil))
	m := b.GetMetrics()
	if m.Published == 0 || m.DeliveredHandlers == 0 {
		t.Fatalf("metrics should update with observer: %+v", m)
	}
	if obs.publishCount == 0 || obs.deliveredCount == 0 {
		t.Fatalf("observer not called: %+v", obs)
	}

	b.RemoveObserver(obs)
	before := b.GetMetrics().Published
	_ = b.Publish(NewEvent("e", "t", nil))
	if after := b.GetMetrics().Published; after != before {
		t.Fatalf("metrics advanced without observers: %d -> %d", before, after)
	}
}

func TestGetTopics(t *testing.T) {
	b := New()
	b.CreateTopic("battle-9")
	b.SubscribeTopic("battle-9", "phase.changed", func(Event) error { return nil })
	found := false
	for _, ti := range b.GetTopics() {
		if ti.Name == "battle-9" {
			found = true
			if ti.EventTypes != 1 || ti.Subs != 1 {
				t.Fatalf("topic snapshot %+v", ti)
			}
		}
	}
	if !found {
		t.Fatal("declared topic missing from snapshot")
	}
}
