package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/AnyUserName/bambi-editor/internal/filter"
)

func activeBus(t *testing.T) (*Registry, *Bus) {
	t.Helper()
	r := NewRegistry(nil)
	if err := r.Announce("test"); err != nil {
		t.Fatal(err)
	}
	if err := r.Activate("test"); err != nil {
		t.Fatal(err)
	}
	bus, err := r.Bus()
	if err != nil {
		t.Fatal(err)
	}
	return r, bus
}

func TestBus_DeliveryOrder(t *testing.T) {
	r, bus := activeBus(t)
	defer r.Close()

	var mu sync.Mutex
	var got []int
	r.Subscribe(Subscriber{
		Name: "order",
		OnProgress: func(ev ProgressEvent) {
			mu.Lock()
			got = append(got, ev.Percent)
			mu.Unlock()
		},
	})

	for i := 0; i < 500; i++ {
		bus.Publish(ProgressEvent{Kind: filter.Invert, Phase: PhaseProgress, Percent: i})
	}
	bus.Sync()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 500 {
		t.Fatalf("delivered %d events, want 500", len(got))
	}
	for i, p := range got {
		if p != i {
			t.Fatalf("event %d delivered out of order: %d", i, p)
		}
	}
	if bus.Published() != 501 { // 500 + sync marker
		t.Errorf("published: got %d", bus.Published())
	}
}

func TestBus_CategoryRouting(t *testing.T) {
	r, bus := activeBus(t)
	defer r.Close()

	var queue, progress, model, abort int
	r.Subscribe(Subscriber{
		Name:       "all",
		OnQueue:    func(QueueEvent) { queue++ },
		OnProgress: func(ProgressEvent) { progress++ },
		OnModel:    func(ModelEvent) { model++ },
		OnAbort:    func(AbortEvent) { abort++ },
	})
	r.Subscribe(Subscriber{Name: "model-only", OnModel: func(ModelEvent) { model++ }})

	bus.Publish(QueueEvent{})
	bus.Publish(ProgressEvent{})
	bus.Publish(ModelEvent{Phase: AfterChange})
	bus.Publish(AbortEvent{})
	bus.Sync()

	if queue != 1 || progress != 1 || model != 2 || abort != 1 {
		t.Errorf("queue=%d progress=%d model=%d abort=%d", queue, progress, model, abort)
	}
}

func TestBus_ReentrantPublish(t *testing.T) {
	r, bus := activeBus(t)
	defer r.Close()

	done := make(chan struct{})
	r.Subscribe(Subscriber{
		Name: "reentrant",
		OnAbort: func(AbortEvent) {
			// Publishing from a callback must not deadlock.
			bus.Publish(QueueEvent{Aborted: true})
		},
		OnQueue: func(ev QueueEvent) {
			if ev.Aborted {
				close(done)
			}
		},
	})
	bus.Publish(AbortEvent{})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("re-entrant publish was not delivered")
	}
}

func TestBus_PanickingSubscriber(t *testing.T) {
	r, bus := activeBus(t)
	defer r.Close()

	delivered := make(chan struct{}, 1)
	r.Subscribe(Subscriber{Name: "bad", OnAbort: func(AbortEvent) { panic("boom") }})
	r.Subscribe(Subscriber{Name: "good", OnAbort: func(AbortEvent) { delivered <- struct{}{} }})
	bus.Publish(AbortEvent{})

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("panic in one subscriber blocked the others")
	}
}

func TestProgressEvent_Formatted(t *testing.T) {
	ev := ProgressEvent{Kind: filter.Grayscale, Status: "pass 1"}
	if got := ev.Formatted(); got != "Grayscale: pass 1" {
		t.Errorf("got %q", got)
	}
	ev.Status = ""
	if got := ev.Formatted(); got != "Grayscale" {
		t.Errorf("got %q", got)
	}
}
