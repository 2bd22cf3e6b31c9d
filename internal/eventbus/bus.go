package eventbus

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// SubscriptionID identifies a registered subscriber.
type SubscriptionID string

// Subscriber bundles the callbacks of one listener. Nil callbacks are
// skipped. Callbacks run on the bus dispatcher goroutine, one event at a
// time, in publish order; they may call back into the core freely.
//
// OnAttach is the exception: it runs once, on the goroutine that attached
// the subscriber (Subscribe or Activate), with the bus the subscriber now
// listens on.
type Subscriber struct {
	Name       string
	OnQueue    func(QueueEvent)
	OnProgress func(ProgressEvent)
	OnModel    func(ModelEvent)
	OnAbort    func(AbortEvent)
	OnAttach   func(*Bus)
}

type subscription struct {
	id  SubscriptionID
	sub Subscriber
}

// Bus is the event channel of one context. Publish never blocks: events are
// appended to an unbounded FIFO drained by a single dispatcher goroutine.
type Bus struct {
	ctx ContextID
	log logrus.FieldLogger

	mu        sync.Mutex
	cond      *sync.Cond
	pending   []Event
	subs      []subscription
	closed    bool
	published uint64

	done chan struct{}
}

func newBus(ctx ContextID, log logrus.FieldLogger) *Bus {
	b := &Bus{
		ctx:  ctx,
		log:  log.WithField("context", string(ctx)),
		done: make(chan struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.run()
	return b
}

// Context returns the context the bus belongs to.
func (b *Bus) Context() ContextID { return b.ctx }

// Publish queues ev for delivery to every subscriber.
func (b *Bus) Publish(ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return &ConsistencyError{Op: "publish", Context: b.ctx, Err: ErrClosed}
	}
	b.pending = append(b.pending, ev)
	b.published++
	b.cond.Signal()
	return nil
}

// Sync blocks until every event published before the call has been
// delivered. It must not be called from a subscriber callback.
func (b *Bus) Sync() {
	done := make(chan struct{})
	if err := b.Publish(syncEvent{done: done}); err != nil {
		return
	}
	<-done
}

// Published returns the number of events accepted so far.
func (b *Bus) Published() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) subscribe(id SubscriptionID, s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{id: id, sub: s})
}

func (b *Bus) unsubscribe(id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// close stops accepting events, waits for the FIFO to drain, then returns.
func (b *Bus) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	b.cond.Broadcast()
	b.mu.Unlock()
	<-b.done
}

func (b *Bus) run() {
	defer close(b.done)
	for {
		b.mu.Lock()
		for len(b.pending) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.pending) == 0 {
			b.mu.Unlock()
			return
		}
		ev := b.pending[0]
		b.pending[0] = nil
		b.pending = b.pending[1:]
		subs := b.subs
		b.mu.Unlock()

		b.dispatch(ev, subs)
	}
}

func (b *Bus) dispatch(ev Event, subs []subscription) {
	if s, ok := ev.(syncEvent); ok {
		close(s.done)
		return
	}
	for _, s := range subs {
		b.deliver(s.sub, ev)
	}
}

func (b *Bus) deliver(s Subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"subscriber": s.Name,
				"event":      fmt.Sprintf("%T", ev),
			}).Errorf("subscriber panicked: %v", r)
		}
	}()

	switch e := ev.(type) {
	case QueueEvent:
		if s.OnQueue != nil {
			s.OnQueue(e)
		}
	case ProgressEvent:
		if s.OnProgress != nil {
			s.OnProgress(e)
		}
	case ModelEvent:
		if s.OnModel != nil {
			s.OnModel(e)
		}
	case AbortEvent:
		if s.OnAbort != nil {
			s.OnAbort(e)
		}
	}
}
