// Package queue serialises filter execution. At most one operation is in
// flight; the rest wait in FIFO order and are started one by one as each
// finishes.
package queue

import (
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/AnyUserName/bambi-editor/internal/eventbus"
	"github.com/AnyUserName/bambi-editor/internal/filter"
)

// ErrNoRegistry is returned by New when Config.Registry is nil.
var ErrNoRegistry = errors.New("queue: registry is required")

// Handle starts execution of one operation. Start must not block on the
// pixel work; the executor reports completion with an AfterChange event.
type Handle interface {
	Start()
}

// Dropper is implemented by handles that want to know when their operation
// is discarded without running, because a newer one replaced it or the
// queue was aborted. Dropped is called with the queue locked; it must not
// block or call back into the queue.
type Dropper interface {
	Dropped()
}

func notifyDropped(h Handle) {
	if d, ok := h.(Dropper); ok {
		d.Dropped()
	}
}

// HandleFunc adapts a function to Handle.
type HandleFunc func()

func (f HandleFunc) Start() { f() }

// Config configures a Queue.
type Config struct {
	Registry *eventbus.Registry
	Logger   logrus.FieldLogger
	// Icons resolves the toolbar icon of a kind. Defaults to filter.Icon.
	Icons func(filter.Kind) (string, bool)
}

type entry struct {
	op   filter.Operation
	h    Handle
	item eventbus.QueueItem
}

func (e entry) id() string { return e.op.ID() }

// Queue is the filter scheduler of one editor context.
type Queue struct {
	reg   *eventbus.Registry
	log   logrus.FieldLogger
	icons func(filter.Kind) (string, bool)
	sub   eventbus.SubscriptionID

	mu       sync.Mutex
	bus      *eventbus.Bus
	pending  []entry
	inflight *entry
}

// New creates a queue and subscribes it to the registry. When no context is
// active yet the subscription is held until one is activated. The queue
// publishes on the bus its subscription is attached to, so it always hears
// the completions of the work it starts.
func New(cfg Config) (*Queue, error) {
	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	icons := cfg.Icons
	if icons == nil {
		icons = filter.Icon
	}
	q := &Queue{
		reg:   cfg.Registry,
		log:   log.WithField("component", "queue"),
		icons: icons,
	}
	q.sub = cfg.Registry.Subscribe(eventbus.Subscriber{
		Name:     "filter-queue",
		OnModel:  q.onModel,
		OnAbort:  q.onAbort,
		OnAttach: q.attach,
	})
	return q, nil
}

// Submit runs op immediately when the queue is idle, otherwise appends it.
// A queued operation on the same red, green or blue channel is replaced.
func (q *Queue) Submit(op filter.Operation, h Handle) error {
	return q.submit(op, h, false)
}

// SubmitFirst is Submit without coalescing, placing op at the head of the
// waiting list. Used for reloads, which must not wait behind stale work.
func (q *Queue) SubmitFirst(op filter.Operation, h Handle) error {
	return q.submit(op, h, true)
}

func (q *Queue) submit(op filter.Operation, h Handle, first bool) error {
	e := q.newEntry(op, h)
	log := q.log.WithFields(logrus.Fields{"op": op.Kind().Name(), "entry": e.id()})

	q.mu.Lock()
	bus, err := q.busLocked()
	if err != nil {
		q.mu.Unlock()
		return err
	}

	if len(q.pending) == 0 && q.inflight == nil {
		q.inflight = &e
		err = bus.Publish(eventbus.QueueEvent{Items: []eventbus.QueueItem{e.item}})
		q.mu.Unlock()
		if err != nil {
			return err
		}
		log.Debug("starting immediately")
		h.Start()
		return nil
	}

	switch {
	case first:
		q.pending = append([]entry{e}, q.pending...)
	default:
		if op.Kind().IsChannel() {
			q.dropStaleLocked(op.Kind(), log)
		}
		q.pending = append(q.pending, e)
	}
	err = bus.Publish(eventbus.QueueEvent{Items: q.itemsLocked()})
	log.WithField("queued", len(q.pending)).Debug("queued")
	q.mu.Unlock()
	return err
}

// dropStaleLocked removes a waiting operation on the same channel. An entry
// that rebases the adjustment reference is kept since the newer one relies
// on that baseline.
func (q *Queue) dropStaleLocked(k filter.Kind, log logrus.FieldLogger) {
	for i, p := range q.pending {
		if p.op.Kind() != k || p.op.Rebase() {
			continue
		}
		q.pending = append(q.pending[:i:i], q.pending[i+1:]...)
		notifyDropped(p.h)
		log.WithField("replaced", p.id()).Debug("coalesced channel adjustment")
		return
	}
}

// Abort drops everything that has not started yet and returns the ids of
// the dropped operations. The in-flight operation, if any, runs to
// completion. An AbortEvent published on the bus has the same effect.
func (q *Queue) Abort() ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	bus, err := q.busLocked()
	if err != nil {
		return nil, err
	}
	return q.drainLocked(bus), nil
}

// Len returns the number of operations waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Idle reports whether nothing is running or waiting.
func (q *Queue) Idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight == nil && len(q.pending) == 0
}

// InFlight returns the running operation's item.
func (q *Queue) InFlight() (eventbus.QueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.inflight == nil {
		return eventbus.QueueItem{}, false
	}
	return q.inflight.item, true
}

// Snapshot returns the in-flight item followed by the waiting ones.
func (q *Queue) Snapshot() []eventbus.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.itemsLocked()
}

// Bus returns the bus the queue is bound to. Executors must report on it.
func (q *Queue) Bus() (*eventbus.Bus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.busLocked()
}

// Close detaches the queue from the registry.
func (q *Queue) Close() {
	q.reg.Unsubscribe(q.sub)
}

func (q *Queue) onModel(ev eventbus.ModelEvent) {
	if ev.Phase != eventbus.AfterChange {
		return
	}

	q.mu.Lock()
	bus, err := q.busLocked()
	if err != nil {
		q.mu.Unlock()
		q.log.WithError(err).Error("advance")
		return
	}
	if len(q.pending) == 0 {
		q.inflight = nil
		err = bus.Publish(eventbus.QueueEvent{})
		q.mu.Unlock()
		if err != nil {
			q.log.WithError(err).Error("publish idle state")
		}
		return
	}

	next := q.pending[0]
	q.pending[0] = entry{}
	q.pending = q.pending[1:]
	q.inflight = &next
	err = bus.Publish(eventbus.QueueEvent{Items: q.itemsLocked()})
	remaining := len(q.pending)
	q.mu.Unlock()
	if err != nil {
		q.log.WithError(err).Error("publish queue state")
	}

	q.log.WithFields(logrus.Fields{
		"op":     next.op.Kind().Name(),
		"entry":  next.id(),
		"queued": remaining,
	}).Debug("starting next")
	next.h.Start()
}

func (q *Queue) onAbort(eventbus.AbortEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	bus, err := q.busLocked()
	if err != nil {
		q.log.WithError(err).Error("abort")
		return
	}
	q.drainLocked(bus)
}

// drainLocked publishes the aborted state and empties the waiting list.
func (q *Queue) drainLocked(bus *eventbus.Bus) []string {
	if err := bus.Publish(eventbus.QueueEvent{Items: q.itemsLocked(), Aborted: true}); err != nil {
		q.log.WithError(err).Error("publish aborted state")
	}
	q.log.WithField("queued", len(q.pending)).Info("aborted pending filters")
	dropped := make([]string, len(q.pending))
	for i := range q.pending {
		dropped[i] = q.pending[i].id()
		notifyDropped(q.pending[i].h)
		q.pending[i] = entry{}
	}
	q.pending = q.pending[:0]
	return dropped
}

// attach binds the queue to the bus its subscription landed on. The first
// binding sticks, so the queue stays with the context it started in.
func (q *Queue) attach(bus *eventbus.Bus) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.bus == nil {
		q.bus = bus
		q.log.WithField("context", string(bus.Context())).Debug("bound to bus")
	}
}

func (q *Queue) busLocked() (*eventbus.Bus, error) {
	if q.bus == nil {
		return nil, &eventbus.ConsistencyError{Op: "queue", Err: eventbus.ErrNoActiveContext}
	}
	return q.bus, nil
}

func (q *Queue) itemsLocked() []eventbus.QueueItem {
	items := make([]eventbus.QueueItem, 0, len(q.pending)+1)
	if q.inflight != nil {
		items = append(items, q.inflight.item)
	}
	for _, p := range q.pending {
		items = append(items, p.item)
	}
	return items
}

func (q *Queue) newEntry(op filter.Operation, h Handle) entry {
	e := entry{
		op: op,
		h:  h,
		item: eventbus.QueueItem{
			ID:      op.ID(),
			Kind:    op.Kind(),
			Display: op.Display(),
		},
	}
	icon, ok := q.icons(op.Kind())
	if !ok {
		q.log.WithFields(logrus.Fields{
			"op":    op.Kind().Name(),
			"entry": e.id(),
		}).Warn("no icon for operation")
	}
	e.item.Icon = icon
	return e
}
