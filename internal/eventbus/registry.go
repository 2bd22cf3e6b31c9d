// Package eventbus provides context-scoped publish/subscribe channels.
//
// A context is one top-level UI surface. Each context owns an isolated Bus.
// Surfaces are constructed before they can receive events, so the Registry
// runs a two-phase protocol: Announce marks a context pending, Activate makes
// it current. Subscribers that arrive while no context is active wait in a
// holding set and are attached to the bus of the context that activates next.
//
// State transitions (Announce, Activate) are expected from the interactive
// goroutine only; Publish and Subscribe are safe from any goroutine.
package eventbus

import (
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextID identifies a top-level UI surface.
type ContextID string

// State of the registry.
type State int

const (
	StateIdle State = iota
	StatePending
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	}
	return "unknown"
}

type waiter struct {
	id  SubscriptionID
	sub Subscriber
}

// Registry maps contexts to buses and tracks which one is current.
type Registry struct {
	log logrus.FieldLogger

	mu      sync.Mutex
	current ContextID
	next    ContextID
	buses   map[ContextID]*Bus
	waiting []waiter
	closed  bool
}

// NewRegistry creates an idle registry. A nil logger discards output.
func NewRegistry(log logrus.FieldLogger) *Registry {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Registry{
		log:   log,
		buses: make(map[ContextID]*Bus),
	}
}

// Announce marks ctx as about to become current. Announcing a second,
// different context before the first has been activated is a consistency
// error.
func (r *Registry) Announce(ctx ContextID) error {
	if ctx == "" {
		return &ConsistencyError{Op: "announce", Err: ErrEmptyContext}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return &ConsistencyError{Op: "announce", Context: ctx, Err: ErrClosed}
	}
	if r.next != "" && r.next != ctx {
		return &ConsistencyError{Op: "announce", Context: ctx, Err: ErrContextMismatch}
	}
	r.next = ctx
	r.log.WithField("context", string(ctx)).Debug("preparing new bus")
	return nil
}

// Activate makes ctx current. If a context is pending, ctx must be that
// context. With nothing pending, activating the current context is a no-op
// re-affirmation and activating another known surface switches focus to it.
// Subscribers held while no context was active are attached to the bus of
// ctx and the holding set is cleared.
func (r *Registry) Activate(ctx ContextID) error {
	if ctx == "" {
		return &ConsistencyError{Op: "activate", Err: ErrEmptyContext}
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return &ConsistencyError{Op: "activate", Context: ctx, Err: ErrClosed}
	}
	if r.next != "" && r.next != ctx {
		r.mu.Unlock()
		return &ConsistencyError{Op: "activate", Context: ctx, Err: ErrContextMismatch}
	}
	r.next = ""
	if r.current != ctx {
		r.current = ctx
		r.log.WithField("context", string(ctx)).Debug("switched bus")
	}

	var attached []Subscriber
	var bus *Bus
	if len(r.waiting) > 0 {
		bus = r.busLocked()
		for _, w := range r.waiting {
			r.log.WithFields(logrus.Fields{
				"context":    string(ctx),
				"subscriber": w.sub.Name,
			}).Debug("registering queued subscriber")
			bus.subscribe(w.id, w.sub)
			attached = append(attached, w.sub)
		}
		r.waiting = nil
	}
	r.mu.Unlock()

	for _, s := range attached {
		if s.OnAttach != nil {
			s.OnAttach(bus)
		}
	}
	return nil
}

// State reports the registry state. A pending announcement takes
// precedence over an already active context since publishing is refused
// until the handoff completes.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Registry) stateLocked() State {
	switch {
	case r.next != "":
		return StatePending
	case r.current != "":
		return StateActive
	}
	return StateIdle
}

// Current returns the active context, or "" when none is active.
func (r *Registry) Current() ContextID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stateLocked() != StateActive {
		return ""
	}
	return r.current
}

// Bus returns the bus of the active context, creating it on first use.
func (r *Registry) Bus() (*Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, &ConsistencyError{Op: "bus", Err: ErrClosed}
	}
	if st := r.stateLocked(); st != StateActive {
		return nil, &ConsistencyError{Op: "bus", Context: r.next, Err: ErrNoActiveContext}
	}
	return r.busLocked(), nil
}

func (r *Registry) busLocked() *Bus {
	bus, ok := r.buses[r.current]
	if !ok {
		bus = newBus(r.current, r.log)
		r.buses[r.current] = bus
		r.log.WithField("context", string(r.current)).Debug("created new bus")
	}
	return bus
}

// Publish sends ev on the bus of the active context.
func (r *Registry) Publish(ev Event) error {
	bus, err := r.Bus()
	if err != nil {
		return err
	}
	return bus.Publish(ev)
}

// Subscribe attaches s to the active bus, or holds it until a context is
// activated. s.OnAttach, if set, runs before Subscribe returns in the first
// case and from Activate in the second.
func (r *Registry) Subscribe(s Subscriber) SubscriptionID {
	id := SubscriptionID(uuid.NewString())

	r.mu.Lock()
	if r.closed || r.stateLocked() != StateActive {
		r.waiting = append(r.waiting, waiter{id: id, sub: s})
		r.mu.Unlock()
		r.log.WithField("subscriber", s.Name).Debug("queued")
		return id
	}
	bus := r.busLocked()
	bus.subscribe(id, s)
	r.mu.Unlock()

	r.log.WithField("subscriber", s.Name).Debug("registered")
	if s.OnAttach != nil {
		s.OnAttach(bus)
	}
	return id
}

// Unsubscribe detaches a subscriber wherever it is registered.
func (r *Registry) Unsubscribe(id SubscriptionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.waiting {
		if w.id == id {
			r.waiting = append(r.waiting[:i:i], r.waiting[i+1:]...)
			return true
		}
	}
	for _, bus := range r.buses {
		if bus.unsubscribe(id) {
			return true
		}
	}
	return false
}

// Waiting returns the number of subscribers held for activation.
func (r *Registry) Waiting() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiting)
}

// Close drains and stops every bus. Further use returns ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	buses := make([]*Bus, 0, len(r.buses))
	for _, b := range r.buses {
		buses = append(buses, b)
	}
	r.mu.Unlock()

	for _, b := range buses {
		b.close()
	}
}
