package eventbus

import (
	"slices"
	"sync"
)

// hookSet is an append-only list of callbacks. Callers iterate over a copy so
// a hook may register further hooks without deadlocking.
type hookSet[F any] struct {
	mu  sync.RWMutex
	fns []F
}

func (h *hookSet[F]) add(fn F) {
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func (h *hookSet[F]) each(call func(F)) {
	h.mu.RLock()
	fns := slices.Clone(h.fns)
	h.mu.RUnlock()
	for _, fn := range fns {
		call(fn)
	}
}

type hooks struct {
	publish   hookSet[func(Event, any)]
	drop      hookSet[func(Event, any)]
	subscribe hookSet[func(Event)]
	panicked  hookSet[func(Event, any, any)]
}

// OnPublish registers fn to run after an event is queued for delivery.
func (bus *EventBus) OnPublish(fn func(Event, any)) { bus.hooks.publish.add(fn) }

// OnDrop registers fn to run when an event is discarded because the queue
// is full. Board mutations have already been applied by then.
func (bus *EventBus) OnDrop(fn func(Event, any)) { bus.hooks.drop.add(fn) }

// OnSubscribe registers fn to run after each new subscription.
func (bus *EventBus) OnSubscribe(fn func(Event)) { bus.hooks.subscribe.add(fn) }

// OnPanic registers fn to run with the recovered value when a subscriber
// panics. A panicking hook is ignored.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) { bus.hooks.panicked.add(fn) }

// send queues an event without blocking the mutating caller.
func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		bus.hooks.publish.each(func(fn func(Event, any)) { fn(event, payload) })
	default:
		bus.hooks.drop.each(func(fn func(Event, any)) { fn(event, payload) })
	}
}

func (bus *EventBus) firePanic(event Event, payload any, recovered any) {
	bus.hooks.panicked.each(func(fn func(Event, any, any)) {
		defer func() { _ = recover() }()
		fn(event, payload, recovered)
	})
}
