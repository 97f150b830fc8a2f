package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus delivers published events to subscribers on a single dispatch
// goroutine. Publishing never blocks; events are dropped when the buffer is
// full.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates a bus with the given buffer size. Call Start to begin delivery.
func New(buffer int) *EventBus {
	if buffer < 1 {
		buffer = 1
	}
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.firePanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
	bus.hooks.subscribe.each(func(fn func(Event)) { fn(event) })
}

func (bus *EventBus) PublishTaskCreated(p TaskCreatedPayload) { bus.send(EventTaskCreated, p) }

func (bus *EventBus) SubscribeTaskCreated(fn func(TaskCreatedPayload)) {
	bus.subscribe(EventTaskCreated, func(v any) { fn(v.(TaskCreatedPayload)) })
}

func (bus *EventBus) PublishTaskUpdated(p TaskUpdatedPayload) { bus.send(EventTaskUpdated, p) }

func (bus *EventBus) SubscribeTaskUpdated(fn func(TaskUpdatedPayload)) {
	bus.subscribe(EventTaskUpdated, func(v any) { fn(v.(TaskUpdatedPayload)) })
}

func (bus *EventBus) PublishTaskDeleted(p TaskDeletedPayload) { bus.send(EventTaskDeleted, p) }

func (bus *EventBus) SubscribeTaskDeleted(fn func(TaskDeletedPayload)) {
	bus.subscribe(EventTaskDeleted, func(v any) { fn(v.(TaskDeletedPayload)) })
}

func (bus *EventBus) PublishTaskMoved(p TaskMovedPayload) { bus.send(EventTaskMoved, p) }

func (bus *EventBus) SubscribeTaskMoved(fn func(TaskMovedPayload)) {
	bus.subscribe(EventTaskMoved, func(v any) { fn(v.(TaskMovedPayload)) })
}

func (bus *EventBus) PublishBoardReplaced(p BoardReplacedPayload) { bus.send(EventBoardReplaced, p) }

func (bus *EventBus) SubscribeBoardReplaced(fn func(BoardReplacedPayload)) {
	bus.subscribe(EventBoardReplaced, func(v any) { fn(v.(BoardReplacedPayload)) })
}

func (bus *EventBus) PublishBoardReloaded(p BoardReloadedPayload) { bus.send(EventBoardReloaded, p) }

func (bus *EventBus) SubscribeBoardReloaded(fn func(BoardReloadedPayload)) {
	bus.subscribe(EventBoardReloaded, func(v any) { fn(v.(BoardReloadedPayload)) })
}

func (bus *EventBus) PublishBoardSaveFailed(p BoardSaveFailedPayload) {
	bus.send(EventBoardSaveFailed, p)
}

func (bus *EventBus) SubscribeBoardSaveFailed(fn func(BoardSaveFailedPayload)) {
	bus.subscribe(EventBoardSaveFailed, func(v any) { fn(v.(BoardSaveFailedPayload)) })
}

// SubscribeAll registers fn for every event kind.
func (bus *EventBus) SubscribeAll(fn func(Event, any)) {
	for _, event := range Events {
		bus.subscribe(event, func(v any) { fn(event, v) })
	}
}
