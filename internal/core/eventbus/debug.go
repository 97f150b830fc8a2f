package eventbus

import (
	"github.com/rs/zerolog"
)

// LogActivity logs bus traffic through logger. Published events go out at
// debug level with the task and columns they touch. Failed saves and
// subscriber panics are errors, and events dropped on a full queue are warnings.
func LogActivity(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		e := logger.Debug()
		if p, ok := payload.(BoardSaveFailedPayload); ok {
			e = logger.Error().Err(p.Err)
		}
		describe(e, event, payload).Msg("board event")
	})

	bus.OnDrop(func(event Event, payload any) {
		describe(logger.Warn(), event, payload).Msg("board event dropped, queue full")
	})

	bus.OnPanic(func(event Event, payload any, recovered any) {
		describe(logger.Error(), event, payload).
			Interface("panic", recovered).
			Msg("event subscriber panicked")
	})
}

// describe adds the ids a payload refers to.
func describe(e *zerolog.Event, event Event, payload any) *zerolog.Event {
	e = e.Str("event", string(event))
	switch p := payload.(type) {
	case TaskCreatedPayload:
		e = e.Str("task", p.Task.ID).Str("column", p.Column)
	case TaskUpdatedPayload:
		e = e.Str("task", p.Task.ID)
	case TaskDeletedPayload:
		e = e.Str("task", p.TaskID).Str("column", p.Column)
	case TaskMovedPayload:
		e = e.Str("task", p.Move.TaskID).
			Str("from", p.From).
			Str("to", p.Move.Target).
			Int("index", p.Index)
	case BoardReplacedPayload:
		e = e.Int("repaired", len(p.Problems))
	case BoardReloadedPayload:
		e = e.Str("source", p.Source)
	}
	return e
}
