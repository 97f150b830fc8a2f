package logging

import (
	"github.com/rs/zerolog"
)

// ContextHook stamps the board, task and request ids carried by an event's
// context onto the log line. Events logged without Ctx are left alone.
type ContextHook struct{}

// Run implements zerolog.Hook.
func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	sc := fromContext(e.GetCtx())
	if sc.Board != "" {
		e.Str("board", sc.Board)
	}
	if sc.Task != "" {
		e.Str("task", sc.Task)
	}
	if sc.RequestID != "" {
		e.Str("request_id", sc.RequestID)
	}
}
