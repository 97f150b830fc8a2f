package logging

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component returns the global logger tagged with name under the "cmp" key.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// ScopedComponent is Component with the board and task carried by ctx fixed
// on every line. Use it for long-lived loggers whose events are not logged
// with Ctx.
func ScopedComponent(ctx context.Context, name string) zerolog.Logger {
	c := log.With().Str("cmp", name)
	sc := fromContext(ctx)
	if sc.Board != "" {
		c = c.Str("board", sc.Board)
	}
	if sc.Task != "" {
		c = c.Str("task", sc.Task)
	}
	return c.Logger()
}
