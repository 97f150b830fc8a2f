// Package taskboard assembles the board services from configuration.
// Commands, the HTTP API and the TUI consume App instead of cherry-picking
// raw dependencies.
package taskboard

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskboard/internal/core/config"
	"github.com/colonyops/taskboard/internal/core/eventbus"
	"github.com/colonyops/taskboard/internal/core/logging"
	"github.com/colonyops/taskboard/internal/core/markup"
)

const busBuffer = 256

// App is the central entry point for all taskboard operations.
type App struct {
	Config  *config.Config
	Bus     *eventbus.EventBus
	Board   *BoardService
	Backend Backend

	log zerolog.Logger
}

// Open connects the configured backend and loads the board named in cfg.
// The event bus is created but not started; see Start.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.Component("app")

	backend, err := OpenBackend(ctx, cfg, logging.Component("store"))
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Storage.Backend, err)
	}

	ctx = logging.WithBoard(ctx, cfg.Board.Name)
	bus := eventbus.New(busBuffer)
	eventbus.LogActivity(bus, logging.ScopedComponent(ctx, "events"))

	svc := NewBoardService(ctx, backend.Slot(cfg.Board.Name), BoardOptions{
		Name:     cfg.Board.Name,
		Layout:   cfg.Board.Columns,
		Sanitize: markup.NewSanitizer(cfg.Markup.Policy).Sanitize,
	}, bus, logging.Component("board"))

	log.Debug().
		Str("backend", string(backend.Name())).
		Str("board", cfg.Board.Name).
		Msg("board opened")

	return &App{
		Config:  cfg,
		Bus:     bus,
		Board:   svc,
		Backend: backend,
		log:     log,
	}, nil
}

// Start runs the event bus and, when watching is enabled and the backend can
// detect external writes, keeps the board in sync with them. Both stop when
// ctx is done.
func (a *App) Start(ctx context.Context) error {
	go a.Bus.Start(ctx)

	if !a.Config.Watch {
		return nil
	}

	changes, err := a.Backend.Watch(ctx, a.Board.Name())
	if err != nil {
		return fmt.Errorf("watch board: %w", err)
	}
	if changes == nil {
		a.log.Debug().Str("backend", string(a.Backend.Name())).Msg("backend cannot detect external writes")
		return nil
	}

	go a.Board.Follow(ctx, changes, string(a.Backend.Name()))
	return nil
}

// Close releases the backend.
func (a *App) Close() error {
	return a.Backend.Close()
}
