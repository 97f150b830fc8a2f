package taskboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/eventbus"
)

// BoardService wraps a board.Store bound to one named board. Every mutation
// that changes the board is published on the event bus.
type BoardService struct {
	name    string
	layout  board.Layout
	store   *board.Store
	persist *board.Persistence
	bus     *eventbus.EventBus
	log     zerolog.Logger
}

var (
	_ board.TaskStore = (*BoardService)(nil)
	_ board.Mover     = (*BoardService)(nil)
)

// BoardOptions configures NewBoardService.
type BoardOptions struct {
	Name     string
	Layout   board.Layout
	Sanitize func(string) string
	IDs      board.IDSource // nil uses board.NewIDSource
}

// NewBoardService loads the board from slot, falling back to an empty board
// built from opts.Layout, and returns a service over it.
func NewBoardService(ctx context.Context, slot board.Slot, opts BoardOptions, bus *eventbus.EventBus, log zerolog.Logger) *BoardService {
	log = log.With().Str("board", opts.Name).Logger()
	s := &BoardService{
		name:    opts.Name,
		layout:  opts.Layout,
		persist: board.NewPersistence(slot, opts.Layout, log),
		bus:     bus,
		log:     log,
	}

	storeOpts := []board.Option{
		board.WithPersistence(s.persist),
		board.WithLogger(log),
		board.OnSaveResult(s.onSave),
	}
	if opts.Sanitize != nil {
		storeOpts = append(storeOpts, board.WithSanitizer(opts.Sanitize))
	}
	if opts.IDs != nil {
		storeOpts = append(storeOpts, board.WithIDSource(opts.IDs))
	}

	s.store = board.NewStore(s.persist.Load(ctx), storeOpts...)
	return s
}

func (s *BoardService) onSave(err error) {
	if err != nil {
		s.bus.PublishBoardSaveFailed(eventbus.BoardSaveFailedPayload{Board: s.name, Err: err})
	}
}

// Name returns the board name.
func (s *BoardService) Name() string { return s.name }

// Snapshot returns a deep copy of the board.
func (s *BoardService) Snapshot() board.State { return s.store.Snapshot() }

// Task returns a copy of a task record.
func (s *BoardService) Task(taskID string) (board.Task, bool) { return s.store.Task(taskID) }

// ColumnOf returns the column currently holding taskID.
func (s *BoardService) ColumnOf(taskID string) (string, bool) { return s.store.ColumnOf(taskID) }

// CreateTask appends a new task to the tail of columnID.
func (s *BoardService) CreateTask(ctx context.Context, columnID string, fields board.TaskFields) (string, error) {
	id, err := s.store.CreateTask(ctx, columnID, fields)
	if err != nil {
		return "", err
	}
	task, _ := s.store.Task(id)
	s.bus.PublishTaskCreated(eventbus.TaskCreatedPayload{Board: s.name, Task: task, Column: columnID})
	return id, nil
}

// UpdateTask merges patch into an existing task.
func (s *BoardService) UpdateTask(ctx context.Context, taskID string, patch board.TaskPatch) error {
	before, _ := s.store.Task(taskID)
	if err := s.store.UpdateTask(ctx, taskID, patch); err != nil {
		return err
	}
	task, ok := s.store.Task(taskID)
	if ok && task != before {
		s.bus.PublishTaskUpdated(eventbus.TaskUpdatedPayload{Board: s.name, Task: task})
	}
	return nil
}

// DeleteTask removes a task from the board.
func (s *BoardService) DeleteTask(ctx context.Context, taskID string) error {
	column, _ := s.store.ColumnOf(taskID)
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	s.bus.PublishTaskDeleted(eventbus.TaskDeletedPayload{Board: s.name, TaskID: taskID, Column: column})
	return nil
}

// Move relocates a task and reports whether the board changed.
func (s *BoardService) Move(ctx context.Context, m board.Move) (bool, error) {
	res, err := s.store.Relocate(ctx, m)
	if err != nil || !res.Moved {
		return res.Moved, err
	}
	s.bus.PublishTaskMoved(eventbus.TaskMovedPayload{Board: s.name, Move: m, From: res.From, Index: res.Index})
	return true, nil
}

// Import replaces the whole board with a repaired copy of next. A record with
// no usable column is rejected and the board is left as it was.
func (s *BoardService) Import(ctx context.Context, next board.State) ([]board.Problem, error) {
	problems, err := s.store.Replace(ctx, next)
	if err != nil {
		return problems, fmt.Errorf("import board %s: %w", s.name, err)
	}
	s.bus.PublishBoardReplaced(eventbus.BoardReplacedPayload{Board: s.name, Problems: problems})
	return problems, nil
}

// Reset replaces the board with an empty one built from the configured layout.
func (s *BoardService) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx, s.layout); err != nil {
		return fmt.Errorf("reset board %s: %w", s.name, err)
	}
	s.bus.PublishBoardReplaced(eventbus.BoardReplacedPayload{Board: s.name})
	return nil
}

// Check reports what Repair would fix in the stored record without changing
// it. An empty slot has no problems.
func (s *BoardService) Check(ctx context.Context) ([]board.Problem, error) {
	problems, err := s.persist.Inspect(ctx)
	if errors.Is(err, board.ErrNoState) {
		return nil, nil
	}
	return problems, err
}

// Reload replaces the in-memory board with the stored record. The record is
// not written back. An unusable record leaves the board untouched.
func (s *BoardService) Reload(ctx context.Context, source string) error {
	problems, changed, err := s.store.RefreshFrom(ctx, s.persist)
	if err != nil {
		return fmt.Errorf("reload board %s: %w", s.name, err)
	}
	for _, prob := range problems {
		s.log.Warn().Str("problem", prob.String()).Msg("repaired stored board")
	}
	if !changed {
		return nil
	}

	s.log.Info().Str("source", source).Msg("board reloaded")
	s.bus.PublishBoardReloaded(eventbus.BoardReloadedPayload{Board: s.name, Source: source})
	return nil
}

// Follow reloads the board every time changes delivers a value, until the
// channel closes or ctx is done.
func (s *BoardService) Follow(ctx context.Context, changes <-chan struct{}, source string) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := s.Reload(ctx, source); err != nil {
				s.log.Warn().Err(err).Msg("ignoring external change")
			}
		}
	}
}
