package board

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// maxIDAttempts bounds retries when an IDSource returns an id already in use.
const maxIDAttempts = 8

// Store owns a board State and exposes the mutation primitives that keep the
// column sequences and the task map consistent. All methods are safe for
// concurrent use; each mutation and the snapshot persisted after it happen
// inside a single critical section.
type Store struct {
	mu      sync.Mutex
	state   State
	ids     IDSource
	persist *Persistence
	clean   func(string) string
	onSave  func(error)
	log     zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIDSource overrides the task id allocator.
func WithIDSource(src IDSource) Option {
	return func(s *Store) { s.ids = src }
}

// WithPersistence saves a snapshot through p after every successful mutation.
func WithPersistence(p *Persistence) Option {
	return func(s *Store) { s.persist = p }
}

// WithSanitizer filters the component payload of tasks before it is stored.
func WithSanitizer(fn func(string) string) Option {
	return func(s *Store) { s.clean = fn }
}

// OnSaveResult registers a callback invoked after each persistence attempt
// with its error (nil on success).
func OnSaveResult(fn func(error)) Option {
	return func(s *Store) { s.onSave = fn }
}

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a store over a copy of initial. The initial state is
// repaired first so the store never starts from an inconsistent board.
func NewStore(initial State, opts ...Option) *Store {
	s := &Store{
		ids:   NewIDSource(),
		clean: func(v string) string { return v },
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	repaired, problems := Repair(initial)
	for _, p := range problems {
		s.log.Warn().Str("problem", p.String()).Msg("repaired initial board state")
	}
	s.state = repaired
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Task returns a copy of a task record.
func (s *Store) Task(taskID string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.Tasks[taskID]
	return t, ok
}

// ColumnOf returns the column currently holding taskID, derived from the
// column sequences.
func (s *Store) ColumnOf(taskID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ColumnOf(taskID)
}

// CreateTask validates fields, allocates a new id and appends the task to the
// tail of columnID.
func (s *Store) CreateTask(ctx context.Context, columnID string, fields TaskFields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.state.Columns[columnID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidColumn, columnID)
	}

	task, err := s.buildTask(fields)
	if err != nil {
		return "", err
	}

	id, err := s.allocateID()
	if err != nil {
		return "", err
	}
	task.ID = id

	s.state.Tasks[id] = task
	col.TaskIDs = append(col.TaskIDs, id)
	s.state.Columns[columnID] = col

	s.log.Debug().Str("task", id).Str("column", columnID).Msg("task created")
	s.save(ctx)
	return id, nil
}

// UpdateTask merges patch into an existing task. Column membership is not
// affected.
func (s *Store) UpdateTask(ctx context.Context, taskID string, patch TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.state.Tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}

	fields := task.Fields()
	if patch.Content != nil {
		fields.Content = *patch.Content
	}
	if patch.Quadrant != nil {
		fields.Quadrant = *patch.Quadrant
	}
	if patch.Type != nil {
		fields.Type = *patch.Type
	}
	if patch.Component != nil {
		fields.Component = *patch.Component
	}

	updated, err := s.buildTask(fields)
	if err != nil {
		return err
	}
	updated.ID = taskID

	if updated == task {
		return nil
	}

	s.state.Tasks[taskID] = updated
	s.save(ctx)
	return nil
}

// DeleteTask removes a task from its column and from the task map.
func (s *Store) DeleteTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Tasks[taskID]; !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}

	columnID, ok := s.state.ColumnOf(taskID)
	if ok {
		col := s.state.Columns[columnID]
		col.TaskIDs = slices.DeleteFunc(col.TaskIDs, func(id string) bool { return id == taskID })
		s.state.Columns[columnID] = col
	}
	delete(s.state.Tasks, taskID)

	s.log.Debug().Str("task", taskID).Str("column", columnID).Msg("task deleted")
	s.save(ctx)
	return nil
}

// Replace swaps the whole board for a repaired copy of next and returns the
// problems that were fixed on the way in. A record that repairs down to zero
// columns is rejected with ErrNoColumns and the board is left unchanged.
func (s *Store) Replace(ctx context.Context, next State) ([]Problem, error) {
	repaired, problems := Repair(next)
	if len(repaired.ColumnOrder) == 0 {
		return problems, ErrNoColumns
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = repaired
	s.save(ctx)
	return problems, nil
}

// RefreshFrom re-reads the board from p and swaps it in without persisting.
// The read, the comparison and the swap all happen under the store lock so a
// mutation cannot land between them and be overwritten. changed is false when
// the stored record already matches the board.
func (s *Store) RefreshFrom(ctx context.Context, p *Persistence) (problems []Problem, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, problems, err := p.read(ctx)
	if err != nil {
		return nil, false, err
	}
	if next.Equal(s.state) {
		return problems, false, nil
	}

	s.state = next
	return problems, true, nil
}

// Reset replaces the board with an empty one built from layout.
func (s *Store) Reset(ctx context.Context, layout Layout) error {
	_, err := s.Replace(ctx, NewState(layout))
	return err
}

// buildTask normalizes and validates a set of task fields.
func (s *Store) buildTask(f TaskFields) (Task, error) {
	content := strings.TrimSpace(f.Content)
	if content == "" {
		return Task{}, ErrEmptyContent
	}

	quadrant := f.Quadrant
	if quadrant == "" {
		quadrant = DefaultQuadrant
	}
	if !quadrant.IsValid() {
		return Task{}, fmt.Errorf("%w: %q", ErrInvalidQuadrant, quadrant)
	}

	typ := strings.TrimSpace(f.Type)
	if typ == "" {
		typ = DefaultType
	}

	return Task{
		Content:   content,
		Quadrant:  quadrant,
		Type:      typ,
		Component: s.clean(f.Component),
	}, nil
}

func (s *Store) allocateID() (string, error) {
	for range maxIDAttempts {
		id := s.ids()
		if _, taken := s.state.Tasks[id]; id != "" && !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("allocate task id: %d attempts returned ids already in use", maxIDAttempts)
}

// save persists the current state. Failures are logged and reported through
// the save callback; they never fail the mutation that triggered them.
// Callers must hold s.mu.
func (s *Store) save(ctx context.Context) {
	if s.persist == nil {
		return
	}

	err := s.persist.Save(ctx, s.state)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to persist board; continuing in memory")
	}
	if s.onSave != nil {
		s.onSave(err)
	}
}
