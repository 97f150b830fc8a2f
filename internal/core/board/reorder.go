package board

import (
	"context"
	"fmt"
	"slices"
)

// Move describes a single relocation produced by a drag gesture.
type Move struct {
	TaskID string // task being dragged
	Source string // column captured when the drag started
	Target string // column under the pointer; empty when outside every drop zone
	Anchor string // task under the pointer; the dragged task is inserted before it
}

// IsNoop reports whether the move is a no-op before the board is consulted.
func (m Move) IsNoop() bool {
	switch {
	case m.Target == "":
		return true
	case m.Source == m.Target && m.Anchor == "":
		return true
	case m.Anchor != "" && m.Anchor == m.TaskID:
		return true
	}
	return false
}

// MoveResult describes the outcome of a Relocate.
type MoveResult struct {
	Moved bool
	From  string // column the task was actually taken from
	Index int    // position in the target column
}

// Move relocates a task in one atomic step: it is removed from its column and
// inserted into the target column before the anchor, or at the tail when the
// anchor is absent from the target sequence. It reports whether the board
// changed; no-op moves are not persisted.
func (s *Store) Move(ctx context.Context, m Move) (bool, error) {
	res, err := s.Relocate(ctx, m)
	return res.Moved, err
}

// Relocate is Move, reporting where the task came from and where it landed.
// From can differ from m.Source when the captured source went stale.
func (s *Store) Relocate(ctx context.Context, m Move) (MoveResult, error) {
	if m.IsNoop() {
		return MoveResult{From: m.Source}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Tasks[m.TaskID]; !ok {
		return MoveResult{}, fmt.Errorf("%w: %q", ErrTaskNotFound, m.TaskID)
	}
	if _, ok := s.state.Columns[m.Source]; !ok {
		return MoveResult{}, fmt.Errorf("%w: %q", ErrInvalidColumn, m.Source)
	}
	if _, ok := s.state.Columns[m.Target]; !ok {
		return MoveResult{}, fmt.Errorf("%w: %q", ErrInvalidColumn, m.Target)
	}

	source, _ := s.state.ColumnOf(m.TaskID)
	res := MoveResult{From: source}
	if source != m.Source {
		s.log.Debug().
			Str("task", m.TaskID).
			Str("captured", m.Source).
			Str("actual", source).
			Msg("drag source is stale, using the column holding the task")
		if source == m.Target && m.Anchor == "" {
			return res, nil
		}
	}

	from := s.state.Columns[source]
	to := s.state.Columns[m.Target]
	beforeTo := slices.Clone(to.TaskIDs)

	from.TaskIDs = slices.DeleteFunc(from.TaskIDs, func(id string) bool { return id == m.TaskID })
	if source == m.Target {
		to = from
	}

	idx := len(to.TaskIDs)
	if m.Anchor != "" {
		if i := slices.Index(to.TaskIDs, m.Anchor); i >= 0 {
			idx = i
		}
	}
	to.TaskIDs = slices.Insert(to.TaskIDs, idx, m.TaskID)

	if source == m.Target {
		if slices.Equal(beforeTo, to.TaskIDs) {
			s.state.Columns[source] = Column{ID: from.ID, Title: from.Title, TaskIDs: beforeTo}
			return res, nil
		}
		s.state.Columns[source] = to
	} else {
		s.state.Columns[source] = from
		s.state.Columns[m.Target] = to
	}

	s.log.Debug().
		Str("task", m.TaskID).
		Str("from", source).
		Str("to", m.Target).
		Int("index", idx).
		Msg("task moved")
	s.save(ctx)

	res.Moved = true
	res.Index = idx
	return res, nil
}

// DragPhase is the state of a drag gesture.
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragDragging
)

func (p DragPhase) String() string {
	if p == DragDragging {
		return "dragging"
	}
	return "idle"
}

// Drag is the transient state of one reorder gesture. It is driven by the
// host's discrete pointer (or keyboard) events and never touches the board
// until Drop. The zero value is an idle drag.
type Drag struct {
	phase  DragPhase
	task   string
	source string
	target string
	anchor string
}

// Start begins dragging taskID out of sourceColumn. Starting while a drag is
// already in progress abandons the previous one.
func (d *Drag) Start(taskID, sourceColumn string) {
	d.clear()
	d.phase = DragDragging
	d.task = taskID
	d.source = sourceColumn
}

// Over records the column and anchor task currently under the pointer. An
// empty anchorTaskID means the pointer is over the column but not a task.
func (d *Drag) Over(columnID, anchorTaskID string) {
	if d.phase != DragDragging {
		return
	}
	d.target = columnID
	d.anchor = anchorTaskID
}

// Leave records that the pointer left every drop zone.
func (d *Drag) Leave() {
	d.target = ""
	d.anchor = ""
}

// Pending returns the move that Drop would apply.
func (d *Drag) Pending() Move {
	return Move{TaskID: d.task, Source: d.source, Target: d.target, Anchor: d.anchor}
}

// Mover applies a Move. *Store implements it.
type Mover interface {
	Move(ctx context.Context, m Move) (bool, error)
}

// Drop applies the pending move to s and then clears the drag, whatever the
// outcome. Dropping an idle drag is a no-op.
func (d *Drag) Drop(ctx context.Context, s Mover) (bool, error) {
	defer d.clear()
	if d.phase != DragDragging {
		return false, nil
	}
	return s.Move(ctx, d.Pending())
}

// Cancel ends the gesture without touching the board.
func (d *Drag) Cancel() {
	d.clear()
}

// Phase returns the current phase.
func (d *Drag) Phase() DragPhase { return d.phase }

// Active reports whether a drag is in progress.
func (d *Drag) Active() bool { return d.phase == DragDragging }

// TaskID returns the dragged task, or "" when idle.
func (d *Drag) TaskID() string { return d.task }

func (d *Drag) clear() {
	*d = Drag{}
}
