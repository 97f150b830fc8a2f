package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// Slot is a durable location holding exactly one encoded board record.
type Slot interface {
	// Read returns the stored record, or an error wrapping ErrNoState when the
	// slot is empty.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the stored record.
	Write(ctx context.Context, data []byte) error
}

// Persistence encodes boards into a Slot and decodes them back, repairing
// whatever it reads.
type Persistence struct {
	slot   Slot
	layout Layout
	log    zerolog.Logger
}

// NewPersistence creates a persistence adapter. layout is used for the
// default board returned when nothing usable is stored.
func NewPersistence(slot Slot, layout Layout, log zerolog.Logger) *Persistence {
	return &Persistence{slot: slot, layout: layout, log: log}
}

// Load reads the board from the slot. It never fails: a missing, unreadable
// or corrupt record yields an empty board built from the layout.
func (p *Persistence) Load(ctx context.Context) State {
	state, err := p.TryLoad(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoState) {
			p.log.Warn().Err(err).Msg("stored board unusable, starting from an empty board")
		}
		return NewState(p.layout)
	}
	return state
}

// TryLoad is Load without the fallback: it returns the read or decode error.
func (p *Persistence) TryLoad(ctx context.Context) (State, error) {
	state, problems, err := p.read(ctx)
	if err != nil {
		return State{}, err
	}
	for _, prob := range problems {
		p.log.Warn().Str("problem", prob.String()).Msg("repaired stored board")
	}
	return state, nil
}

// read decodes and repairs the stored record. A record that repairs down to
// zero columns is rejected with ErrNoColumns.
func (p *Persistence) read(ctx context.Context) (State, []Problem, error) {
	data, err := p.slot.Read(ctx)
	if err != nil {
		return State{}, nil, err
	}

	state, err := Decode(data)
	if err != nil {
		return State{}, nil, err
	}

	repaired, problems := Repair(state)
	if len(repaired.ColumnOrder) == 0 {
		return State{}, problems, fmt.Errorf("stored board: %w", ErrNoColumns)
	}
	return repaired, problems, nil
}

// Inspect reads and decodes the stored record and reports what Repair would
// fix, without changing the slot.
func (p *Persistence) Inspect(ctx context.Context) ([]Problem, error) {
	data, err := p.slot.Read(ctx)
	if err != nil {
		return nil, err
	}
	state, err := Decode(data)
	if err != nil {
		return nil, err
	}
	_, problems := Repair(state)
	return problems, nil
}

// Save encodes state and writes it to the slot.
func (p *Persistence) Save(ctx context.Context, state State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := p.slot.Write(ctx, data); err != nil {
		return fmt.Errorf("write board: %w", err)
	}
	return nil
}

// Encode serializes a board to its persisted JSON layout.
func Encode(state State) ([]byte, error) {
	data, err := json.Marshal(state.Clone())
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	return data, nil
}

// Decode parses a persisted board. It only checks the JSON shape; use Repair
// to enforce the board invariant.
func Decode(data []byte) (State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode board: %w", err)
	}
	return state, nil
}

// ProblemKind names a class of inconsistency found by Repair.
type ProblemKind string

const (
	ProblemMissingColumn   ProblemKind = "missing_column"   // columnOrder names a column that does not exist
	ProblemUnorderedColumn ProblemKind = "unordered_column" // column exists but is absent from columnOrder
	ProblemDuplicateColumn ProblemKind = "duplicate_column" // column listed twice in columnOrder
	ProblemDanglingTask    ProblemKind = "dangling_task"    // column references a task not in the task map
	ProblemDuplicateTask   ProblemKind = "duplicate_task"   // task id appears more than once across columns
	ProblemOrphanTask      ProblemKind = "orphan_task"      // task in the map but in no column
	ProblemMismatchedID    ProblemKind = "mismatched_id"    // record id differs from its map key
	ProblemUnnamedColumn   ProblemKind = "unnamed_column"   // column stored under an empty key; dropped
	ProblemInvalidTask     ProblemKind = "invalid_task"     // unknown quadrant or blank type, reset to the default
	ProblemEmptyTask       ProblemKind = "empty_task"       // blank content; the task is dropped
)

// Problem is one inconsistency fixed by Repair.
type Problem struct {
	Kind   ProblemKind `json:"kind"`
	Column string      `json:"column,omitempty"`
	Task   string      `json:"task,omitempty"`
}

func (p Problem) String() string {
	switch {
	case p.Task != "" && p.Column != "":
		return fmt.Sprintf("%s: task %q in column %q", p.Kind, p.Task, p.Column)
	case p.Task != "":
		return fmt.Sprintf("%s: task %q", p.Kind, p.Task)
	default:
		return fmt.Sprintf("%s: column %q", p.Kind, p.Column)
	}
}

// Repair returns a copy of s that satisfies the board invariant: every task id
// in a column sequence has exactly one task record and every task record is
// referenced exactly once. Dangling and duplicate references are dropped,
// orphaned and blank records are removed, and columns missing from the order
// are appended in id order. Task fields that the store would reject are reset
// to their defaults.
func Repair(s State) (State, []Problem) {
	var problems []Problem
	out := State{
		Tasks:       make(map[string]Task, len(s.Tasks)),
		Columns:     make(map[string]Column, len(s.Columns)),
		ColumnOrder: make([]string, 0, len(s.ColumnOrder)),
	}

	for _, key := range slices.Sorted(maps.Keys(s.Columns)) {
		col := s.Columns[key]
		if key == "" {
			problems = append(problems, Problem{Kind: ProblemUnnamedColumn, Column: col.ID})
			continue
		}
		if col.ID != key {
			problems = append(problems, Problem{Kind: ProblemMismatchedID, Column: key})
			col.ID = key
		}
		out.Columns[key] = col
	}

	seenCol := make(map[string]bool, len(out.Columns))
	for _, id := range s.ColumnOrder {
		if _, ok := out.Columns[id]; !ok {
			problems = append(problems, Problem{Kind: ProblemMissingColumn, Column: id})
			continue
		}
		if seenCol[id] {
			problems = append(problems, Problem{Kind: ProblemDuplicateColumn, Column: id})
			continue
		}
		seenCol[id] = true
		out.ColumnOrder = append(out.ColumnOrder, id)
	}

	var unordered []string
	for id := range out.Columns {
		if !seenCol[id] {
			unordered = append(unordered, id)
		}
	}
	slices.Sort(unordered)
	for _, id := range unordered {
		problems = append(problems, Problem{Kind: ProblemUnorderedColumn, Column: id})
		out.ColumnOrder = append(out.ColumnOrder, id)
	}

	placed := make(map[string]bool, len(s.Tasks))
	dropped := make(map[string]bool)
	for _, colID := range out.ColumnOrder {
		col := out.Columns[colID]
		ids := make([]string, 0, len(col.TaskIDs))
		for _, taskID := range col.TaskIDs {
			task, ok := s.Tasks[taskID]
			switch {
			case !ok:
				problems = append(problems, Problem{Kind: ProblemDanglingTask, Column: colID, Task: taskID})
				continue
			case dropped[taskID]:
				continue
			case placed[taskID]:
				problems = append(problems, Problem{Kind: ProblemDuplicateTask, Column: colID, Task: taskID})
				continue
			case strings.TrimSpace(task.Content) == "":
				problems = append(problems, Problem{Kind: ProblemEmptyTask, Column: colID, Task: taskID})
				dropped[taskID] = true
				continue
			}

			if task.ID != taskID {
				problems = append(problems, Problem{Kind: ProblemMismatchedID, Task: taskID})
				task.ID = taskID
			}
			if fixed, ok := normalizeTask(task); !ok {
				problems = append(problems, Problem{Kind: ProblemInvalidTask, Column: colID, Task: taskID})
				task = fixed
			}
			placed[taskID] = true
			out.Tasks[taskID] = task
			ids = append(ids, taskID)
		}
		col.TaskIDs = ids
		out.Columns[colID] = col
	}

	orphans := make([]string, 0)
	for id := range s.Tasks {
		if !placed[id] && !dropped[id] {
			orphans = append(orphans, id)
		}
	}
	slices.Sort(orphans)
	for _, id := range orphans {
		problems = append(problems, Problem{Kind: ProblemOrphanTask, Task: id})
	}

	return out, problems
}

// normalizeTask resets a quadrant or type the store would not accept. ok is
// false when anything changed.
func normalizeTask(t Task) (Task, bool) {
	ok := true
	if !t.Quadrant.IsValid() {
		t.Quadrant = DefaultQuadrant
		ok = false
	}
	if strings.TrimSpace(t.Type) == "" {
		t.Type = DefaultType
		ok = false
	}
	return t, ok
}
