// Package board defines the task board domain: columns holding ordered task ids,
// the task records they reference, and the operations that keep both in sync.
package board

import (
	"maps"
	"slices"
)

// Quadrant classifies a task on the Eisenhower matrix. It is orthogonal to
// column membership and only used for reporting and display.
type Quadrant string

const (
	QuadrantDo        Quadrant = "do"        // urgent and important
	QuadrantSchedule  Quadrant = "schedule"  // important, not urgent
	QuadrantDelegate  Quadrant = "delegate"  // urgent, not important
	QuadrantEliminate Quadrant = "eliminate" // neither
)

// Quadrants lists every quadrant in display order.
var Quadrants = []Quadrant{QuadrantDo, QuadrantSchedule, QuadrantDelegate, QuadrantEliminate}

// IsValid reports whether q is one of the four known quadrants.
func (q Quadrant) IsValid() bool {
	return slices.Contains(Quadrants, q)
}

// Next returns the quadrant after q, wrapping around.
func (q Quadrant) Next() Quadrant {
	i := slices.Index(Quadrants, q)
	return Quadrants[(i+1)%len(Quadrants)]
}

const (
	DefaultQuadrant = QuadrantDo
	DefaultType     = "task"
)

// Task is a single card on the board. Which column it lives in is not stored
// here; see Store.ColumnOf.
type Task struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	Quadrant  Quadrant `json:"quadrant"`
	Type      string   `json:"type"`
	Component string   `json:"component"`
}

// Fields returns the mutable attributes of the task.
func (t Task) Fields() TaskFields {
	return TaskFields{
		Content:   t.Content,
		Quadrant:  t.Quadrant,
		Type:      t.Type,
		Component: t.Component,
	}
}

// TaskFields holds the caller-supplied attributes of a new task.
type TaskFields struct {
	Content   string
	Quadrant  Quadrant // empty means DefaultQuadrant
	Type      string   // empty means DefaultType
	Component string
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Content   *string
	Quadrant  *Quadrant
	Type      *string
	Component *string
}

// PatchFrom builds a patch that sets every field to the values in f.
func PatchFrom(f TaskFields) TaskPatch {
	return TaskPatch{
		Content:   &f.Content,
		Quadrant:  &f.Quadrant,
		Type:      &f.Type,
		Component: &f.Component,
	}
}

// Column is an ordered bucket of task ids.
type Column struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	TaskIDs []string `json:"taskIds"`
}

// State is the board aggregate and also its persisted layout.
type State struct {
	Tasks       map[string]Task   `json:"tasks"`
	Columns     map[string]Column `json:"columns"`
	ColumnOrder []string          `json:"columnOrder"`
}

// Clone returns a deep copy of s that shares no slices or maps with it.
func (s State) Clone() State {
	out := State{
		Tasks:       maps.Clone(s.Tasks),
		Columns:     make(map[string]Column, len(s.Columns)),
		ColumnOrder: slices.Clone(s.ColumnOrder),
	}
	if out.Tasks == nil {
		out.Tasks = map[string]Task{}
	}
	if out.ColumnOrder == nil {
		out.ColumnOrder = []string{}
	}
	for id, col := range s.Columns {
		col.TaskIDs = slices.Clone(col.TaskIDs)
		if col.TaskIDs == nil {
			col.TaskIDs = []string{}
		}
		out.Columns[id] = col
	}
	return out
}

// OrderedColumns returns the columns in layout order.
func (s State) OrderedColumns() []Column {
	cols := make([]Column, 0, len(s.ColumnOrder))
	for _, id := range s.ColumnOrder {
		if col, ok := s.Columns[id]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}

// ColumnOf returns the id of the column whose sequence contains taskID.
func (s State) ColumnOf(taskID string) (string, bool) {
	for _, id := range s.ColumnOrder {
		if slices.Contains(s.Columns[id].TaskIDs, taskID) {
			return id, true
		}
	}
	return "", false
}

// TasksIn returns the task records of a column in display order.
func (s State) TasksIn(columnID string) []Task {
	col, ok := s.Columns[columnID]
	if !ok {
		return nil
	}
	tasks := make([]Task, 0, len(col.TaskIDs))
	for _, id := range col.TaskIDs {
		if t, ok := s.Tasks[id]; ok {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// Equal reports whether two states hold the same tasks, columns and order.
func (s State) Equal(other State) bool {
	if !slices.Equal(s.ColumnOrder, other.ColumnOrder) || !maps.Equal(s.Tasks, other.Tasks) {
		return false
	}
	return maps.EqualFunc(s.Columns, other.Columns, func(a, b Column) bool {
		return a.ID == b.ID && a.Title == b.Title && slices.Equal(a.TaskIDs, b.TaskIDs)
	})
}

// ColumnDef describes one column of a board layout.
type ColumnDef struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// Layout is the ordered set of columns a fresh board starts with.
type Layout []ColumnDef

// DefaultLayout is the canonical three-column layout.
func DefaultLayout() Layout {
	return Layout{
		{ID: "todo", Title: "To Do"},
		{ID: "inProgress", Title: "In Progress"},
		{ID: "done", Title: "Done"},
	}
}

// NewState returns an empty board with the given layout. An empty layout
// falls back to DefaultLayout.
func NewState(layout Layout) State {
	if len(layout) == 0 {
		layout = DefaultLayout()
	}
	s := State{
		Tasks:       map[string]Task{},
		Columns:     make(map[string]Column, len(layout)),
		ColumnOrder: make([]string, 0, len(layout)),
	}
	for _, def := range layout {
		if _, dup := s.Columns[def.ID]; dup || def.ID == "" {
			continue
		}
		s.Columns[def.ID] = Column{ID: def.ID, Title: def.Title, TaskIDs: []string{}}
		s.ColumnOrder = append(s.ColumnOrder, def.ID)
	}
	return s
}

// DefaultState is the empty canonical board.
func DefaultState() State {
	return NewState(DefaultLayout())
}
