package board

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSlot is an in-memory Slot that counts writes and can be told to fail.
type fakeSlot struct {
	data     []byte
	writes   int
	readErr  error
	writeErr error
}

func (f *fakeSlot) Read(context.Context) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.data == nil {
		return nil, ErrNoState
	}
	return f.data, nil
}

func (f *fakeSlot) Write(_ context.Context, data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	f.data = append([]byte(nil), data...)
	return nil
}

func testLogger() zerolog.Logger { return zerolog.Nop() }

func TestPersistence_RoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := &fakeSlot{}
	p := NewPersistence(slot, nil, testLogger())

	want := scenarioState()
	want.Tasks["t1"] = Task{ID: "t1", Content: "Read chapter 4", Quadrant: QuadrantDelegate, Type: "reading", Component: "<b>p. 12</b>"}

	require.NoError(t, p.Save(ctx, want))
	got := p.Load(ctx)
	assert.True(t, want.Equal(got), "round trip changed the board:\nwant %+v\ngot  %+v", want, got)

	data, err := Encode(want)
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, want.Equal(decoded))
}

func TestPersistence_Layout(t *testing.T) {
	data, err := Encode(scenarioState())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"tasks": {
			"t1": {"id": "t1", "content": "Read chapter 4", "quadrant": "do", "type": "task", "component": ""},
			"t2": {"id": "t2", "content": "Grade quiz", "quadrant": "schedule", "type": "task", "component": ""}
		},
		"columns": {
			"todo": {"id": "todo", "title": "To Do", "taskIds": ["t1", "t2"]},
			"inProgress": {"id": "inProgress", "title": "In Progress", "taskIds": []},
			"done": {"id": "done", "title": "Done", "taskIds": []}
		},
		"columnOrder": ["todo", "inProgress", "done"]
	}`, string(data))
}

func TestPersistence_LoadFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name string
		slot *fakeSlot
	}{
		{"missing record", &fakeSlot{}},
		{"corrupt json", &fakeSlot{data: []byte(`{"tasks": [`)}},
		{"wrong shape", &fakeSlot{data: []byte(`{"tasks": "nope", "columns": 4}`)}},
		{"no columns", &fakeSlot{data: []byte(`{"tasks": {}, "columns": {}, "columnOrder": []}`)}},
		{"read failure", &fakeSlot{readErr: errors.New("storage unavailable")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPersistence(tt.slot, nil, testLogger())

			got := p.Load(context.Background())
			assert.True(t, DefaultState().Equal(got))
			assert.Equal(t, []string{"todo", "inProgress", "done"}, got.ColumnOrder)
		})
	}
}

func TestPersistence_LoadUsesConfiguredLayout(t *testing.T) {
	layout := Layout{{ID: "backlog", Title: "Backlog"}, {ID: "shipped", Title: "Shipped"}}
	p := NewPersistence(&fakeSlot{}, layout, testLogger())

	got := p.Load(context.Background())
	assert.Equal(t, []string{"backlog", "shipped"}, got.ColumnOrder)
}

func TestPersistence_LoadDropsDanglingIDs(t *testing.T) {
	slot := &fakeSlot{data: []byte(`{
		"tasks": {"a": {"id": "a", "content": "A", "quadrant": "do", "type": "task"}},
		"columns": {"todo": {"id": "todo", "title": "To Do", "taskIds": ["ghost", "a", "a"]}},
		"columnOrder": ["todo"]
	}`)}
	p := NewPersistence(slot, nil, testLogger())

	got := p.Load(context.Background())
	assert.Equal(t, []string{"a"}, got.Columns["todo"].TaskIDs)
	assertInvariant(t, got)
}

func TestRepair(t *testing.T) {
	task := func(id string) Task { return Task{ID: id, Content: id, Quadrant: QuadrantDo, Type: DefaultType} }

	tests := []struct {
		name      string
		in        State
		wantOrder []string
		wantCols  map[string][]string
		wantTasks []string
		wantKinds []ProblemKind
	}{
		{
			name:      "valid board is untouched",
			in:        scenarioState(),
			wantOrder: []string{"todo", "inProgress", "done"},
			wantCols:  map[string][]string{"todo": {"t1", "t2"}, "inProgress": {}, "done": {}},
			wantTasks: []string{"t1", "t2"},
		},
		{
			name: "duplicate across columns keeps the first",
			in: State{
				Tasks:       map[string]Task{"a": task("a")},
				Columns:     map[string]Column{"x": {ID: "x", TaskIDs: []string{"a"}}, "y": {ID: "y", TaskIDs: []string{"a"}}},
				ColumnOrder: []string{"x", "y"},
			},
			wantOrder: []string{"x", "y"},
			wantCols:  map[string][]string{"x": {"a"}, "y": {}},
			wantTasks: []string{"a"},
			wantKinds: []ProblemKind{ProblemDuplicateTask},
		},
		{
			name: "orphans are removed",
			in: State{
				Tasks:       map[string]Task{"a": task("a"), "b": task("b")},
				Columns:     map[string]Column{"x": {ID: "x", TaskIDs: []string{"a"}}},
				ColumnOrder: []string{"x"},
			},
			wantOrder: []string{"x"},
			wantCols:  map[string][]string{"x": {"a"}},
			wantTasks: []string{"a"},
			wantKinds: []ProblemKind{ProblemOrphanTask},
		},
		{
			name: "column order is reconciled",
			in: State{
				Tasks:       map[string]Task{},
				Columns:     map[string]Column{"x": {ID: "x"}, "z": {ID: "z"}, "y": {ID: "y"}},
				ColumnOrder: []string{"x", "gone", "x"},
			},
			wantOrder: []string{"x", "y", "z"},
			wantCols:  map[string][]string{"x": {}, "y": {}, "z": {}},
			wantKinds: []ProblemKind{ProblemMissingColumn, ProblemDuplicateColumn, ProblemUnorderedColumn, ProblemUnorderedColumn},
		},
		{
			name: "record id follows its key",
			in: State{
				Tasks:       map[string]Task{"a": {ID: "b", Content: "A", Quadrant: QuadrantDo, Type: DefaultType}},
				Columns:     map[string]Column{"x": {ID: "x", TaskIDs: []string{"a"}}},
				ColumnOrder: []string{"x"},
			},
			wantOrder: []string{"x"},
			wantCols:  map[string][]string{"x": {"a"}},
			wantTasks: []string{"a"},
			wantKinds: []ProblemKind{ProblemMismatchedID},
		},
		{
			name: "column id follows its key",
			in: State{
				Tasks:       map[string]Task{},
				Columns:     map[string]Column{"x": {ID: "y", Title: "X"}},
				ColumnOrder: []string{"x"},
			},
			wantOrder: []string{"x"},
			wantCols:  map[string][]string{"x": {}},
			wantKinds: []ProblemKind{ProblemMismatchedID},
		},
		{
			name: "column under an empty key is dropped",
			in: State{
				Tasks:       map[string]Task{"a": task("a")},
				Columns:     map[string]Column{"": {ID: "x", TaskIDs: []string{"a"}}, "y": {ID: "y"}},
				ColumnOrder: []string{"y"},
			},
			wantOrder: []string{"y"},
			wantCols:  map[string][]string{"y": {}},
			wantKinds: []ProblemKind{ProblemUnnamedColumn, ProblemOrphanTask},
		},
		{
			name: "blank tasks are dropped",
			in: State{
				Tasks:       map[string]Task{"a": task("a"), "blank": {ID: "blank", Content: "  ", Quadrant: QuadrantDo, Type: DefaultType}},
				Columns:     map[string]Column{"x": {ID: "x", TaskIDs: []string{"blank", "a"}}, "y": {ID: "y", TaskIDs: []string{"blank"}}},
				ColumnOrder: []string{"x", "y"},
			},
			wantOrder: []string{"x", "y"},
			wantCols:  map[string][]string{"x": {"a"}, "y": {}},
			wantTasks: []string{"a"},
			wantKinds: []ProblemKind{ProblemEmptyTask},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, problems := Repair(tt.in)

			assert.Equal(t, tt.wantOrder, got.ColumnOrder)
			for id, want := range tt.wantCols {
				assert.Equal(t, want, got.Columns[id].TaskIDs, "column %s", id)
				assert.Equal(t, id, got.Columns[id].ID)
			}
			assert.Len(t, got.Tasks, len(tt.wantTasks))
			for _, id := range tt.wantTasks {
				assert.Equal(t, id, got.Tasks[id].ID)
			}

			if len(tt.wantKinds) == 0 {
				assert.Empty(t, problems)
			} else {
				assert.Equal(t, tt.wantKinds, kinds(problems))
			}
			assertInvariant(t, got)
		})
	}
}

func TestRepair_NormalizesTaskFields(t *testing.T) {
	in := State{
		Tasks: map[string]Task{
			"bad":     {ID: "bad", Content: "B", Quadrant: "urgent", Type: "bug"},
			"untyped": {ID: "untyped", Content: "U", Quadrant: QuadrantDelegate, Type: " "},
			"fine":    {ID: "fine", Content: "F", Quadrant: QuadrantEliminate, Type: "chore"},
		},
		Columns:     map[string]Column{"x": {ID: "x", TaskIDs: []string{"bad", "untyped", "fine"}}},
		ColumnOrder: []string{"x"},
	}

	got, problems := Repair(in)
	assert.Equal(t, []ProblemKind{ProblemInvalidTask, ProblemInvalidTask}, kinds(problems))
	assert.Equal(t, "bad", problems[0].Task)
	assert.Equal(t, "untyped", problems[1].Task)

	assert.Equal(t, Task{ID: "bad", Content: "B", Quadrant: DefaultQuadrant, Type: "bug"}, got.Tasks["bad"])
	assert.Equal(t, Task{ID: "untyped", Content: "U", Quadrant: QuadrantDelegate, Type: DefaultType}, got.Tasks["untyped"])
	assert.Equal(t, in.Tasks["fine"], got.Tasks["fine"])
}

func kinds(problems []Problem) []ProblemKind {
	out := make([]ProblemKind, 0, len(problems))
	for _, p := range problems {
		out = append(out, p.Kind)
	}
	return out
}

func TestStore_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	slot := &fakeSlot{}
	p := NewPersistence(slot, nil, testLogger())
	store := newTestStore(t, DefaultState(), WithPersistence(p))

	id, err := store.CreateTask(ctx, "todo", TaskFields{Content: "one"})
	require.NoError(t, err)
	assert.Equal(t, 1, slot.writes)

	content := "two"
	require.NoError(t, store.UpdateTask(ctx, id, TaskPatch{Content: &content}))
	assert.Equal(t, 2, slot.writes)

	_, err = store.Move(ctx, Move{TaskID: id, Source: "todo", Target: "done"})
	require.NoError(t, err)
	assert.Equal(t, 3, slot.writes)

	require.NoError(t, store.DeleteTask(ctx, id))
	assert.Equal(t, 4, slot.writes)

	_, err = store.CreateTask(ctx, "todo", TaskFields{Content: " "})
	require.ErrorIs(t, err, ErrEmptyContent)
	assert.Equal(t, 4, slot.writes, "failed validation must not persist")

	assert.True(t, store.Snapshot().Equal(p.Load(ctx)))
}

func TestStore_SaveFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	slot := &fakeSlot{writeErr: fmt.Errorf("quota exceeded")}

	var results []error
	store := newTestStore(t, DefaultState(),
		WithPersistence(NewPersistence(slot, nil, testLogger())),
		OnSaveResult(func(err error) { results = append(results, err) }),
	)

	id, err := store.CreateTask(ctx, "todo", TaskFields{Content: "still works"})
	require.NoError(t, err)
	assert.Contains(t, store.Snapshot().Tasks, id)

	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0], "quota exceeded")
}

func TestPersistence_Inspect(t *testing.T) {
	ctx := context.Background()

	t.Run("reports without writing", func(t *testing.T) {
		slot := &fakeSlot{data: []byte(`{
			"tasks": {"a": {"id": "a", "content": "A", "quadrant": "do", "type": "task"}},
			"columns": {"todo": {"id": "todo", "title": "To Do", "taskIds": ["a", "ghost"]}},
			"columnOrder": ["todo"]
		}`)}
		problems, err := NewPersistence(slot, nil, testLogger()).Inspect(ctx)
		require.NoError(t, err)
		require.Len(t, problems, 1)
		assert.Equal(t, Problem{Kind: ProblemDanglingTask, Column: "todo", Task: "ghost"}, problems[0])
		assert.Zero(t, slot.writes)
	})

	t.Run("empty slot", func(t *testing.T) {
		_, err := NewPersistence(&fakeSlot{}, nil, testLogger()).Inspect(ctx)
		assert.ErrorIs(t, err, ErrNoState)
	})

	t.Run("corrupt record", func(t *testing.T) {
		_, err := NewPersistence(&fakeSlot{data: []byte("{")}, nil, testLogger()).Inspect(ctx)
		assert.ErrorContains(t, err, "decode board")
	})
}
