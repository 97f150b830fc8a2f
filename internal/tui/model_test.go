package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/eventbus/testbus"
	"github.com/colonyops/taskboard/internal/store/memory"
	"github.com/colonyops/taskboard/internal/taskboard"
	"github.com/colonyops/taskboard/pkg/tuitest"
)

type fixture struct {
	boards *memory.Boards
	svc    *taskboard.BoardService
	bus    *testbus.Bus
}

func newFixture(t *testing.T, todo ...string) fixture {
	t.Helper()
	boards := memory.NewBoards()
	tb := testbus.New(t)
	svc := taskboard.NewBoardService(context.Background(), memory.New(boards, "main"), taskboard.BoardOptions{
		Name: "main",
		IDs:  board.SequentialIDs("t", 1),
	}, tb.EventBus, zerolog.Nop())

	for _, content := range todo {
		_, err := svc.CreateTask(context.Background(), "todo", board.TaskFields{Content: content})
		require.NoError(t, err)
	}
	return fixture{boards: boards, svc: svc, bus: tb}
}

func (f fixture) model() Model {
	return New(context.Background(), Deps{Board: f.svc, Bus: f.bus.EventBus, ColumnWidth: 30})
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func keys(s string) []tea.Msg { return tuitest.Type(s) }

func TestModel_Navigation(t *testing.T) {
	f := newFixture(t, "a", "b")
	m := f.model()

	m = send(m, keys("jjj")...)
	assert.Equal(t, 0, m.col)
	assert.Equal(t, 1, m.row)

	m = send(m, keys("l")...)
	assert.Equal(t, 1, m.col)
	assert.Equal(t, 0, m.row, "empty column clamps the row")

	m = send(m, keys("lll")...)
	assert.Equal(t, 2, m.col)

	m = send(m, keys("hhhh")...)
	assert.Equal(t, 0, m.col)

	task, ok := m.currentTask()
	require.True(t, ok)
	assert.Equal(t, "t1", task.ID)
}

func TestModel_CreateTask(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m = send(m, keys("n")...)
	require.Equal(t, modeForm, m.mode)

	m = send(m, keys("Write report")...)
	m = send(m, tuitest.Key(tea.KeyEnter))

	assert.Equal(t, modeBoard, m.mode)
	assert.Equal(t, "created t1", m.status)

	task, ok := f.svc.Task("t1")
	require.True(t, ok)
	assert.Equal(t, "Write report", task.Content)
	assert.Equal(t, board.DefaultQuadrant, task.Quadrant)
	col, _ := f.svc.ColumnOf("t1")
	assert.Equal(t, "todo", col)
}

func TestModel_CreateRejectsEmptyContent(t *testing.T) {
	f := newFixture(t)
	m := f.model()

	m = send(m, keys("n")...)
	m = send(m, tuitest.Key(tea.KeyEnter))

	assert.Equal(t, modeForm, m.mode, "form stays open to fix the input")
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "empty")

	m = send(m, tuitest.Key(tea.KeyEsc))
	assert.Equal(t, modeBoard, m.mode)
	assert.Empty(t, f.svc.Snapshot().Tasks)
}

func TestModel_EditTask(t *testing.T) {
	f := newFixture(t, "Read")
	m := f.model()

	m = send(m, keys("e")...)
	require.Equal(t, modeForm, m.mode)
	_, editing := m.editor.Editing()
	assert.True(t, editing)

	m = send(m, keys(" v2")...)
	m = send(m, tuitest.Key(tea.KeyTab))
	require.Equal(t, fieldQuadrant, m.form.focus)
	m = send(m, tuitest.KeyPress(' '))
	m = send(m, tuitest.Key(tea.KeyEnter))

	assert.Equal(t, modeBoard, m.mode)
	assert.Equal(t, "saved t1", m.status)

	task, _ := f.svc.Task("t1")
	assert.Equal(t, "Read v2", task.Content)
	assert.Equal(t, board.QuadrantSchedule, task.Quadrant)

	_, editing = m.editor.Editing()
	assert.False(t, editing)
}

func TestModel_EditRejectsBlankContent(t *testing.T) {
	f := newFixture(t, "Read")
	m := f.model()

	m = send(m, keys("e")...)
	m = send(m, tuitest.Key(tea.KeyCtrlU))
	m = send(m, tuitest.Key(tea.KeyEnter))

	assert.Equal(t, modeForm, m.mode)
	assert.True(t, m.statusErr)

	m = send(m, tuitest.Key(tea.KeyEsc))
	task, _ := f.svc.Task("t1")
	assert.Equal(t, "Read", task.Content)
}

func TestModel_DeleteTask(t *testing.T) {
	f := newFixture(t, "a", "b")
	m := f.model()

	m = send(m, keys("xn")...)
	assert.Equal(t, modeBoard, m.mode)
	assert.Len(t, f.svc.Snapshot().Tasks, 2)

	m = send(m, keys("x")...)
	require.Equal(t, modeConfirmDelete, m.mode)
	assert.Contains(t, tuitest.StripANSI(m.View()), "Delete t1? (y/n)")

	m = send(m, keys("y")...)
	assert.Equal(t, modeBoard, m.mode)
	assert.Equal(t, "deleted t1", m.status)
	assert.Equal(t, []string{"t2"}, f.svc.Snapshot().Columns["todo"].TaskIDs)
}

func TestModel_DragAndDrop(t *testing.T) {
	tests := []struct {
		name       string
		keys       string
		wantTodo   []string
		wantDoing  []string
		wantStatus string
	}{
		{"to the tail of the next column", " l ", []string{"t2", "t3"}, []string{"t1"}, "moved t1 to inProgress"},
		{"within the column", "jj kk ", []string{"t3", "t1", "t2"}, []string{}, "moved t3 to todo"},
		{"drop in place", "  ", []string{"t1", "t2", "t3"}, []string{}, "unchanged"},
		{"before the next task", " j ", []string{"t1", "t2", "t3"}, []string{}, "unchanged"},
		{"tail of the same column", " jjj ", []string{"t1", "t2", "t3"}, []string{}, "unchanged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "a", "b", "c")
			m := send(f.model(), keys(tt.keys)...)

			assert.False(t, m.drag.Active())
			assert.Equal(t, tt.wantStatus, m.status)

			snap := f.svc.Snapshot()
			assert.Equal(t, tt.wantTodo, snap.Columns["todo"].TaskIDs)
			assert.ElementsMatch(t, tt.wantDoing, snap.Columns["inProgress"].TaskIDs)
		})
	}
}

func TestModel_DragSelectsMovedTask(t *testing.T) {
	f := newFixture(t, "a", "b")
	m := send(f.model(), keys(" l ")...)

	task, ok := m.currentTask()
	require.True(t, ok)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, 1, m.col)
}

func TestModel_DragCancel(t *testing.T) {
	f := newFixture(t, "a", "b")
	before := f.svc.Snapshot()

	m := send(f.model(), keys(" l")...)
	require.True(t, m.drag.Active())
	view := tuitest.StripANSI(m.View())
	assert.Contains(t, view, "drop here")

	m = send(m, tuitest.Key(tea.KeyEsc))
	assert.False(t, m.drag.Active())
	assert.Equal(t, "move cancelled", m.status)
	assert.True(t, before.Equal(f.svc.Snapshot()))

	task, _ := m.currentTask()
	assert.Equal(t, "t1", task.ID)
}

func TestModel_CycleQuadrant(t *testing.T) {
	f := newFixture(t, "a")
	m := send(f.model(), tuitest.Key(tea.KeyTab))

	task, _ := f.svc.Task("t1")
	assert.Equal(t, board.QuadrantSchedule, task.Quadrant)
	assert.Equal(t, "t1 is now schedule", m.status)
}

func TestModel_View(t *testing.T) {
	f := newFixture(t, "Read chapter 4")
	view := tuitest.StripANSI(f.model().View())

	assert.Contains(t, view, "main")
	assert.Contains(t, view, "To Do (1)")
	assert.Contains(t, view, "In Progress (0)")
	assert.Contains(t, view, "Read chapter 4")
	assert.Contains(t, view, "empty")
}

func TestModel_Quit(t *testing.T) {
	f := newFixture(t)
	_, cmd := f.model().Update(tuitest.KeyPress('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_ReloadsOnExternalChange(t *testing.T) {
	f := newFixture(t, "a")
	m := f.model()
	wait := m.Init()
	require.NotNil(t, wait)

	state := f.svc.Snapshot()
	state.Tasks["ext"] = board.Task{ID: "ext", Content: "from elsewhere", Quadrant: board.QuadrantDo, Type: board.DefaultType}
	done := state.Columns["done"]
	done.TaskIDs = append(done.TaskIDs, "ext")
	state.Columns["done"] = done
	data, err := board.Encode(state)
	require.NoError(t, err)
	require.NoError(t, memory.New(f.boards, "main").Write(context.Background(), data))
	require.NoError(t, f.svc.Reload(context.Background(), "test"))

	m = send(m, wait())
	assert.Contains(t, m.state.Tasks, "ext")
	assert.Equal(t, "reloaded after change from test", m.status)
}
