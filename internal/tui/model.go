// Package tui implements the Bubble Tea board for taskboard.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/eventbus"
	"github.com/colonyops/taskboard/internal/core/logging"
)

const (
	defaultColumnWidth = 32
	eventBuffer        = 16
)

// Board is the board service the TUI drives. *taskboard.BoardService
// implements it.
type Board interface {
	board.TaskStore
	board.Mover
	Name() string
	Snapshot() board.State
	ColumnOf(taskID string) (string, bool)
}

// Deps holds the services the model needs.
type Deps struct {
	Board       Board
	Bus         *eventbus.EventBus // optional; enables live reload
	ColumnWidth int
}

type mode int

const (
	modeBoard mode = iota
	modeForm
	modeConfirmDelete
)

// boardChangedMsg is sent when another writer replaced the board.
type boardChangedMsg struct{ source string }

// saveFailedMsg is sent when a snapshot could not be persisted.
type saveFailedMsg struct{ err error }

// Model is the board view. Selection is a column index plus a row within
// that column; while a drag is active the row is the insertion point.
type Model struct {
	ctx    context.Context
	board  Board
	editor *board.Editor
	drag   *board.Drag
	keys   keyMap
	help   help.Model
	events chan tea.Msg
	log    zerolog.Logger

	state    board.State
	col      int
	row      int
	mode     mode
	form     *taskForm
	deleting string

	status    string
	statusErr bool
	width     int
	colWidth  int
}

// New builds the model and, when deps.Bus is set, subscribes to external
// board changes.
func New(ctx context.Context, deps Deps) Model {
	width := deps.ColumnWidth
	if width <= 0 {
		width = defaultColumnWidth
	}

	m := Model{
		ctx:      ctx,
		board:    deps.Board,
		editor:   board.NewEditor(deps.Board),
		drag:     &board.Drag{},
		keys:     defaultKeyMap(),
		help:     help.New(),
		log:      logging.Component("tui"),
		colWidth: width,
	}

	if deps.Bus != nil {
		m.events = make(chan tea.Msg, eventBuffer)
		deps.Bus.SubscribeBoardReloaded(func(p eventbus.BoardReloadedPayload) {
			m.notify(boardChangedMsg{source: p.Source})
		})
		deps.Bus.SubscribeBoardReplaced(func(eventbus.BoardReplacedPayload) {
			m.notify(boardChangedMsg{})
		})
		deps.Bus.SubscribeBoardSaveFailed(func(p eventbus.BoardSaveFailedPayload) {
			m.notify(saveFailedMsg{err: p.Err})
		})
	}

	m.refresh()
	return m
}

// notify hands msg to the program without blocking the bus. A full buffer
// already holds a pending refresh.
func (m Model) notify(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg { return <-m.events }
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case boardChangedMsg:
		m.refresh()
		if msg.source != "" {
			m.setStatus("reloaded after change from " + msg.source)
		}
		return m, m.waitForEvent()

	case saveFailedMsg:
		m.setError(fmt.Errorf("save failed: %w", msg.err))
		return m, m.waitForEvent()

	case tea.KeyMsg:
		switch {
		case m.mode == modeForm:
			return m.updateForm(msg)
		case m.mode == modeConfirmDelete:
			return m.updateConfirm(msg)
		case m.drag.Active():
			return m.updateDrag(msg)
		default:
			return m.updateBoard(msg)
		}
	}

	if m.mode == modeForm {
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.selectColumn(m.col - 1)
	case key.Matches(msg, m.keys.Right):
		m.selectColumn(m.col + 1)
	case key.Matches(msg, m.keys.Up):
		m.selectRow(m.row - 1)
	case key.Matches(msg, m.keys.Down):
		m.selectRow(m.row + 1)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.New):
		if col, ok := m.currentColumn(); ok {
			m.form = newTaskForm(board.TaskFields{})
			m.form.creating = true
			m.form.column = col.ID
			m.mode = modeForm
			m.clearStatus()
		}
	case key.Matches(msg, m.keys.Edit):
		task, ok := m.currentTask()
		if !ok {
			return m, nil
		}
		if err := m.editor.Begin(task.ID); err != nil {
			m.setError(err)
			return m, nil
		}
		m.form = newTaskForm(m.editor.Draft())
		m.form.taskID = task.ID
		m.mode = modeForm
		m.clearStatus()
	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.currentTask(); ok {
			m.deleting = task.ID
			m.mode = modeConfirmDelete
			m.clearStatus()
		}
	case key.Matches(msg, m.keys.Grab):
		task, ok := m.currentTask()
		col, _ := m.currentColumn()
		if ok {
			m.drag.Start(task.ID, col.ID)
			m.drag.Over(col.ID, task.ID)
			m.setStatus("moving " + task.ID)
		}
	case key.Matches(msg, m.keys.Quadrant):
		m.cycleQuadrant()
	}
	return m, nil
}

func (m Model) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c":
		m.drag.Cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.dragToColumn(m.col - 1)
	case key.Matches(msg, m.keys.Right):
		m.dragToColumn(m.col + 1)
	case key.Matches(msg, m.keys.Up):
		m.dragToRow(m.row - 1)
	case key.Matches(msg, m.keys.Down):
		m.dragToRow(m.row + 1)
	case key.Matches(msg, m.keys.Drop):
		id := m.drag.TaskID()
		target := m.drag.Pending().Target
		moved, err := m.drag.Drop(m.ctx, m.board)
		m.refresh()
		m.selectTask(id)
		switch {
		case err != nil:
			m.setError(err)
		case moved:
			m.setStatus(fmt.Sprintf("moved %s to %s", id, target))
		default:
			m.setStatus("unchanged")
		}
	case key.Matches(msg, m.keys.Cancel):
		id := m.drag.TaskID()
		m.drag.Cancel()
		m.selectTask(id)
		m.setStatus("move cancelled")
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeForm()
		m.setStatus("cancelled")
		return m, nil
	case key.Matches(msg, m.keys.Save):
		m.submitForm()
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		return m, m.form.move(-1)
	case key.Matches(msg, m.keys.NextField):
		return m, m.form.move(1)
	case m.form.focus == fieldQuadrant && key.Matches(msg, m.keys.Cycle):
		m.form.cycleQuadrant()
		return m, nil
	}
	return m, m.form.update(msg)
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		id := m.deleting
		m.deleting = ""
		m.mode = modeBoard
		if err := m.editor.Delete(m.ctx, id); err != nil {
			m.setError(err)
		} else {
			m.setStatus("deleted " + id)
		}
		m.refresh()
	case key.Matches(msg, m.keys.No):
		m.deleting = ""
		m.mode = modeBoard
		m.clearStatus()
	}
	return m, nil
}

func (m *Model) submitForm() {
	fields := m.form.fields()

	if m.form.creating {
		id, err := m.editor.Create(m.ctx, m.form.column, fields)
		if err != nil {
			m.setError(err)
			return
		}
		m.closeForm()
		m.refresh()
		m.selectTask(id)
		m.setStatus("created " + id)
		return
	}

	id := m.form.taskID
	m.editor.SetContent(fields.Content)
	m.editor.SetQuadrant(fields.Quadrant)
	m.editor.SetType(fields.Type)
	m.editor.SetComponent(fields.Component)
	if err := m.editor.Save(m.ctx); err != nil {
		m.setError(err)
		if _, editing := m.editor.Editing(); !editing {
			m.closeForm()
			m.refresh()
		}
		return
	}
	m.closeForm()
	m.refresh()
	m.selectTask(id)
	m.setStatus("saved " + id)
}

func (m *Model) closeForm() {
	m.editor.Cancel()
	m.form = nil
	m.mode = modeBoard
}

func (m *Model) cycleQuadrant() {
	task, ok := m.currentTask()
	if !ok {
		return
	}
	q := task.Quadrant.Next()
	if err := m.board.UpdateTask(m.ctx, task.ID, board.TaskPatch{Quadrant: &q}); err != nil {
		m.setError(err)
		return
	}
	m.refresh()
	m.setStatus(fmt.Sprintf("%s is now %s", task.ID, q))
}

// refresh re-reads the board and clamps the selection to it.
func (m *Model) refresh() {
	m.state = m.board.Snapshot()
	m.selectColumn(m.col)
}

func (m *Model) columns() []board.Column {
	return m.state.OrderedColumns()
}

func (m *Model) currentColumn() (board.Column, bool) {
	cols := m.columns()
	if m.col < 0 || m.col >= len(cols) {
		return board.Column{}, false
	}
	return cols[m.col], true
}

func (m *Model) currentTask() (board.Task, bool) {
	col, ok := m.currentColumn()
	if !ok || m.row < 0 || m.row >= len(col.TaskIDs) {
		return board.Task{}, false
	}
	task, ok := m.state.Tasks[col.TaskIDs[m.row]]
	return task, ok
}

func (m *Model) selectColumn(i int) {
	m.col = clamp(i, 0, len(m.columns())-1)
	m.selectRow(m.row)
}

func (m *Model) selectRow(i int) {
	col, ok := m.currentColumn()
	if !ok {
		m.row = 0
		return
	}
	m.row = clamp(i, 0, len(col.TaskIDs)-1)
}

// selectTask moves the selection onto taskID if it is on the board.
func (m *Model) selectTask(taskID string) {
	for i, col := range m.columns() {
		for j, id := range col.TaskIDs {
			if id == taskID {
				m.col, m.row = i, j
				return
			}
		}
	}
	m.selectColumn(m.col)
}

// dragToColumn moves the drop point to the tail of column i.
func (m *Model) dragToColumn(i int) {
	m.col = clamp(i, 0, len(m.columns())-1)
	col, _ := m.currentColumn()
	m.row = len(col.TaskIDs)
	m.hover()
}

// dragToRow moves the drop point within the current column. Row len(tasks)
// is the tail.
func (m *Model) dragToRow(i int) {
	col, _ := m.currentColumn()
	m.row = clamp(i, 0, len(col.TaskIDs))
	m.hover()
}

func (m *Model) hover() {
	col, ok := m.currentColumn()
	if !ok {
		m.drag.Leave()
		return
	}
	anchor := ""
	if m.row < len(col.TaskIDs) {
		anchor = col.TaskIDs[m.row]
	}
	m.drag.Over(col.ID, anchor)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	if !board.IsValidation(err) {
		m.log.Error().Err(err).Msg("board operation failed")
	}
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
