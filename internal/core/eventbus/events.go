// Package eventbus provides a typed publish/subscribe event bus that fans board
// changes out to the UI, the HTTP API and the debug log.
package eventbus

import "github.com/colonyops/taskboard/internal/core/board"

// Event names a kind of board change.
type Event string

const (
	// Keep list sorted A-Z
	EventBoardReloaded   Event = "board.reloaded"
	EventBoardReplaced   Event = "board.replaced"
	EventBoardSaveFailed Event = "board.save-failed"
	EventTaskCreated     Event = "task.created"
	EventTaskDeleted     Event = "task.deleted"
	EventTaskMoved       Event = "task.moved"
	EventTaskUpdated     Event = "task.updated"
)

// Events lists every event the bus carries.
var Events = []Event{
	EventBoardReloaded,
	EventBoardReplaced,
	EventBoardSaveFailed,
	EventTaskCreated,
	EventTaskDeleted,
	EventTaskMoved,
	EventTaskUpdated,
}

// TaskCreatedPayload is emitted after a task is appended to a column.
type TaskCreatedPayload struct {
	Board  string
	Task   board.Task
	Column string
}

// TaskUpdatedPayload is emitted after a task's fields change.
type TaskUpdatedPayload struct {
	Board string
	Task  board.Task
}

// TaskDeletedPayload is emitted after a task is removed.
type TaskDeletedPayload struct {
	Board  string
	TaskID string
	Column string
}

// TaskMovedPayload is emitted after a move that changed the board. From is
// the column the task actually left, which can differ from Move.Source.
type TaskMovedPayload struct {
	Board string
	Move  board.Move
	From  string
	Index int
}

// BoardReplacedPayload is emitted when the whole board is swapped by an
// import or reset.
type BoardReplacedPayload struct {
	Board    string
	Problems []board.Problem
}

// BoardReloadedPayload is emitted when another writer changed the stored
// board and the in-memory copy was refreshed.
type BoardReloadedPayload struct {
	Board  string
	Source string
}

// BoardSaveFailedPayload is emitted when a snapshot could not be persisted.
type BoardSaveFailedPayload struct {
	Board string
	Err   error
}
