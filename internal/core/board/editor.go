package board

import (
	"context"
	"errors"
	"fmt"
)

// TaskStore is the subset of the board store the editor drives. *Store
// implements it.
type TaskStore interface {
	Task(taskID string) (Task, bool)
	CreateTask(ctx context.Context, columnID string, fields TaskFields) (string, error)
	UpdateTask(ctx context.Context, taskID string, patch TaskPatch) error
	DeleteTask(ctx context.Context, taskID string) error
}

// Editor validates and dispatches task intents and owns the single
// "currently being edited" draft. Field changes are buffered locally and only
// reach the store on Save.
type Editor struct {
	store   TaskStore
	editing bool
	taskID  string
	draft   TaskFields
}

// NewEditor returns an idle editor bound to store.
func NewEditor(store TaskStore) *Editor {
	return &Editor{store: store}
}

// Begin starts editing taskID, discarding any unsaved edit in progress.
func (e *Editor) Begin(taskID string) error {
	task, ok := e.store.Task(taskID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	e.editing = true
	e.taskID = taskID
	e.draft = task.Fields()
	return nil
}

// Editing returns the task being edited.
func (e *Editor) Editing() (string, bool) {
	return e.taskID, e.editing
}

// Draft returns the buffered fields.
func (e *Editor) Draft() TaskFields {
	return e.draft
}

// SetContent buffers new display text.
func (e *Editor) SetContent(v string) { e.draft.Content = v }

// SetQuadrant buffers a new quadrant.
func (e *Editor) SetQuadrant(q Quadrant) { e.draft.Quadrant = q }

// SetType buffers a new type tag.
func (e *Editor) SetType(v string) { e.draft.Type = v }

// SetComponent buffers a new markup payload.
func (e *Editor) SetComponent(v string) { e.draft.Component = v }

// Save commits the draft. A validation failure keeps the editor in the
// editing state so the draft can be corrected; a task deleted in the meantime
// returns the editor to idle.
func (e *Editor) Save(ctx context.Context) error {
	if !e.editing {
		return nil
	}

	err := e.store.UpdateTask(ctx, e.taskID, PatchFrom(e.draft))
	switch {
	case errors.Is(err, ErrTaskNotFound):
		e.Cancel()
		return err
	case err != nil:
		return err
	}

	e.Cancel()
	return nil
}

// Cancel drops the draft and returns to idle.
func (e *Editor) Cancel() {
	e.editing = false
	e.taskID = ""
	e.draft = TaskFields{}
}

// Create adds a new task to the tail of columnID.
func (e *Editor) Create(ctx context.Context, columnID string, fields TaskFields) (string, error) {
	return e.store.CreateTask(ctx, columnID, fields)
}

// Delete removes a task. Deleting the task under edit also ends the edit.
func (e *Editor) Delete(ctx context.Context, taskID string) error {
	if err := e.store.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	if e.editing && e.taskID == taskID {
		e.Cancel()
	}
	return nil
}
