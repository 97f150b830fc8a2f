package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/styles"
)

type formField int

const (
	fieldContent formField = iota
	fieldQuadrant
	fieldType
	fieldComponent
	fieldCount
)

func (f formField) label() string {
	switch f {
	case fieldContent:
		return "Content"
	case fieldQuadrant:
		return "Quadrant"
	case fieldType:
		return "Type"
	default:
		return "Component"
	}
}

// taskForm edits the fields of a new or existing task. Text fields use
// textinput; the quadrant is cycled in place.
type taskForm struct {
	creating bool
	column   string // target column when creating
	taskID   string // task under edit otherwise

	content   textinput.Model
	typ       textinput.Model
	component textinput.Model
	quadrant  board.Quadrant
	focus     formField
}

func newInput(placeholder, value string) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.SetValue(value)
	return in
}

func newTaskForm(fields board.TaskFields) *taskForm {
	q := fields.Quadrant
	if q == "" {
		q = board.DefaultQuadrant
	}
	typ := fields.Type
	if typ == "" {
		typ = board.DefaultType
	}
	f := &taskForm{
		content:   newInput("what needs doing", fields.Content),
		typ:       newInput(board.DefaultType, typ),
		component: newInput("optional markup", fields.Component),
		quadrant:  q,
	}
	f.content.Focus()
	return f
}

func (f *taskForm) input(field formField) *textinput.Model {
	switch field {
	case fieldContent:
		return &f.content
	case fieldType:
		return &f.typ
	case fieldComponent:
		return &f.component
	default:
		return nil
	}
}

// move shifts focus by delta fields, wrapping around.
func (f *taskForm) move(delta int) tea.Cmd {
	if in := f.input(f.focus); in != nil {
		in.Blur()
	}
	f.focus = formField((int(f.focus) + delta + int(fieldCount)) % int(fieldCount))
	if in := f.input(f.focus); in != nil {
		return in.Focus()
	}
	return nil
}

func (f *taskForm) cycleQuadrant() {
	f.quadrant = f.quadrant.Next()
}

// update forwards msg to the focused text field.
func (f *taskForm) update(msg tea.Msg) tea.Cmd {
	in := f.input(f.focus)
	if in == nil {
		return nil
	}
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return cmd
}

func (f *taskForm) fields() board.TaskFields {
	return board.TaskFields{
		Content:   f.content.Value(),
		Quadrant:  f.quadrant,
		Type:      f.typ.Value(),
		Component: f.component.Value(),
	}
}

func (f *taskForm) view(width int) string {
	title := "Edit " + f.taskID
	if f.creating {
		title = "New task in " + f.column
	}

	rows := []string{styles.CommandHeaderStyle.Render(title)}
	for field := range fieldCount {
		var value string
		if in := f.input(field); in != nil {
			in.Width = max(width-14, 10)
			value = in.View()
		} else {
			value = lipgloss.NewStyle().
				Foreground(styles.QuadrantColor(string(f.quadrant))).
				Render(fmt.Sprintf("● %s", f.quadrant))
		}

		style := styles.FormFieldStyle
		if field == f.focus {
			style = styles.FormFieldFocusStyle
		}
		label := styles.FormLabelStyle.Render(fmt.Sprintf("%-10s", field.label()))
		rows = append(rows, style.Render(label+" "+value))
	}
	return strings.Join(rows, "\n")
}
