package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/styles"
)

const (
	iconQuadrant = "●"
	dropLabel    = "drop here"
)

// View implements tea.Model.
func (m Model) View() string {
	cols := m.columns()
	rendered := make([]string, 0, len(cols))
	for i, col := range cols {
		rendered = append(rendered, m.renderColumn(i, col))
	}

	parts := []string{
		styles.CommandHeaderStyle.Render(m.board.Name()),
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
	}

	switch m.mode {
	case modeForm:
		parts = append(parts, m.form.view(m.colWidth*2))
	case modeConfirmDelete:
		parts = append(parts, styles.StatusErrorStyle.Render(fmt.Sprintf("Delete %s? (y/n)", m.deleting)))
	}

	if m.status != "" {
		style := styles.StatusStyle
		if m.statusErr {
			style = styles.StatusErrorStyle
		}
		parts = append(parts, style.Render(m.status))
	}

	parts = append(parts, styles.HelpStyle.Render(m.help.View(m.helpKeys())))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) helpKeys() help.KeyMap {
	switch {
	case m.mode == modeForm:
		return formHelp(m.keys)
	case m.mode == modeConfirmDelete:
		return confirmHelp(m.keys)
	case m.drag.Active():
		return dragHelp(m.keys)
	default:
		return boardHelp(m.keys)
	}
}

func (m Model) renderColumn(i int, col board.Column) string {
	inner := max(m.colWidth-2, 4)
	focused := i == m.col
	dropping := focused && m.drag.Active()

	title := fmt.Sprintf("%s (%d)", col.Title, len(col.TaskIDs))
	lines := []string{styles.ColumnTitleStyle.Render(ansi.Truncate(title, inner, "…"))}

	for j, id := range col.TaskIDs {
		if dropping && j == m.row {
			lines = append(lines, dropMarker(inner))
		}
		task := m.state.Tasks[id]
		lines = append(lines, m.renderTask(task, focused && !m.drag.Active() && j == m.row, inner)...)
	}
	if dropping && m.row >= len(col.TaskIDs) {
		lines = append(lines, dropMarker(inner))
	}
	if len(col.TaskIDs) == 0 && !dropping {
		lines = append(lines, styles.TaskMetaStyle.Render("empty"))
	}

	style := styles.ColumnStyle
	switch {
	case dropping:
		style = styles.ColumnDropStyle
	case focused:
		style = styles.ColumnFocusedStyle
	}
	return style.Width(m.colWidth).Render(strings.Join(lines, "\n"))
}

func (m Model) renderTask(task board.Task, selected bool, width int) []string {
	style := styles.TaskStyle
	switch {
	case m.drag.Active() && m.drag.TaskID() == task.ID:
		style = styles.TaskDraggingStyle
	case selected:
		style = styles.TaskSelectedStyle
	}

	marker := lipgloss.NewStyle().
		Foreground(styles.QuadrantColor(string(task.Quadrant))).
		Render(iconQuadrant)
	content := ansi.Truncate(task.Content, width-2, "…")

	meta := fmt.Sprintf("  %s · %s ·", ansi.Truncate(task.ID, 10, "…"), task.Quadrant)
	tag := ansi.Truncate(task.Type, max(width-ansi.StringWidth(meta)-1, 1), "…")

	return []string{
		marker + " " + style.Render(content),
		styles.TaskMetaStyle.Render(meta) + " " + lipgloss.NewStyle().Foreground(styles.ColorForString(task.Type)).Render(tag),
	}
}

func dropMarker(width int) string {
	pad := max(width-len(dropLabel)-2, 0)
	return styles.DropMarkerStyle.Render("▸ " + dropLabel + " " + strings.Repeat("─", pad))
}
