package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/colonyops/taskboard/internal/core/board"
)

// taskRow is the JSON-lines shape of a task with its column.
type taskRow struct {
	ID        string         `json:"id"`
	Column    string         `json:"column"`
	Content   string         `json:"content"`
	Quadrant  board.Quadrant `json:"quadrant"`
	Type      string         `json:"type"`
	Component string         `json:"component,omitempty"`
}

func rowOf(task board.Task, column string) taskRow {
	return taskRow{
		ID:        task.ID,
		Column:    column,
		Content:   task.Content,
		Quadrant:  task.Quadrant,
		Type:      task.Type,
		Component: task.Component,
	}
}

// rows returns every task on the board in column order.
func rows(state board.State) []taskRow {
	out := make([]taskRow, 0, len(state.Tasks))
	for _, col := range state.OrderedColumns() {
		for _, task := range state.TasksIn(col.ID) {
			out = append(out, rowOf(task, col.ID))
		}
	}
	return out
}

func printRows(w io.Writer, rs []taskRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCOLUMN\tQUADRANT\tTYPE\tCONTENT")
	for _, r := range rs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Column, r.Quadrant, r.Type, r.Content)
	}
	return tw.Flush()
}
