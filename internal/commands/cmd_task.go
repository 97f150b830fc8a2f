package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/markup"
	"github.com/colonyops/taskboard/internal/taskboard"
	"github.com/colonyops/taskboard/pkg/iojson"
)

type TaskCmd struct {
	flags *Flags
	app   *taskboard.App

	column     string
	content    string
	quadrant   string
	taskType   string
	component  string
	match      string
	jsonOutput bool

	// interactive reports whether prompts may be shown. Tests replace it.
	interactive func() bool
}

// NewTaskCmd creates a new task command
func NewTaskCmd(flags *Flags, app *taskboard.App) *TaskCmd {
	return &TaskCmd{
		flags:       flags,
		app:         app,
		interactive: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
}

// Register adds the task command to the application
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "task",
		Usage: "Create, edit and inspect tasks",
		Commands: []*cli.Command{
			cmd.addCmd(),
			cmd.editCmd(),
			cmd.rmCmd(),
			cmd.lsCmd(),
			cmd.showCmd(),
			cmd.whereCmd(),
		},
	})

	return app
}

func (cmd *TaskCmd) fieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "content",
			Aliases:     []string{"m"},
			Usage:       "display text",
			Destination: &cmd.content,
		},
		&cli.StringFlag{
			Name:        "quadrant",
			Aliases:     []string{"q"},
			Usage:       "do, schedule, delegate or eliminate",
			Destination: &cmd.quadrant,
		},
		&cli.StringFlag{
			Name:        "type",
			Usage:       "free-form type tag",
			Destination: &cmd.taskType,
		},
		&cli.StringFlag{
			Name:        "component",
			Usage:       "markup payload, sanitized with the configured policy",
			Destination: &cmd.component,
		},
	}
}

func (cmd *TaskCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Append a task to a column",
		UsageText: "taskboard task add [--column <id>] --content <text> [--quadrant <q>]",
		Description: `Creates a task at the bottom of a column (the first column by default) and
prints its id. Without --content on a terminal, a form asks for the fields.`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "column",
				Usage:       "target column id (default: first column)",
				Destination: &cmd.column,
			},
		}, cmd.fieldFlags()...),
		Action: cmd.runAdd,
	}
}

func (cmd *TaskCmd) runAdd(ctx context.Context, c *cli.Command) error {
	column := cmd.column
	if column == "" {
		order := cmd.app.Board.Snapshot().ColumnOrder
		if len(order) == 0 {
			return board.ErrInvalidColumn
		}
		column = order[0]
	}

	if cmd.content == "" && cmd.interactive() {
		if err := cmd.runForm(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("form: %w", err)
		}
	}

	id, err := cmd.app.Board.CreateTask(ctx, column, board.TaskFields{
		Content:   cmd.content,
		Quadrant:  board.Quadrant(cmd.quadrant),
		Type:      cmd.taskType,
		Component: cmd.component,
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.Root().Writer, id)
	return nil
}

func (cmd *TaskCmd) runForm() error {
	options := make([]huh.Option[string], 0, len(board.Quadrants))
	for _, q := range board.Quadrants {
		options = append(options, huh.NewOption(string(q), string(q)))
	}
	if cmd.quadrant == "" {
		cmd.quadrant = string(board.DefaultQuadrant)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Task").
				Description("Shown on the card").
				Validate(validateContent).
				Value(&cmd.content),
			huh.NewSelect[string]().
				Title("Quadrant").
				Options(options...).
				Value(&cmd.quadrant),
			huh.NewInput().
				Title("Type").
				Placeholder(board.DefaultType).
				Value(&cmd.taskType),
		),
	).Run()
}

func validateContent(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

func (cmd *TaskCmd) editCmd() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change the fields of a task",
		UsageText: "taskboard task edit <id> [--content <text>] [--quadrant <q>] [--type <t>] [--component <markup>]",
		Description: `Only the flags that are given are changed. The task stays in its column;
use 'taskboard move' to relocate it.`,
		Flags:  cmd.fieldFlags(),
		Action: cmd.runEdit,
	}
}

func (cmd *TaskCmd) runEdit(ctx context.Context, c *cli.Command) error {
	id, err := taskArg(c)
	if err != nil {
		return err
	}

	var patch board.TaskPatch
	if c.IsSet("content") {
		patch.Content = &cmd.content
	}
	if c.IsSet("quadrant") {
		q := board.Quadrant(cmd.quadrant)
		patch.Quadrant = &q
	}
	if c.IsSet("type") {
		patch.Type = &cmd.taskType
	}
	if c.IsSet("component") {
		patch.Component = &cmd.component
	}
	if patch == (board.TaskPatch{}) {
		return fmt.Errorf("nothing to change: pass at least one of --content, --quadrant, --type, --component")
	}

	return cmd.app.Board.UpdateTask(ctx, id, patch)
}

func (cmd *TaskCmd) rmCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a task",
		UsageText: "taskboard task rm <id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := taskArg(c)
			if err != nil {
				return err
			}
			return cmd.app.Board.DeleteTask(ctx, id)
		},
	}
}

func (cmd *TaskCmd) lsCmd() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List tasks",
		UsageText: "taskboard task ls [--column <id>] [--quadrant <q>] [--match <glob>] [--json]",
		Description: `Lists tasks in column order. --match filters on the task content with a
glob pattern, for example --match 'Read*' or --match '*quiz*'.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "column",
				Usage:       "only tasks in this column",
				Destination: &cmd.column,
			},
			&cli.StringFlag{
				Name:        "quadrant",
				Aliases:     []string{"q"},
				Usage:       "only tasks in this quadrant",
				Destination: &cmd.quadrant,
			},
			&cli.StringFlag{
				Name:        "match",
				Usage:       "glob pattern matched against the content",
				Destination: &cmd.match,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runLs,
	}
}

func (cmd *TaskCmd) runLs(_ context.Context, c *cli.Command) error {
	if cmd.match != "" && !doublestar.ValidatePattern(cmd.match) {
		return fmt.Errorf("invalid --match pattern %q", cmd.match)
	}

	var out []taskRow
	for _, r := range rows(cmd.app.Board.Snapshot()) {
		if cmd.column != "" && r.Column != cmd.column {
			continue
		}
		if cmd.quadrant != "" && string(r.Quadrant) != cmd.quadrant {
			continue
		}
		if cmd.match != "" {
			if ok, _ := doublestar.Match(cmd.match, r.Content); !ok {
				continue
			}
		}
		out = append(out, r)
	}

	w := c.Root().Writer
	if cmd.jsonOutput {
		for _, r := range out {
			if err := iojson.WriteLine(w, r); err != nil {
				return err
			}
		}
		return nil
	}

	if len(out) == 0 {
		_, _ = fmt.Fprintln(c.Root().ErrWriter, "No tasks found")
		return nil
	}
	return printRows(w, out)
}

func (cmd *TaskCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one task",
		UsageText: "taskboard task show <id> [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runShow,
	}
}

func (cmd *TaskCmd) runShow(_ context.Context, c *cli.Command) error {
	id, err := taskArg(c)
	if err != nil {
		return err
	}
	task, ok := cmd.app.Board.Task(id)
	if !ok {
		return fmt.Errorf("%w: %q", board.ErrTaskNotFound, id)
	}
	column, _ := cmd.app.Board.ColumnOf(id)

	w := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteLine(w, rowOf(task, column))
	}

	_, _ = fmt.Fprintf(w, "%s\n\n", task.Content)
	_, _ = fmt.Fprintf(w, "id:       %s\ncolumn:   %s\nquadrant: %s\ntype:     %s\n", task.ID, column, task.Quadrant, task.Type)
	if task.Component != "" {
		rendered, err := markup.Render(task.Component, cmd.app.Config.TUI.ColumnWidth*2)
		if err != nil {
			return fmt.Errorf("render component: %w", err)
		}
		_, _ = fmt.Fprintf(w, "\n%s\n", rendered)
	}
	return nil
}

func (cmd *TaskCmd) whereCmd() *cli.Command {
	return &cli.Command{
		Name:      "where",
		Usage:     "Print the column holding a task",
		UsageText: "taskboard task where <id>",
		Action: func(_ context.Context, c *cli.Command) error {
			id, err := taskArg(c)
			if err != nil {
				return err
			}
			column, ok := cmd.app.Board.ColumnOf(id)
			if !ok {
				return fmt.Errorf("%w: %q", board.ErrTaskNotFound, id)
			}
			_, _ = fmt.Fprintln(c.Root().Writer, column)
			return nil
		},
	}
}

func taskArg(c *cli.Command) (string, error) {
	if c.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one task id, got %d arguments", c.Args().Len())
	}
	return c.Args().First(), nil
}
