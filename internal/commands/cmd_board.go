package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/taskboard"
	"github.com/colonyops/taskboard/pkg/iojson"
)

type BoardCmd struct {
	flags *Flags
	app   *taskboard.App

	jsonOutput bool
	input      iojson.FileReader[board.State]
	yes        bool
}

// NewBoardCmd creates a new board command
func NewBoardCmd(flags *Flags, app *taskboard.App) *BoardCmd {
	return &BoardCmd{flags: flags, app: app}
}

// Register adds the board command to the application
func (cmd *BoardCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "board",
		Usage: "Inspect and manage the whole board",
		Description: `Board commands operate on the board selected with --board (default from config).

The stored record is the JSON layout {tasks, columns, columnOrder}; export and
import use the same layout so boards can be moved between backends.`,
		Commands: []*cli.Command{
			cmd.showCmd(),
			cmd.exportCmd(),
			cmd.importCmd(),
			cmd.resetCmd(),
			cmd.checkCmd(),
			cmd.lsCmd(),
		},
	})

	return app
}

func (cmd *BoardCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print every column and its tasks",
		UsageText: "taskboard board show [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output one JSON line per task",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runShow,
	}
}

func (cmd *BoardCmd) runShow(_ context.Context, c *cli.Command) error {
	state := cmd.app.Board.Snapshot()
	w := c.Root().Writer

	if cmd.jsonOutput {
		for _, r := range rows(state) {
			if err := iojson.WriteLine(w, r); err != nil {
				return err
			}
		}
		return nil
	}

	for i, col := range state.OrderedColumns() {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "%s (%d)\n", col.Title, len(col.TaskIDs))
		for _, task := range state.TasksIn(col.ID) {
			_, _ = fmt.Fprintf(w, "  [%s] %s  %s\n", task.Quadrant, task.Content, task.ID)
		}
	}
	return nil
}

func (cmd *BoardCmd) exportCmd() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write the board record as JSON",
		UsageText: "taskboard board export > board.json",
		Action: func(_ context.Context, c *cli.Command) error {
			return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, cmd.app.Board.Snapshot())
		},
	}
}

func (cmd *BoardCmd) importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Replace the board with a JSON record",
		UsageText: "taskboard board import -f board.json",
		Description: `Reads a board record from a file or stdin and replaces the current board.

The record is repaired on the way in: dangling and duplicate task references
are dropped and unreferenced tasks are removed. Each fix is printed.`,
		Flags:  []cli.Flag{cmd.input.Flag()},
		Action: cmd.runImport,
	}
}

func (cmd *BoardCmd) runImport(ctx context.Context, c *cli.Command) error {
	state, err := cmd.input.Read()
	if err != nil {
		return err
	}

	problems, err := cmd.app.Board.Import(ctx, state)
	for _, p := range problems {
		_, _ = fmt.Fprintf(c.Root().ErrWriter, "repaired %s\n", p)
	}
	if err != nil {
		return err
	}

	snap := cmd.app.Board.Snapshot()
	_, _ = fmt.Fprintf(c.Root().Writer, "imported %d tasks in %d columns\n", len(snap.Tasks), len(snap.ColumnOrder))
	return nil
}

func (cmd *BoardCmd) resetCmd() *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Replace the board with an empty one",
		UsageText: "taskboard board reset [--yes]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "skip the confirmation prompt",
				Destination: &cmd.yes,
			},
		},
		Action: cmd.runReset,
	}
}

func (cmd *BoardCmd) runReset(ctx context.Context, c *cli.Command) error {
	if !cmd.yes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to reset without --yes when stdin is not a terminal")
		}

		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete every task on board %q?", cmd.app.Board.Name())).
			Affirmative("Reset").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if errors.Is(err, huh.ErrUserAborted) || (err == nil && !confirmed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("confirm: %w", err)
		}
	}

	if err := cmd.app.Board.Reset(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "board %s reset\n", cmd.app.Board.Name())
	return nil
}

func (cmd *BoardCmd) checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report inconsistencies in the stored record without changing it",
		UsageText: "taskboard board check [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output one JSON line per problem",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runCheck,
	}
}

func (cmd *BoardCmd) runCheck(ctx context.Context, c *cli.Command) error {
	problems, err := cmd.app.Board.Check(ctx)
	if err != nil {
		return fmt.Errorf("check board: %w", err)
	}

	w := c.Root().Writer
	for _, p := range problems {
		if cmd.jsonOutput {
			if err := iojson.WriteLine(w, p); err != nil {
				return err
			}
			continue
		}
		_, _ = fmt.Fprintln(w, p.String())
	}

	if len(problems) > 0 {
		return cli.Exit(fmt.Sprintf("%d problem(s) found", len(problems)), 1)
	}
	if !cmd.jsonOutput {
		_, _ = fmt.Fprintln(w, "ok")
	}
	return nil
}

func (cmd *BoardCmd) lsCmd() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List the boards stored in the configured backend",
		UsageText: "taskboard board ls",
		Action: func(ctx context.Context, c *cli.Command) error {
			names, err := cmd.app.Backend.List(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				_, _ = fmt.Fprintln(c.Root().Writer, name)
			}
			return nil
		},
	}
}
