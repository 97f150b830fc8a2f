package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/taskboard"
)

type MoveCmd struct {
	flags *Flags
	app   *taskboard.App

	to     string
	before string
}

// NewMoveCmd creates a new move command
func NewMoveCmd(flags *Flags, app *taskboard.App) *MoveCmd {
	return &MoveCmd{flags: flags, app: app}
}

// Register adds the move command to the application
func (cmd *MoveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "move",
		Usage:     "Move a task to another column or position",
		UsageText: "taskboard move <id> --to <column> [--before <id>]",
		Description: `Moves a task the same way a drag and drop does. With --before the task is
placed in front of that task when it is in the target column; otherwise it is
appended to the end of the column.

Moving a task onto itself, or within its column without --before, changes
nothing and prints "unchanged".`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "to",
				Aliases:     []string{"t"},
				Usage:       "target column id",
				Required:    true,
				Destination: &cmd.to,
			},
			&cli.StringFlag{
				Name:        "before",
				Usage:       "anchor task id in the target column",
				Destination: &cmd.before,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *MoveCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := taskArg(c)
	if err != nil {
		return err
	}

	source, ok := cmd.app.Board.ColumnOf(id)
	if !ok {
		return fmt.Errorf("%w: %q", board.ErrTaskNotFound, id)
	}

	var drag board.Drag
	drag.Start(id, source)
	drag.Over(cmd.to, cmd.before)
	moved, err := drag.Drop(ctx, cmd.app.Board)
	if err != nil {
		return err
	}

	if !moved {
		_, _ = fmt.Fprintln(c.Root().Writer, "unchanged")
		return nil
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "%s -> %s\n", id, cmd.to)
	return nil
}
