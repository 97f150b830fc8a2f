package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskboard/internal/api"
	"github.com/colonyops/taskboard/internal/taskboard"
)

type ServeCmd struct {
	flags *Flags
	app   *taskboard.App

	addr    string
	pprof   bool
	origins []string
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags, app *taskboard.App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the board over HTTP",
		UsageText: "taskboard serve [--addr host:port] [--pprof]",
		Description: `Starts a JSON API for the selected board.

Routes:
  GET    /api/board                    whole board
  POST   /api/columns/{column}/tasks   create a task at the tail of a column
  GET    /api/tasks/{id}               one task and its column
  PATCH  /api/tasks/{id}               update task fields
  DELETE /api/tasks/{id}               delete a task
  POST   /api/tasks/{id}/move          {"target": column, "before": task id}
  GET    /api/tasks/{id}/column        column holding the task
  GET    /api/events                   server-sent board change events
  GET    /healthz                      liveness

The server stops on interrupt.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address (default from server.addr)",
				Sources:     cli.EnvVars("TASKBOARD_ADDR"),
				Destination: &cmd.addr,
			},
			&cli.BoolFlag{
				Name:        "pprof",
				Usage:       "mount net/http/pprof under /debug/pprof",
				Destination: &cmd.pprof,
			},
			&cli.StringSliceFlag{
				Name:        "allow-origin",
				Usage:       "CORS origin allowed to call the API (repeatable, default from server.allow_origins)",
				Destination: &cmd.origins,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	addr := cmd.app.Config.Server.Addr
	if cmd.addr != "" {
		addr = cmd.addr
	}
	origins := cmd.app.Config.Server.AllowOrigins
	if len(cmd.origins) > 0 {
		origins = cmd.origins
	}

	srv := api.New(cmd.app.Board, cmd.app.Bus, api.Options{
		AllowOrigins: origins,
		Profiler:     cmd.pprof,
	})
	return srv.Run(ctx, addr)
}
