package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskboard/internal/commands"
	"github.com/colonyops/taskboard/internal/core/config"
	"github.com/colonyops/taskboard/internal/core/logging"
	"github.com/colonyops/taskboard/internal/core/styles"
	"github.com/colonyops/taskboard/internal/taskboard"
	"github.com/colonyops/taskboard/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// runsTUI reports whether the invocation ends up in the interactive board.
func runsTUI(c *cli.Command) bool {
	return c.Args().Len() == 0 || c.Args().First() == "tui"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		logCloser func()
		deferred  *logutils.DeferredWriter
		tbApp     = &taskboard.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "taskboard",
		Usage:     "A Kanban board for the terminal, the shell and HTTP clients",
		UsageText: "taskboard [global options] command [command options]",
		Description: `Taskboard keeps tasks in ordered columns and tags each one with an
Eisenhower quadrant. Every change is saved immediately to the configured
backend (JSON file, SQLite, Redis or memory).

Run 'taskboard' with no arguments to open the interactive board.
Run 'taskboard serve' to expose the board over HTTP.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TASKBOARD_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr, held back while the board is open)",
				Sources:     cli.EnvVars("TASKBOARD_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKBOARD_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKBOARD_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "board",
				Aliases:     []string{"b"},
				Usage:       "board name (defaults to board.name from config)",
				Sources:     cli.EnvVars("TASKBOARD_BOARD"),
				Destination: &flags.Board,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Usage:       "reload the board when another process changes it",
				Sources:     cli.EnvVars("TASKBOARD_WATCH"),
				Destination: &flags.Watch,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			hook := logging.ContextHook{}
			if flags.LogFile == "" && runsTUI(c) {
				deferred = &logutils.DeferredWriter{}
				logger, err := logutils.NewWriter(flags.LogLevel, deferred, hook)
				if err != nil {
					return ctx, fmt.Errorf("setup logger: %w", err)
				}
				log.Logger = logger
			} else {
				logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile, hook)
				if err != nil {
					return ctx, fmt.Errorf("setup logger: %w", err)
				}
				log.Logger = logger
				logCloser = closer
			}

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.Board != "" {
				if err := config.ValidBoardName(flags.Board); err != nil {
					return ctx, fmt.Errorf("--board: %w", err)
				}
				cfg.Board.Name = flags.Board
			}
			if flags.Watch {
				cfg.Watch = true
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.TUI.Theme)
			styles.SetTheme(palette)

			opened, err := taskboard.Open(ctx, cfg)
			if err != nil {
				return ctx, err
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*tbApp = *opened

			if err := tbApp.Start(ctx); err != nil {
				return ctx, err
			}

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			var closeErr error
			if tbApp.Backend != nil {
				if err := tbApp.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close backend")
					closeErr = err
				}
			}

			if deferred != nil {
				_ = deferred.Flush(os.Stderr)
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return closeErr
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, tbApp)

	app = commands.NewBoardCmd(flags, tbApp).Register(app)
	app = commands.NewTaskCmd(flags, tbApp).Register(app)
	app = commands.NewMoveCmd(flags, tbApp).Register(app)
	app = commands.NewServeCmd(flags, tbApp).Register(app)
	app = commands.NewConfigCmd(flags, tbApp).Register(app)
	app = tuiCmd.Register(app)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'taskboard --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	stop()
	os.Exit(exitCode)
}
