package taskboard

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/config"
	"github.com/colonyops/taskboard/internal/store/jsonfile"
)

func testConfig(t *testing.T, backend config.Backend) *config.Config {
	t.Helper()
	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)
	cfg.Storage.Backend = backend
	return cfg
}

func openApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestApp_PersistsAcrossOpens(t *testing.T) {
	for _, backend := range []config.Backend{config.BackendJSONFile, config.BackendSQLite} {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, backend)

			app, err := Open(ctx, cfg)
			require.NoError(t, err)
			id, err := app.Board.CreateTask(ctx, "inProgress", board.TaskFields{Content: "Grade quiz", Component: "<b>rubric</b>"})
			require.NoError(t, err)
			require.NoError(t, app.Close())

			reopened := openApp(t, cfg)
			task, ok := reopened.Board.Task(id)
			require.True(t, ok)
			assert.Equal(t, "Grade quiz", task.Content)
			assert.Equal(t, "rubric", task.Component, "strict policy strips tags")

			col, _ := reopened.Board.ColumnOf(id)
			assert.Equal(t, "inProgress", col)

			names, err := reopened.Backend.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"default"}, names)
		})
	}
}

func TestApp_MemoryBackendStartsEmpty(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.Board.Columns = board.Layout{{ID: "backlog", Title: "Backlog"}}

	app := openApp(t, cfg)
	assert.Equal(t, []string{"backlog"}, app.Board.Snapshot().ColumnOrder)

	_, err := app.Board.CreateTask(context.Background(), "backlog", board.TaskFields{Content: "x"})
	require.NoError(t, err)

	names, err := app.Backend.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, names)
}

func TestApp_RecoversCorruptDatabase(t *testing.T) {
	cfg := testConfig(t, config.BackendSQLite)
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.DatabaseFile(), bytes.Repeat([]byte("garbage!"), 512), 0o644))

	app := openApp(t, cfg)
	assert.Empty(t, app.Board.Snapshot().Tasks)

	backups, err := filepath.Glob(cfg.DatabaseFile() + ".corrupt.*")
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestApp_WatchReloadsExternalWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(t, config.BackendJSONFile)
	cfg.Watch = true
	app := openApp(t, cfg)
	require.NoError(t, app.Start(ctx))

	// Own writes do not trigger a reload.
	_, err := app.Board.CreateTask(ctx, "todo", board.TaskFields{Content: "mine"})
	require.NoError(t, err)

	external := board.DefaultState()
	external.Tasks["ext"] = board.Task{ID: "ext", Content: "edited elsewhere", Quadrant: board.QuadrantDo, Type: board.DefaultType}
	done := external.Columns["done"]
	done.TaskIDs = []string{"ext"}
	external.Columns["done"] = done
	data, err := board.Encode(external)
	require.NoError(t, err)
	require.NoError(t, jsonfile.NewSlot(cfg.BoardsDir(), cfg.Board.Name).Write(ctx, data))

	require.Eventually(t, func() bool {
		_, ok := app.Board.Task("ext")
		return ok
	}, 3*time.Second, 20*time.Millisecond)
	assert.Len(t, app.Board.Snapshot().Tasks, 1)
}

func TestApp_StartWithoutWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := openApp(t, testConfig(t, config.BackendSQLite))
	require.NoError(t, app.Start(ctx))
}
