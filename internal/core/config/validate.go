package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/markup"
	"github.com/colonyops/taskboard/internal/core/styles"
	"github.com/hay-kot/criterio"
)

// boardNamePattern keeps board names safe for file names and redis keys.
var boardNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// minColumnWidth is the narrowest column the TUI can lay out.
const minColumnWidth = 12

// ValidBoardName reports an error when name cannot be used as a board name.
func ValidBoardName(name string) error {
	if !boardNamePattern.MatchString(name) {
		return fmt.Errorf("%q must match %s", name, boardNamePattern)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, notEmpty),
		criterio.Run("board.name", c.Board.Name, ValidBoardName),
		criterio.Run("board.columns", c.Board.Columns, validLayout),
		criterio.Run("storage.backend", c.Storage.Backend, validBackend),
		c.validateBackend(),
		criterio.Run("database.max_open_conns", c.Database.MaxOpenConns, atLeast(1)),
		criterio.Run("database.max_idle_conns", c.Database.MaxIdleConns, atLeast(0)),
		criterio.Run("database.busy_timeout", c.Database.BusyTimeout, atLeast(0)),
		criterio.Run("markup.policy", c.Markup.Policy, validPolicy),
		criterio.Run("server.addr", c.Server.Addr, notEmpty),
		criterio.Run("tui.column_width", c.TUI.ColumnWidth, atLeast(minColumnWidth)),
		criterio.Run("tui.theme", c.TUI.Theme, validTheme),
	)
}

// ValidateDeep runs Validate and then checks that the paths the configuration
// points at are usable.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("storage.dir", c.Storage.Dir, isDirectoryOrNotExist),
	)
}

func (c *Config) validateBackend() error {
	if c.Storage.Backend == BackendRedis && c.Storage.Redis.URL == "" && c.Storage.Redis.Addr == "" {
		return criterio.NewFieldErrors("storage.redis", fmt.Errorf("url or addr is required for the redis backend"))
	}
	if c.Storage.Backend == BackendJSONFile && c.Storage.Dir == "" {
		return criterio.NewFieldErrors("storage.dir", fmt.Errorf("cannot be empty for the jsonfile backend"))
	}
	return nil
}

func validLayout(layout board.Layout) error {
	if len(layout) == 0 {
		return fmt.Errorf("at least one column is required")
	}

	var errs []error
	seen := make(map[string]bool, len(layout))
	for i, col := range layout {
		switch {
		case col.ID == "":
			errs = append(errs, fmt.Errorf("column %d: id cannot be empty", i))
		case seen[col.ID]:
			errs = append(errs, fmt.Errorf("column %d: duplicate column %q", i, col.ID))
		}
		seen[col.ID] = true
	}
	return errors.Join(errs...)
}

func validBackend(b Backend) error {
	if !b.IsValid() {
		return fmt.Errorf("unknown backend %q", b)
	}
	return nil
}

func validPolicy(p markup.Policy) error {
	if !p.IsValid() {
		return fmt.Errorf("unknown policy %q, expected one of %v", p, markup.Policies)
	}
	return nil
}

func notEmpty(v string) error {
	if v == "" {
		return fmt.Errorf("cannot be empty")
	}
	return nil
}

func atLeast(n int) func(int) error {
	return func(v int) error {
		if v < n {
			return fmt.Errorf("must be at least %d", n)
		}
		return nil
	}
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func validTheme(name string) error {
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q, available: %v", name, styles.ThemeNames())
	}
	return nil
}
