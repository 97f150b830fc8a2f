// Package config handles configuration loading and validation for taskboard.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/markup"
	"github.com/colonyops/taskboard/internal/core/styles"
	"gopkg.in/yaml.v3"
)

// Backend names a storage backend for the board record.
type Backend string

const (
	BackendJSONFile Backend = "jsonfile"
	BackendSQLite   Backend = "sqlite"
	BackendRedis    Backend = "redis"
	BackendMemory   Backend = "memory"
)

// IsValid checks if the backend is a supported backend.
func (b Backend) IsValid() bool {
	switch b {
	case BackendJSONFile, BackendSQLite, BackendRedis, BackendMemory:
		return true
	default:
		return false
	}
}

// Config holds the application configuration.
type Config struct {
	Board    BoardConfig    `yaml:"board"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Markup   MarkupConfig   `yaml:"markup"`
	Server   ServerConfig   `yaml:"server"`
	TUI      TUIConfig      `yaml:"tui"`
	Watch    bool           `yaml:"watch"`   // reload when another process changes the stored board
	DataDir  string         `yaml:"-"`       // set by caller, not from config file
}

// BoardConfig selects the board and the layout a fresh board starts with.
type BoardConfig struct {
	Name    string       `yaml:"name"`
	Columns board.Layout `yaml:"columns"`
}

// StorageConfig selects where the board record lives.
type StorageConfig struct {
	Backend Backend     `yaml:"backend"`
	Dir     string      `yaml:"dir"` // jsonfile directory, defaults to <data_dir>/boards
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds the redis connection used by the redis backend.
// URL takes precedence over Addr.
type RedisConfig struct {
	URL       string `yaml:"url"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// DatabaseConfig holds the sqlite pool settings for the sqlite backend.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// MarkupConfig selects the sanitizer policy for task components.
type MarkupConfig struct {
	Policy markup.Policy `yaml:"policy"`
}

// ServerConfig holds the HTTP API listener.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"` // CORS origins for browser clients
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	ColumnWidth int    `yaml:"column_width"`
	Theme       string `yaml:"theme"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Board: BoardConfig{
			Name:    "default",
			Columns: board.DefaultLayout(),
		},
		Storage: StorageConfig{
			Backend: BackendJSONFile,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "taskboard",
			},
		},
		Database: DatabaseConfig{
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
		Markup: MarkupConfig{Policy: markup.PolicyStrict},
		Server: ServerConfig{Addr: "127.0.0.1:7070"},
		TUI:    TUIConfig{ColumnWidth: 32, Theme: styles.DefaultTheme},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			// Decode into a zero value so an explicit columns list replaces the
			// default layout instead of merging into it.
			cfg.Board.Columns = nil
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Board.Name == "" {
		c.Board.Name = defaults.Board.Name
	}
	if len(c.Board.Columns) == 0 {
		c.Board.Columns = defaults.Board.Columns
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.Dir == "" && c.DataDir != "" {
		c.Storage.Dir = filepath.Join(c.DataDir, "boards")
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = defaults.Storage.Redis.Addr
	}
	if c.Storage.Redis.KeyPrefix == "" {
		c.Storage.Redis.KeyPrefix = defaults.Storage.Redis.KeyPrefix
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Markup.Policy == "" {
		c.Markup.Policy = defaults.Markup.Policy
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.TUI.ColumnWidth == 0 {
		c.TUI.ColumnWidth = defaults.TUI.ColumnWidth
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
}

// BoardsDir returns the directory holding jsonfile board records.
func (c *Config) BoardsDir() string {
	return c.Storage.Dir
}

// DatabaseFile returns the path of the sqlite database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "taskboard.db")
}
