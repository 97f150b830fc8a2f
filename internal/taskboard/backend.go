package taskboard

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/config"
	"github.com/colonyops/taskboard/internal/core/kv"
	"github.com/colonyops/taskboard/internal/data/db"
	"github.com/colonyops/taskboard/internal/data/stores"
	"github.com/colonyops/taskboard/internal/store/jsonfile"
	"github.com/colonyops/taskboard/internal/store/memory"
	"github.com/colonyops/taskboard/internal/store/redisslot"
)

// Backend is an open storage backend. It hands out one slot per board name
// and reports external changes for backends that can detect them.
type Backend interface {
	Name() config.Backend
	Slot(name string) board.Slot
	List(ctx context.Context) ([]string, error)
	// Watch reports writes made by other processes to the named board. It
	// returns a nil channel when the backend cannot detect them.
	Watch(ctx context.Context, name string) (<-chan struct{}, error)
	Close() error
}

// OpenBackend opens the backend selected by cfg.
func OpenBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendJSONFile:
		if err := os.MkdirAll(cfg.BoardsDir(), 0o755); err != nil {
			return nil, fmt.Errorf("create boards directory: %w", err)
		}
		return &fileBackend{dir: cfg.BoardsDir(), log: log, slots: map[string]*jsonfile.Slot{}}, nil
	case config.BackendSQLite:
		return openSQLite(cfg, log)
	case config.BackendRedis:
		r := cfg.Storage.Redis
		client, err := redisslot.NewClient(ctx, redisslot.Options{
			URL:       r.URL,
			Addr:      r.Addr,
			Password:  r.Password,
			DB:        r.DB,
			KeyPrefix: r.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return &redisBackend{client: client, prefix: r.KeyPrefix, log: log, slots: map[string]*redisslot.Slot{}}, nil
	case config.BackendMemory:
		return &memoryBackend{boards: memory.NewBoards()}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

type fileBackend struct {
	dir   string
	log   zerolog.Logger
	slots map[string]*jsonfile.Slot

	watchers []*jsonfile.Watcher
}

func (b *fileBackend) Name() config.Backend { return config.BackendJSONFile }

// slot returns a shared slot per name so the watcher can recognise the
// slot's own writes.
func (b *fileBackend) slot(name string) *jsonfile.Slot {
	s, ok := b.slots[name]
	if !ok {
		s = jsonfile.NewSlot(b.dir, name)
		b.slots[name] = s
	}
	return s
}

func (b *fileBackend) Slot(name string) board.Slot { return b.slot(name) }

func (b *fileBackend) List(context.Context) ([]string, error) { return jsonfile.List(b.dir) }

func (b *fileBackend) Watch(ctx context.Context, name string) (<-chan struct{}, error) {
	w, err := jsonfile.NewWatcher(b.slot(name), b.log)
	if err != nil {
		return nil, err
	}
	b.watchers = append(b.watchers, w)

	out := make(chan struct{}, 1)
	changes := w.Watch(ctx)
	go func() {
		defer close(out)
		for range changes {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, nil
}

func (b *fileBackend) Close() error {
	var errs []error
	for _, w := range b.watchers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

type sqliteBackend struct {
	db *db.DB
	kv kv.KV
}

// openSQLite opens the database, moving a corrupt file aside and starting
// over once when the first attempt finds one.
func openSQLite(cfg *config.Config, log zerolog.Logger) (*sqliteBackend, error) {
	opts := db.OpenOptions{
		FileName:     db.DefaultFileName,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err != nil && stores.IsCorruptionError(err) {
		backup, rerr := stores.RecoverFromCorruption(cfg.DatabaseFile())
		if rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		log.Warn().Err(err).Str("backup", backup).Msg("database was corrupt, moved aside and recreated")
		database, err = db.Open(cfg.DataDir, opts)
	}
	if err != nil {
		return nil, err
	}

	return &sqliteBackend{db: database, kv: stores.NewKVStore(database)}, nil
}

func (b *sqliteBackend) Name() config.Backend { return config.BackendSQLite }

func (b *sqliteBackend) Slot(name string) board.Slot { return stores.NewBoardSlot(b.kv, name) }

func (b *sqliteBackend) List(ctx context.Context) ([]string, error) { return stores.Boards(ctx, b.kv) }

func (b *sqliteBackend) Watch(context.Context, string) (<-chan struct{}, error) { return nil, nil }

func (b *sqliteBackend) Close() error { return b.db.Close() }

type redisBackend struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
	slots  map[string]*redisslot.Slot
}

func (b *redisBackend) Name() config.Backend { return config.BackendRedis }

// slot returns a shared slot per name so Watch can skip the slot's own
// announcements.
func (b *redisBackend) slot(name string) *redisslot.Slot {
	s, ok := b.slots[name]
	if !ok {
		s = redisslot.New(b.client, b.prefix, name, b.log)
		b.slots[name] = s
	}
	return s
}

func (b *redisBackend) Slot(name string) board.Slot { return b.slot(name) }

func (b *redisBackend) List(ctx context.Context) ([]string, error) {
	return redisslot.List(ctx, b.client, b.prefix)
}

func (b *redisBackend) Watch(ctx context.Context, name string) (<-chan struct{}, error) {
	return b.slot(name).Watch(ctx)
}

func (b *redisBackend) Close() error { return b.client.Close() }

type memoryBackend struct {
	boards *memory.Boards
}

func (b *memoryBackend) Name() config.Backend { return config.BackendMemory }

func (b *memoryBackend) Slot(name string) board.Slot { return memory.New(b.boards, name) }

func (b *memoryBackend) List(context.Context) ([]string, error) { return b.boards.Keys(), nil }

func (b *memoryBackend) Watch(context.Context, string) (<-chan struct{}, error) { return nil, nil }

func (b *memoryBackend) Close() error { return nil }
