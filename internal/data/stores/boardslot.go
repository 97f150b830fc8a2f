package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/internal/core/kv"
)

const (
	boardNamespace = "board"
	busyRetries    = 3
	busyBackoff    = 50 * time.Millisecond
)

// BoardSlot stores one named board record in the KV table under "board:<name>".
type BoardSlot struct {
	name   string
	boards *kv.TypedKV[json.RawMessage]
}

var _ board.Slot = (*BoardSlot)(nil)

// NewBoardSlot returns the slot for the named board.
func NewBoardSlot(store kv.KV, name string) *BoardSlot {
	return &BoardSlot{
		name:   name,
		boards: kv.Scoped[json.RawMessage](store, boardNamespace),
	}
}

// Read returns the stored record or board.ErrNoState.
func (s *BoardSlot) Read(ctx context.Context) ([]byte, error) {
	raw, err := s.boards.Get(ctx, s.name)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("board %q: %w", s.name, board.ErrNoState)
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Write replaces the stored record, retrying briefly while the database is
// locked by another process.
func (s *BoardSlot) Write(ctx context.Context, data []byte) error {
	var err error
	wait := busyBackoff
	for attempt := range busyRetries {
		err = s.boards.Set(ctx, s.name, json.RawMessage(data))
		if !IsBusyError(err) || attempt == busyRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			wait *= 2
		}
	}
	return err
}

// Boards lists the names of every board stored in the database.
func Boards(ctx context.Context, store kv.KV) ([]string, error) {
	return kv.Scoped[json.RawMessage](store, boardNamespace).Keys(ctx)
}
