// Package memory keeps boards in process memory. It backs the "memory"
// storage backend, which is useful for demos and tests where nothing should
// touch disk.
package memory

import (
	"bytes"
	"context"
	"fmt"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/colonyops/taskboard/pkg/kv"
)

// Boards holds encoded boards keyed by name.
type Boards = kv.Store[string, []byte]

// NewBoards returns an empty board table.
func NewBoards() *Boards {
	return kv.New[string, []byte]()
}

// Slot is one named entry in a Boards table.
type Slot struct {
	boards *Boards
	name   string
}

var _ board.Slot = (*Slot)(nil)

// New returns the slot for name in boards.
func New(boards *Boards, name string) *Slot {
	return &Slot{boards: boards, name: name}
}

func (s *Slot) Read(context.Context) ([]byte, error) {
	data, ok := s.boards.Get(s.name)
	if !ok {
		return nil, fmt.Errorf("board %q: %w", s.name, board.ErrNoState)
	}
	return bytes.Clone(data), nil
}

func (s *Slot) Write(_ context.Context, data []byte) error {
	s.boards.Set(s.name, bytes.Clone(data))
	return nil
}
