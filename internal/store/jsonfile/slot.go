// Package jsonfile stores boards as JSON files on disk and watches them for
// edits made by other processes.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/colonyops/taskboard/internal/core/board"
)

// Slot keeps one board in "<dir>/<name>.json". Writes are atomic: the record
// is written to a sibling temp file and renamed into place.
type Slot struct {
	path string

	mu   sync.Mutex
	last []byte // bytes of our most recent write, used to ignore our own file events
}

var _ board.Slot = (*Slot)(nil)

// NewSlot returns the slot for the named board inside dir.
func NewSlot(dir, name string) *Slot {
	return &Slot{path: filepath.Join(dir, name+".json")}
}

// Path returns the file backing the slot.
func (s *Slot) Path() string {
	return s.path
}

// Read returns the file contents, or board.ErrNoState when the file is
// missing or empty.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", s.path, board.ErrNoState)
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", s.path, board.ErrNoState)
	}
	return data, nil
}

// Write replaces the file atomically. The record is indented so the file
// stays pleasant to edit by hand.
func (s *Slot) Write(ctx context.Context, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		buf.Reset()
		buf.Write(data)
	}
	buf.WriteByte('\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	s.last = buf.Bytes()
	return nil
}

// isOwnWrite reports whether data is exactly what this slot last wrote.
func (s *Slot) isOwnWrite(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last != nil && bytes.Equal(s.last, data)
}

// List returns the names of the boards stored in dir, sorted. A missing
// directory holds no boards.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}

	var names []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok || strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
