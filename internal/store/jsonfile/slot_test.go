package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/colonyops/taskboard/internal/core/board"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot_ReadMissing(t *testing.T) {
	slot := NewSlot(t.TempDir(), "default")

	_, err := slot.Read(context.Background())
	require.ErrorIs(t, err, board.ErrNoState)
}

func TestSlot_ReadEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.json"), []byte("\n"), 0o644))

	_, err := NewSlot(dir, "default").Read(context.Background())
	require.ErrorIs(t, err, board.ErrNoState)
}

func TestSlot_WriteIsAtomicAndIndented(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "boards")
	slot := NewSlot(dir, "spring")

	require.NoError(t, slot.Write(ctx, []byte(`{"columnOrder":["todo"]}`)))

	data, err := os.ReadFile(filepath.Join(dir, "spring.json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"columnOrder\": [\n    \"todo\"\n  ]\n}\n", string(data))

	_, err = os.Stat(slot.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	got, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columnOrder":["todo"]}`, string(got))
}

func TestSlot_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := NewSlot(t.TempDir(), "default")
	p := board.NewPersistence(slot, nil, zerolog.Nop())

	store := board.NewStore(p.Load(ctx), board.WithPersistence(p))
	id, err := store.CreateTask(ctx, "inProgress", board.TaskFields{Content: "Mark essays", Type: "grading"})
	require.NoError(t, err)

	loaded := board.NewPersistence(NewSlot(filepath.Dir(slot.Path()), "default"), nil, zerolog.Nop()).Load(ctx)
	assert.True(t, store.Snapshot().Equal(loaded))
	assert.Equal(t, "grading", loaded.Tasks[id].Type)
}

func TestSlot_CorruptFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.json"), []byte(`{"tasks": {`), 0o644))

	got := board.NewPersistence(NewSlot(dir, "default"), nil, zerolog.Nop()).Load(context.Background())
	assert.True(t, board.DefaultState().Equal(got))
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for _, name := range []string{"spring", "fall"} {
		require.NoError(t, NewSlot(dir, name).Write(ctx, []byte(`{}`)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.json"), 0o755))

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"fall", "spring"}, names)

	names, err = List(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, names)
}
