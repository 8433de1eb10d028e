package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statelyhq/stately/pkg/domain"
	"github.com/statelyhq/stately/pkg/ports"
)

func snapFixture(name string) *domain.Snapshot {
	exec := domain.NewExecution(name, map[string]any{"k": "v"}, "Start")
	exec.Record("Start", map[string]any{"k": "v"}, "out")
	exec.Succeed("out")
	return exec.Snapshot()
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "run-1", snapFixture("run-1")))

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.Name)
	assert.Equal(t, domain.StatusSucceeded, loaded.Status)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "Start", loaded.History[0].StateName)
}

func TestFileStoreOverwrite(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	first := snapFixture("run-1")
	require.NoError(t, store.Save(ctx, "run-1", first))

	second := snapFixture("run-1")
	second.Output = "changed"
	require.NoError(t, store.Save(ctx, "run-1", second))

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "changed", loaded.Output)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, ports.ErrExecutionNotFound)
}

func TestFileStoreDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "run-1", snapFixture("run-1")))
	require.NoError(t, store.Delete(ctx, "run-1"))

	_, err := store.Load(ctx, "run-1")
	assert.ErrorIs(t, err, ports.ErrExecutionNotFound)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, "run-1"))
}

func TestFileStoreList(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Save(ctx, "a", snapFixture("a")))
	require.NoError(t, store.Save(ctx, "b", snapFixture("b")))

	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestFileStoreEmptyName(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", snapFixture("x")))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)
}
