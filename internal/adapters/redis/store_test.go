package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statelyhq/stately/pkg/domain"
	"github.com/statelyhq/stately/pkg/ports"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFromClient(client, opts...), mr
}

func snapFixture(name string) *domain.Snapshot {
	exec := domain.NewExecution(name, map[string]any{"k": "v"}, "Start")
	exec.Succeed("done")
	return exec.Snapshot()
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "run-1", snapFixture("run-1")))

	loaded, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.Name)
	assert.Equal(t, domain.StatusSucceeded, loaded.Status)
	assert.Equal(t, "done", loaded.Output)
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, ports.ErrExecutionNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "run-1", snapFixture("run-1")))
	require.NoError(t, store.Delete(ctx, "run-1"))

	_, err := store.Load(ctx, "run-1")
	assert.ErrorIs(t, err, ports.ErrExecutionNotFound)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRedisStoreList(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", snapFixture("a")))
	require.NoError(t, store.Save(ctx, "b", snapFixture("b")))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newTestStore(t, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "run-1", snapFixture("run-1")))

	// Expire the snapshot key; List should prune the dangling index entry.
	mr.FastForward(2 * time.Minute)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRedisStorePrefix(t *testing.T) {
	store, mr := newTestStore(t, WithPrefix("custom:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "run-1", snapFixture("run-1")))
	assert.True(t, mr.Exists("custom:run-1"))
}
