package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petsaude/iasys/internal/adapters/redis"
	"github.com/petsaude/iasys/pkg/domain"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client, opts...)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestStore_AppendAndHistory(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1",
		domain.ChatMessage{Role: domain.RoleUser, Content: "oi"},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: "olá"},
	))
	require.NoError(t, store.Append(ctx, "s1",
		domain.ChatMessage{Role: domain.RoleUser, Content: "tchau"},
	))

	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "oi", history[0].Content)
	assert.Equal(t, "tchau", history[2].Content)
}

func TestStore_UnknownSessionIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	history, err := store.History(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", domain.ChatMessage{Role: domain.RoleUser, Content: "oi"}))
	require.NoError(t, store.Delete(ctx, "s1"))

	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestStore_Sessions(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "a", domain.ChatMessage{Role: domain.RoleUser, Content: "1"}))
	require.NoError(t, store.Append(ctx, "b", domain.ChatMessage{Role: domain.RoleUser, Content: "2"}))

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, sessions)
}

func TestStore_TTLExpiration(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", domain.ChatMessage{Role: domain.RoleUser, Content: "oi"}))

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	// miniredis advances its own clock for key expiry.
	mr.FastForward(2 * time.Second)

	history, err := store.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	// Index pruning compares against time.Now, so lazy cleanup needs real
	// time to pass the TTL.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestStore_KeyPrefixIsolation(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	clientA := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	clientB := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	storeA := redis.NewFromClient(clientA, redis.WithPrefix("tenant-a:"))
	storeB := redis.NewFromClient(clientB, redis.WithPrefix("tenant-b:"))
	t.Cleanup(func() { storeA.Close(); storeB.Close() })

	ctx := context.Background()
	require.NoError(t, storeA.Append(ctx, "s1", domain.ChatMessage{Role: domain.RoleUser, Content: "de a"}))

	history, err := storeB.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
