package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sess := NewSession(store, "s1")

	require.NoError(t, sess.AddUserMessage(ctx, "hi there"))
	require.NoError(t, sess.AddAIMessage(ctx, "hello, how can I help?"))
	require.NoError(t, sess.AddUserMessage(ctx, "what's the weather?"))

	msgs, err := sess.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, RoleHuman, msgs[0].Role)
	require.Equal(t, "hi there", msgs[0].Content)
	require.Equal(t, RoleAI, msgs[1].Role)
	require.Equal(t, "what's the weather?", msgs[2].Content)
}

func TestMemoryStore_EmptySessionIsValid(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	msgs, err := store.Messages(ctx, "never-seen")
	require.NoError(t, err)
	require.Empty(t, msgs)

	// Appending to a session with no prior messages works.
	require.NoError(t, store.AddMessage(ctx, NewMessage("never-seen", RoleHuman, "first")))
	msgs, err = store.Messages(ctx, "never-seen")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestMemoryStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.AddMessage(ctx, NewMessage("s1", RoleHuman, "hi")))

	require.NoError(t, store.Clear(ctx, "s1"))
	msgs, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, msgs)

	// Clearing again, and clearing a session that never existed, both succeed.
	require.NoError(t, store.Clear(ctx, "s1"))
	require.NoError(t, store.Clear(ctx, "nope"))
}

func TestMemoryStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.AddMessage(ctx, NewMessage("a", RoleHuman, "in a")))
	require.NoError(t, store.AddMessage(ctx, NewMessage("b", RoleHuman, "in b")))

	require.NoError(t, store.Clear(ctx, "a"))

	msgs, err := store.Messages(ctx, "b")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "in b", msgs[0].Content)
}

func TestMemoryStore_Search(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.AddMessage(ctx, NewMessage("s1", RoleHuman, "Tell me about Redis")))
	require.NoError(t, store.AddMessage(ctx, NewMessage("s1", RoleAI, "Redis is an in-memory store")))
	require.NoError(t, store.AddMessage(ctx, NewMessage("s1", RoleHuman, "and Bigtable?")))

	msgs, err := store.Search(ctx, "s1", "redis")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	msgs, err = store.Search(ctx, "s1", "postgres")
	require.NoError(t, err)
	require.Empty(t, msgs)
}
