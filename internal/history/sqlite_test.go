package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_AppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	sess := NewSession(store, "s1")

	require.NoError(t, sess.AddUserMessage(ctx, "first"))
	require.NoError(t, sess.AddAIMessage(ctx, "second"))
	require.NoError(t, sess.AddUserMessage(ctx, "third"))

	msgs, err := sess.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, []string{"first", "second", "third"},
		[]string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
	require.Equal(t, RoleHuman, msgs[0].Role)
	require.Equal(t, RoleAI, msgs[1].Role)
	require.Equal(t, "s1", msgs[0].SessionID)
	require.NotEmpty(t, msgs[0].ID)
}

func TestSQLiteStore_MetadataRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	msg := NewMessage("s1", RoleHuman, "with metadata")
	msg.Metadata = map[string]string{"source": "api", "trace": "abc123"}
	require.NoError(t, store.AddMessage(ctx, msg))

	msgs, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, msg.Metadata, msgs[0].Metadata)
}

func TestSQLiteStore_ClearIsIdempotentAndScoped(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	require.NoError(t, store.AddMessage(ctx, NewMessage("a", RoleHuman, "in a")))
	require.NoError(t, store.AddMessage(ctx, NewMessage("b", RoleHuman, "in b")))

	require.NoError(t, store.Clear(ctx, "a"))
	require.NoError(t, store.Clear(ctx, "a"))

	msgs, err := store.Messages(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, msgs)

	msgs, err = store.Messages(ctx, "b")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestSQLiteStore_Search(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	require.NoError(t, store.AddMessage(ctx, NewMessage("s1", RoleHuman, "Tell me about payment rails")))
	require.NoError(t, store.AddMessage(ctx, NewMessage("s1", RoleAI, "ACH is a payment network in the US")))
	require.NoError(t, store.AddMessage(ctx, NewMessage("s1", RoleHuman, "what about crypto?")))
	require.NoError(t, store.AddMessage(ctx, NewMessage("s2", RoleHuman, "payment in another session")))

	msgs, err := store.Search(ctx, "s1", "payment")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		require.Equal(t, "s1", m.SessionID)
	}

	// Quoting in the query must not break the match expression.
	msgs, err = store.Search(ctx, "s1", `"crypto"`)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "what about crypto?", msgs[0].Content)
}

func TestSQLiteStore_SearchAfterClear(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	require.NoError(t, store.AddMessage(ctx, NewMessage("s1", RoleHuman, "findable text")))
	require.NoError(t, store.Clear(ctx, "s1"))

	msgs, err := store.Search(ctx, "s1", "findable")
	require.NoError(t, err)
	require.Empty(t, msgs)
}
