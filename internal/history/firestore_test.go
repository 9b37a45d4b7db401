package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatvault/chatvault/internal/config"
)

func TestFirestoreStore_SearchUnsupported(t *testing.T) {
	store := &FirestoreStore{collection: defaultFirestoreCollection}

	_, err := store.Search(context.Background(), "s1", "anything")
	require.ErrorIs(t, err, ErrSearchUnsupported)
}

// newUnreachableFirestoreStore builds a store pointed at an emulator address
// nothing listens on, so every RPC fails with a connectivity error.
func newUnreachableFirestoreStore(t *testing.T) *FirestoreStore {
	t.Helper()
	t.Setenv("FIRESTORE_EMULATOR_HOST", "localhost:1")
	store, err := NewFirestoreStore(context.Background(), config.FirestoreConfig{ProjectID: "test-proj"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFirestoreStore_MessagesSurfacesConnectivityError(t *testing.T) {
	store := newUnreachableFirestoreStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := store.Messages(ctx, "s1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "firestore read")
}

func TestFirestoreStore_ClearSurfacesConnectivityError(t *testing.T) {
	store := newUnreachableFirestoreStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := store.Clear(ctx, "s1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "firestore clear")
}

func TestFirestoreStore_AddMessageSurfacesConnectivityError(t *testing.T) {
	store := newUnreachableFirestoreStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := store.AddMessage(ctx, NewMessage("s1", RoleHuman, "hi"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "firestore add")
}
