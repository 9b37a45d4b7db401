// Package history persists ordered chat messages keyed by session id.
// Each backend is a thin adapter over its client library: appends are
// monotonic, reads return insertion order, and connectivity failures
// propagate to the caller without retries.
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatvault/chatvault/internal/config"
	"github.com/chatvault/chatvault/internal/logger"
)

// ErrSearchUnsupported is returned by stores whose backend has no text
// search capability.
var ErrSearchUnsupported = errors.New("history: search not supported by this backend")

// Store is the contract every history backend implements.
//
// Messages returns a session's messages in insertion order; an unknown
// session yields an empty slice, not an error. Clear removes a session's
// messages and is idempotent. Search semantics are backend-specific and may
// be ErrSearchUnsupported.
type Store interface {
	AddMessage(ctx context.Context, msg Message) error
	Messages(ctx context.Context, sessionID string) ([]Message, error)
	Search(ctx context.Context, sessionID, query string) ([]Message, error)
	Clear(ctx context.Context, sessionID string) error
}

// Session binds a store to one session id.
type Session struct {
	store Store
	id    string
}

// NewSession wraps store for the given session id.
func NewSession(store Store, sessionID string) *Session {
	return &Session{store: store, id: sessionID}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AddUserMessage appends a human turn.
func (s *Session) AddUserMessage(ctx context.Context, content string) error {
	return s.store.AddMessage(ctx, NewMessage(s.id, RoleHuman, content))
}

// AddAIMessage appends an AI turn.
func (s *Session) AddAIMessage(ctx context.Context, content string) error {
	return s.store.AddMessage(ctx, NewMessage(s.id, RoleAI, content))
}

// Messages returns all turns of the session in insertion order.
func (s *Session) Messages(ctx context.Context) ([]Message, error) {
	return s.store.Messages(ctx, s.id)
}

// Search returns the session's messages matching query.
func (s *Session) Search(ctx context.Context, query string) ([]Message, error) {
	return s.store.Search(ctx, s.id, query)
}

// Clear irreversibly removes all turns of the session.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.id)
}

// NewStore builds the backend selected in cfg.
func NewStore(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		logger.L.Info("using in-memory history store")
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.SQLite.Path)
	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case config.BackendFirestore:
		return NewFirestoreStore(ctx, cfg.Firestore)
	case config.BackendBigtable:
		return NewBigtableStore(ctx, cfg.Bigtable)
	default:
		return nil, fmt.Errorf("history: unknown backend %q", cfg.Backend)
	}
}
