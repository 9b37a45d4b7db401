package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigtable"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/chatvault/chatvault/internal/config"
	"github.com/chatvault/chatvault/internal/logger"
)

const (
	defaultBigtableTable  = "chat_history"
	defaultBigtableFamily = "history"
	bigtableColumn        = "message"
)

// BigtableStore keeps one row per message. Row keys are
// "<session>#<zero-padded-unix-nanos>#<message-id>", so a prefix scan over
// "<session>#" yields insertion order lexicographically.
type BigtableStore struct {
	client *bigtable.Client
	tbl    *bigtable.Table
	family string
}

// NewBigtableStore connects to the configured Bigtable instance. Extra
// client options are accepted so tests can point at an emulator.
func NewBigtableStore(ctx context.Context, cfg config.BigtableConfig, opts ...option.ClientOption) (*BigtableStore, error) {
	client, err := bigtable.NewClient(ctx, cfg.ProjectID, cfg.InstanceID, opts...)
	if err != nil {
		return nil, fmt.Errorf("history: bigtable client: %w", err)
	}
	table := cfg.Table
	if table == "" {
		table = defaultBigtableTable
	}
	family := cfg.ColumnFamily
	if family == "" {
		family = defaultBigtableFamily
	}
	logger.L.Info("bigtable history store initialized",
		"project", cfg.ProjectID, "instance", cfg.InstanceID, "table", table, "family", family)
	return &BigtableStore{client: client, tbl: client.Open(table), family: family}, nil
}

// EnsureBigtableTable creates the table and column family if they don't
// exist yet. Safe to call on every startup.
func EnsureBigtableTable(ctx context.Context, cfg config.BigtableConfig, opts ...option.ClientOption) error {
	admin, err := bigtable.NewAdminClient(ctx, cfg.ProjectID, cfg.InstanceID, opts...)
	if err != nil {
		return fmt.Errorf("history: bigtable admin client: %w", err)
	}
	defer admin.Close()

	table := cfg.Table
	if table == "" {
		table = defaultBigtableTable
	}
	family := cfg.ColumnFamily
	if family == "" {
		family = defaultBigtableFamily
	}
	if err := admin.CreateTable(ctx, table); err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("history: create table %s: %w", table, err)
	}
	if err := admin.CreateColumnFamily(ctx, table, family); err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("history: create column family %s: %w", family, err)
	}
	return nil
}

// bigtableRowKey orders rows by append time within a session. Nanos are
// zero-padded so lexicographic and chronological order agree; the message id
// breaks ties between same-nano appends.
func bigtableRowKey(sessionID string, t time.Time, messageID string) string {
	return fmt.Sprintf("%s#%020d#%s", sessionID, t.UnixNano(), messageID)
}

func bigtableRowPrefix(sessionID string) string {
	return sessionID + "#"
}

// AddMessage writes msg as a new row.
func (s *BigtableStore) AddMessage(ctx context.Context, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("history: encode message: %w", err)
	}
	mut := bigtable.NewMutation()
	mut.Set(s.family, bigtableColumn, bigtable.Time(msg.CreatedAt), b)
	key := bigtableRowKey(msg.SessionID, time.Now(), msg.ID)
	if err := s.tbl.Apply(ctx, key, mut); err != nil {
		return fmt.Errorf("history: bigtable apply: %w", err)
	}
	return nil
}

// Messages scans the session's row range in key order.
func (s *BigtableStore) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	var out []Message
	var decodeErr error
	err := s.tbl.ReadRows(ctx, bigtable.PrefixRange(bigtableRowPrefix(sessionID)), func(row bigtable.Row) bool {
		for _, item := range row[s.family] {
			var m Message
			if err := json.Unmarshal(item.Value, &m); err != nil {
				decodeErr = fmt.Errorf("history: decode row %s: %w", row.Key(), err)
				return false
			}
			out = append(out, m)
		}
		return true
	}, bigtable.RowFilter(bigtable.LatestNFilter(1)))
	if err != nil {
		return nil, fmt.Errorf("history: bigtable read: %w", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

// Search is not available: Bigtable has no text index over cell contents.
func (s *BigtableStore) Search(ctx context.Context, sessionID, query string) ([]Message, error) {
	return nil, ErrSearchUnsupported
}

// Clear deletes every row of the session.
func (s *BigtableStore) Clear(ctx context.Context, sessionID string) error {
	var keys []string
	err := s.tbl.ReadRows(ctx, bigtable.PrefixRange(bigtableRowPrefix(sessionID)), func(row bigtable.Row) bool {
		keys = append(keys, row.Key())
		return true
	}, bigtable.RowFilter(bigtable.StripValueFilter()))
	if err != nil {
		return fmt.Errorf("history: bigtable clear scan: %w", err)
	}
	for _, key := range keys {
		mut := bigtable.NewMutation()
		mut.DeleteRow()
		if err := s.tbl.Apply(ctx, key, mut); err != nil {
			return fmt.Errorf("history: bigtable delete row: %w", err)
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *BigtableStore) Close() error {
	return s.client.Close()
}
