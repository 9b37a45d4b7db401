package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chatvault/chatvault/internal/config"
	"github.com/chatvault/chatvault/internal/logger"
)

const defaultRedisPrefix = "message_store:"

// RedisStore keeps each session's messages in a Redis list under a prefixed
// key. It also serves Google Memorystore, which speaks the Redis protocol.
// When a TTL is configured the key's expiry is refreshed on every append, so
// idle sessions age out as a whole.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with a PING.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		var err error
		opts, err = redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("history: parse redis url: %w", err)
		}
	} else {
		opts = &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("history: redis ping: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	logger.L.Info("redis history store initialized", "addr", opts.Addr, "prefix", prefix, "ttl", cfg.TTL)
	return &RedisStore{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// AddMessage RPUSHes the JSON-encoded message and refreshes the key TTL in
// one transaction.
func (s *RedisStore) AddMessage(ctx context.Context, msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("history: encode message: %w", err)
	}
	key := s.key(msg.SessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, b)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("history: append to %s: %w", key, err)
	}
	return nil
}

// Messages reads the whole list. List order is insertion order.
func (s *RedisStore) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	vals, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history: read session %s: %w", sessionID, err)
	}
	out := make([]Message, 0, len(vals))
	for _, v := range vals {
		var m Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("history: decode message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Search filters the session's messages by case-insensitive substring. The
// list encoding is opaque to Redis, so matching happens client-side.
func (s *RedisStore) Search(ctx context.Context, sessionID, query string) ([]Message, error) {
	msgs, err := s.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []Message
	for _, m := range msgs {
		if strings.Contains(strings.ToLower(m.Content), q) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Clear deletes the session key. DEL of a missing key is a no-op.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("history: clear session %s: %w", sessionID, err)
	}
	return nil
}

// Close releases the client's connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
