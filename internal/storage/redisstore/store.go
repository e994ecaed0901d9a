package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yndnr/ledgerd/internal/storage"
)

// IndexKey is the set of account numbers kept next to the hashes.
const IndexKey = "accounts"

const accountPrefix = "account:"

// Config configures the Redis connection.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password is the optional AUTH password.
	Password string

	// DB selects the logical database.
	DB int

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration

	// OpTimeout bounds every read and write on the connection.
	OpTimeout time.Duration

	// ScanCount is the COUNT hint passed to SCAN.
	ScanCount int64
}

// DefaultConfig returns the default Redis configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        "127.0.0.1:6379",
		DialTimeout: 5 * time.Second,
		OpTimeout:   2 * time.Second,
		ScanCount:   100,
	}
}

// Store implements storage.HashStore on Redis.
type Store struct {
	client    *redis.Client
	scanCount int64
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redisstore: addr is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisstore: ping %s: %w", cfg.Addr, err)
	}

	logger.Info("redis store connected", "addr", cfg.Addr, "db", cfg.DB)
	return NewWithClient(client, cfg.ScanCount), nil
}

// NewWithClient wraps an existing client. The store owns it from then on.
func NewWithClient(client *redis.Client, scanCount int64) *Store {
	if scanCount <= 0 {
		scanCount = 100
	}
	return &Store{client: client, scanCount: scanCount}
}

// indexMember returns the account number of an account key, or "".
func indexMember(key string) string {
	n, ok := strings.CutPrefix(key, accountPrefix)
	if !ok {
		return ""
	}
	return n
}

// HSet replaces the hash and records account keys in the index set. The old
// hash is deleted in the same transaction so no stale field survives.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	values := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}
	member := indexMember(key)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}
		if member == "" {
			return nil
		}
		if len(values) > 0 {
			pipe.SAdd(ctx, IndexKey, member)
		} else {
			pipe.SRem(ctx, IndexKey, member)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: hset %s: %w", key, err)
	}
	return nil
}

// HGetAll returns the hash stored at key.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrKeyNotFound
	}
	return fields, nil
}

// Del removes the hash and its index entry.
func (s *Store) Del(ctx context.Context, key string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if member := indexMember(key); member != "" {
			pipe.SRem(ctx, IndexKey, member)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: del %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: exists %s: %w", key, err)
	}
	return n > 0, nil
}

// ScanPrefix walks matching keys with SCAN. Keys may be reported more than
// once if the keyspace changes during the walk; duplicates are dropped.
func (s *Store) ScanPrefix(ctx context.Context, prefix string, fn func(key string) bool) error {
	seen := make(map[string]struct{})
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", s.scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if !fn(key) {
			return nil
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redisstore: scan %s*: %w", prefix, err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("redisstore: close: %w", err)
	}
	return nil
}

// escapeGlob escapes the glob metacharacters SCAN MATCH understands.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ storage.HashStore = (*Store)(nil)
