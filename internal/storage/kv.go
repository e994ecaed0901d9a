package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("store closed")
)

// HashStore is a string-keyed store of string field maps.
//
// Implementation requirements:
//   - Thread-safe: concurrent calls must be safe
//   - HSet replaces: fields absent from the new map are dropped, and an
//     empty map removes the hash
//   - HGetAll returns ErrKeyNotFound for a missing key
//   - Del of a missing key is not an error
type HashStore interface {
	// HSet replaces the hash stored at key with fields.
	HSet(ctx context.Context, key string, fields map[string]string) error

	// HGetAll returns every field of the hash stored at key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// Del removes the hash stored at key.
	Del(ctx context.Context, key string) error

	// Exists reports whether a hash is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// ScanPrefix calls fn for every key starting with prefix.
	// Callback returns false to stop iteration.
	ScanPrefix(ctx context.Context, prefix string, fn func(key string) bool) error

	// Close releases the store.
	Close() error
}

// KVConfig configures the embedded Badger backend.
type KVConfig struct {
	// Dir is the storage directory.
	Dir string

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value-log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5 (rewrite a value log file when half of it is stale)
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// SyncWrites enables sync writes (fsync after each write).
	// Default: true
	SyncWrites bool

	// InMemory keeps everything in memory; Dir is ignored. Used by tests.
	InMemory bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        64 << 20,  // 64MB
		ValueLogFileSize: 256 << 20, // 256MB
		SyncWrites:       true,
	}
}
