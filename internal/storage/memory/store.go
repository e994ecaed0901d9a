package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/yndnr/ledgerd/internal/storage"
	"github.com/yndnr/ledgerd/pkg/cmap"
)

// Store is an in-memory storage.HashStore.
type Store struct {
	hashes *cmap.Map[string, *entry]
	closed atomic.Bool
}

type entry struct {
	mu     sync.Mutex
	fields map[string]string
}

// Option configures the Store.
type Option func(*Store)

// WithShards sets the number of map shards.
func WithShards(n int) Option {
	return func(s *Store) {
		s.hashes = cmap.NewWithShards[string, *entry](n)
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		hashes: cmap.New[string, *entry](),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// HSet replaces the hash stored at key. An empty map removes it.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if len(fields) == 0 {
		s.hashes.Delete(key)
		return nil
	}
	s.hashes.Set(key, &entry{fields: maps.Clone(fields)})
	return nil
}

// HGetAll returns a copy of the hash stored at key.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}

	e, ok := s.hashes.Get(key)
	if !ok {
		return nil, storage.ErrKeyNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.fields), nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	s.hashes.Delete(key)
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	if s.closed.Load() {
		return false, storage.ErrClosed
	}
	return s.hashes.Has(key), nil
}

// ScanPrefix calls fn for each key with the prefix, in lexical order.
func (s *Store) ScanPrefix(ctx context.Context, prefix string, fn func(key string) bool) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}

	var keys []string
	s.hashes.Range(func(key string, _ *entry) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	sort.Strings(keys)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(key) {
			break
		}
	}
	return nil
}

// Len returns the number of stored hashes.
func (s *Store) Len() int {
	return s.hashes.Count()
}

// Close marks the store closed and drops its contents.
func (s *Store) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.hashes.Clear()
	}
	return nil
}

var _ storage.HashStore = (*Store)(nil)
