package storage

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/yndnr/ledgerd/internal/core/domain"
)

// Synchronizer writes account records through to a HashStore.
// It implements service.CacheSynchronizer.
type Synchronizer struct {
	store     HashStore
	opTimeout time.Duration
	logger    *slog.Logger
}

// NewSynchronizer wraps store. A positive opTimeout bounds every store call.
func NewSynchronizer(store HashStore, opTimeout time.Duration, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		store:     store,
		opTimeout: opTimeout,
		logger:    logger,
	}
}

func (s *Synchronizer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// Save upserts the record of an account.
func (s *Synchronizer) Save(ctx context.Context, number int64, rec domain.Record) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := domain.Key(number)
	if err := s.store.HSet(ctx, key, rec); err != nil {
		return domain.ErrCacheUnavailable.WithDetailsf("save %s", key).WithCause(err)
	}
	return nil
}

// Load fetches the record of an account.
func (s *Synchronizer) Load(ctx context.Context, number int64) (domain.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := domain.Key(number)
	fields, err := s.store.HGetAll(ctx, key)
	if errors.Is(err, ErrKeyNotFound) || (err == nil && len(fields) == 0) {
		return nil, domain.ErrAccountNotFound.WithDetails(key)
	}
	if err != nil {
		return nil, domain.ErrCacheUnavailable.WithDetailsf("load %s", key).WithCause(err)
	}
	return domain.Record(fields), nil
}

// Delete removes an account's record.
func (s *Synchronizer) Delete(ctx context.Context, number int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := domain.Key(number)
	if err := s.store.Del(ctx, key); err != nil {
		return domain.ErrCacheUnavailable.WithDetailsf("delete %s", key).WithCause(err)
	}
	return nil
}

// Exists reports whether an account's record is stored.
func (s *Synchronizer) Exists(ctx context.Context, number int64) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := domain.Key(number)
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		return false, domain.ErrCacheUnavailable.WithDetailsf("exists %s", key).WithCause(err)
	}
	return ok, nil
}

// LoadAllKeys enumerates the numbers of every stored account, ascending.
// Keys under the prefix that do not parse as account numbers are skipped.
//
// The scan is not bounded by the operation timeout: it is a startup bulk
// read, bounded only by ctx.
func (s *Synchronizer) LoadAllKeys(ctx context.Context) ([]int64, error) {
	var numbers []int64
	err := s.store.ScanPrefix(ctx, domain.KeyPrefix, func(key string) bool {
		n, err := domain.ParseKey(key)
		if err != nil {
			s.logger.Warn("ignoring unexpected cache key", "key", key)
			return true
		}
		numbers = append(numbers, n)
		return true
	})
	if err != nil {
		return nil, domain.ErrCacheUnavailable.WithDetails("scan account keys").WithCause(err)
	}

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers, nil
}

// Ping checks the store is reachable by probing for a key that never exists.
func (s *Synchronizer) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.store.Exists(ctx, domain.KeyPrefix+"ping"); err != nil {
		return domain.ErrCacheUnavailable.WithDetails("ping").WithCause(err)
	}
	return nil
}
