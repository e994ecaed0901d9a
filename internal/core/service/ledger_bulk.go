package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/yndnr/ledgerd/internal/core/domain"
)

// ListAll returns a snapshot of every account, ascending by number.
func (l *Ledger) ListAll() []domain.View {
	accts := l.accounts.Values()
	views := make([]domain.View, 0, len(accts))
	for _, acct := range accts {
		err := acct.Atomically(func(tx *domain.Tx) error {
			views = append(views, tx.View())
			return nil
		})
		if err != nil {
			continue // closed after Values returned
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Number < views[j].Number })
	return views
}

// DeleteAll removes every account from the registry and the cache and
// returns how many were removed.
func (l *Ledger) DeleteAll(ctx context.Context) (int, error) {
	removed := 0
	for _, acct := range l.accounts.Values() {
		if err := l.retire(ctx, acct); err == nil {
			removed++
		}
	}

	l.logger.Info("all accounts deleted", "count", removed)
	return removed, nil
}

// LoadAll replaces the registry with the accounts stored in the cache.
//
// Records that cannot be decoded are logged and skipped. Failing to enumerate
// the keys leaves the registry untouched.
func (l *Ledger) LoadAll(ctx context.Context) (int, error) {
	numbers, err := l.cache.LoadAllKeys(ctx)
	if err != nil {
		l.observer.CacheError("load")
		return 0, fmt.Errorf("enumerate cached accounts: %w", err)
	}

	loaded := make([]*domain.Account, 0, len(numbers))
	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		rec, err := l.cache.Load(ctx, n)
		if err != nil {
			if !errors.Is(err, domain.ErrAccountNotFound) {
				l.observer.CacheError("load")
			}
			l.logger.Warn("skipping account: load failed", "account", n, "error", err)
			continue
		}
		acct, err := domain.FromRecord(n, rec)
		if err != nil {
			l.logger.Warn("skipping account: invalid record", "account", n, "error", err)
			continue
		}
		loaded = append(loaded, acct)
	}

	for _, old := range l.accounts.Drain() {
		_ = old.Atomically(func(tx *domain.Tx) error {
			tx.Close()
			return nil
		})
	}
	for _, acct := range loaded {
		l.accounts.Set(acct.Number(), acct)
	}

	l.logger.Info("accounts loaded from cache", "count", len(loaded), "keys", len(numbers))
	return len(loaded), nil
}

// PersistAll upserts every account's record and returns how many were saved.
// Individual failures are logged; the first one is returned after all
// accounts have been attempted.
func (l *Ledger) PersistAll(ctx context.Context) (int, error) {
	var firstErr error
	saved := 0
	for _, acct := range l.accounts.Values() {
		err := acct.Atomically(func(tx *domain.Tx) error {
			if err := l.cache.Save(ctx, tx.Number(), tx.Record()); err != nil {
				l.observer.CacheError("save")
				l.logger.Warn("cache save failed", "account", tx.Number(), "error", err)
				return err
			}
			return nil
		})
		switch {
		case err == nil:
			saved++
		case errors.Is(err, domain.ErrAccountNotFound):
			// closed concurrently
		case firstErr == nil:
			firstErr = err
		}
	}

	l.logger.Info("accounts persisted", "count", saved)
	return saved, firstErr
}

// Export writes the bulk export document, a JSON array of account views
// ascending by number, to w.
func (l *Ledger) Export(w io.Writer) (int, error) {
	views := l.ListAll()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(views); err != nil {
		return 0, fmt.Errorf("encode export: %w", err)
	}
	return len(views), nil
}
