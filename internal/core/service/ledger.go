package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgerd/internal/core/domain"
	"github.com/yndnr/ledgerd/pkg/cmap"
)

// CacheSynchronizer persists account records outside the process.
//
// Implementations return errors matching domain.ErrCacheUnavailable when the
// backing store fails and domain.ErrAccountNotFound from Load for a missing key.
type CacheSynchronizer interface {
	// Save upserts the record of an account.
	Save(ctx context.Context, number int64, rec domain.Record) error

	// Load fetches the record of an account.
	Load(ctx context.Context, number int64) (domain.Record, error)

	// Delete removes an account's record. Deleting a missing record is not an error.
	Delete(ctx context.Context, number int64) error

	// LoadAllKeys enumerates the numbers of every stored account.
	LoadAllKeys(ctx context.Context) ([]int64, error)
}

// Observer receives ledger events for metrics.
type Observer interface {
	// CacheError is called once per failed cache operation ("save", "delete", "load").
	CacheError(op string)
}

type nopObserver struct{}

func (nopObserver) CacheError(string) {}

// Option configures a Ledger.
type Option func(*Ledger)

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(l *Ledger) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithShards sets the number of registry shards (rounded up to a power of 2).
func WithShards(n int) Option {
	return func(l *Ledger) {
		l.accounts = cmap.NewWithShards[int64, *domain.Account](n)
	}
}

// Ledger is the authoritative registry of accounts.
type Ledger struct {
	accounts *cmap.Map[int64, *domain.Account]
	cache    CacheSynchronizer
	logger   *slog.Logger
	observer Observer
}

// NewLedger creates an empty Ledger writing through to cache.
// A nil logger falls back to slog.Default().
func NewLedger(cache CacheSynchronizer, logger *slog.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{
		accounts: cmap.New[int64, *domain.Account](),
		cache:    cache,
		logger:   logger,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ============================================================================
// Lookup
// ============================================================================

// Exists reports whether an account with the number is registered.
func (l *Ledger) Exists(number int64) bool {
	return l.accounts.Has(number)
}

// Find returns the live account with the number.
func (l *Ledger) Find(number int64) (*domain.Account, error) {
	acct, ok := l.accounts.Get(number)
	if !ok {
		return nil, domain.ErrAccountNotFound.WithDetailsf("account #%d", number)
	}
	return acct, nil
}

// Get returns a snapshot of the account with the number.
func (l *Ledger) Get(number int64) (domain.View, error) {
	acct, err := l.Find(number)
	if err != nil {
		return domain.View{}, err
	}
	var v domain.View
	err = acct.Atomically(func(tx *domain.Tx) error {
		v = tx.View()
		return nil
	})
	return v, err
}

// Count returns the number of registered accounts.
func (l *Ledger) Count() int {
	return l.accounts.Count()
}

// ============================================================================
// Lifecycle
// ============================================================================

// CreateResult describes a newly opened account.
type CreateResult struct {
	Number int64
	Kind   domain.Kind
}

// Create opens a new account and persists it.
//
// An existing account with the same number is left untouched.
func (l *Ledger) Create(ctx context.Context, spec domain.Spec) (CreateResult, error) {
	if l.accounts.Has(spec.Number) {
		return CreateResult{}, duplicate(spec.Number)
	}

	acct, err := domain.New(spec)
	if err != nil {
		return CreateResult{}, err
	}
	if !l.accounts.SetIfAbsent(spec.Number, acct) {
		return CreateResult{}, duplicate(spec.Number)
	}

	err = acct.Atomically(func(tx *domain.Tx) error {
		l.save(ctx, tx)
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}

	l.logger.Debug("account created", "account", spec.Number, "type", spec.Kind)
	return CreateResult{Number: acct.Number(), Kind: acct.Kind()}, nil
}

func duplicate(number int64) error {
	return domain.ErrDuplicateAccount.WithDetailsf("account #%d", number)
}

// Deposit adds amount to an account and returns the new balance.
func (l *Ledger) Deposit(ctx context.Context, number int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutateBalance(ctx, number, func(tx *domain.Tx) (decimal.Decimal, error) {
		return tx.Deposit(amount)
	})
}

// Withdraw subtracts amount from an account and returns the new balance.
func (l *Ledger) Withdraw(ctx context.Context, number int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.mutateBalance(ctx, number, func(tx *domain.Tx) (decimal.Decimal, error) {
		return tx.Withdraw(amount)
	})
}

func (l *Ledger) mutateBalance(ctx context.Context, number int64, op func(*domain.Tx) (decimal.Decimal, error)) (decimal.Decimal, error) {
	acct, err := l.Find(number)
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err = acct.Atomically(func(tx *domain.Tx) error {
		var err error
		if balance, err = op(tx); err != nil {
			return err
		}
		l.save(ctx, tx)
		return nil
	})
	return balance, err
}

// Modify applies a patch to an account and returns the resulting snapshot.
// An empty patch succeeds without touching the cache.
func (l *Ledger) Modify(ctx context.Context, number int64, patch domain.Patch) (domain.View, error) {
	acct, err := l.Find(number)
	if err != nil {
		return domain.View{}, err
	}

	var v domain.View
	err = acct.Atomically(func(tx *domain.Tx) error {
		if !patch.IsEmpty() {
			if err := tx.Modify(patch); err != nil {
				return err
			}
			l.save(ctx, tx)
		}
		v = tx.View()
		return nil
	})
	return v, err
}

// Close removes an account from the cache and then the registry.
//
// The record is deleted under the account lock before the registry entry goes
// away, so a Create of the same number cannot slip in between and have its
// fresh record deleted.
func (l *Ledger) Close(ctx context.Context, number int64) error {
	acct, err := l.Find(number)
	if err != nil {
		return err
	}
	if err := l.retire(ctx, acct); err != nil {
		return err
	}

	l.logger.Debug("account closed", "account", number)
	return nil
}

// retire closes acct, deletes its record and unregisters it unless the
// number already belongs to a newer account.
func (l *Ledger) retire(ctx context.Context, acct *domain.Account) error {
	err := acct.Atomically(func(tx *domain.Tx) error {
		tx.Close()
		l.delete(ctx, tx.Number())
		return nil
	})
	if err != nil {
		return err
	}
	l.accounts.RemoveIf(acct.Number(), func(cur *domain.Account) bool { return cur == acct })
	return nil
}

// ============================================================================
// Interest
// ============================================================================

// Target selects the accounts interest is applied to.
type Target struct {
	All    bool
	Number int64
}

// InterestResult reports an interest run. Interest and Balance are only set
// when a single account was targeted.
type InterestResult struct {
	Applied  int
	Interest decimal.Decimal
	Balance  decimal.Decimal
}

// ApplyInterestTo credits interest to one SAVINGS account or to all of them.
func (l *Ledger) ApplyInterestTo(ctx context.Context, target Target) (InterestResult, error) {
	if !target.All {
		return l.applyInterestOne(ctx, target.Number)
	}

	var res InterestResult
	for _, acct := range l.accounts.Values() {
		if acct.Kind() != domain.KindSavings {
			continue
		}
		err := acct.Atomically(func(tx *domain.Tx) error {
			if _, _, err := tx.ApplyInterest(); err != nil {
				return err
			}
			l.save(ctx, tx)
			return nil
		})
		if err != nil {
			// Closed concurrently.
			continue
		}
		res.Applied++
	}

	l.logger.Debug("interest applied", "accounts", res.Applied)
	return res, nil
}

func (l *Ledger) applyInterestOne(ctx context.Context, number int64) (InterestResult, error) {
	acct, err := l.Find(number)
	if err != nil {
		return InterestResult{}, err
	}

	var res InterestResult
	err = acct.Atomically(func(tx *domain.Tx) error {
		var err error
		if res.Interest, res.Balance, err = tx.ApplyInterest(); err != nil {
			return err
		}
		l.save(ctx, tx)
		res.Applied = 1
		return nil
	})
	return res, err
}

// ============================================================================
// Write-through
// ============================================================================

// save persists the account's current record. It runs with the account lock
// held. Failures are logged and counted; the in-memory state stands.
func (l *Ledger) save(ctx context.Context, tx *domain.Tx) {
	if err := l.cache.Save(ctx, tx.Number(), tx.Record()); err != nil {
		l.observer.CacheError("save")
		l.logger.Warn("cache save failed", "account", tx.Number(), "error", err)
	}
}

func (l *Ledger) delete(ctx context.Context, number int64) {
	if err := l.cache.Delete(ctx, number); err != nil {
		l.observer.CacheError("delete")
		l.logger.Warn("cache delete failed", "account", number, "error", err)
	}
}
