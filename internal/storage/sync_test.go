package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yndnr/ledgerd/internal/core/domain"
)

// failingStore fails every call.
type failingStore struct{ err error }

func (f failingStore) HSet(context.Context, string, map[string]string) error {
	return f.err
}

func (f failingStore) HGetAll(context.Context, string) (map[string]string, error) {
	return nil, f.err
}

func (f failingStore) Del(context.Context, string) error {
	return f.err
}

func (f failingStore) Exists(context.Context, string) (bool, error) {
	return false, f.err
}

func (f failingStore) ScanPrefix(context.Context, string, func(string) bool) error {
	return f.err
}

func (f failingStore) Close() error { return nil }

// slowStore blocks until the context ends.
type slowStore struct{ failingStore }

func (slowStore) HSet(ctx context.Context, _ string, _ map[string]string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSynchronizer_RoundTrip(t *testing.T) {
	engine := newTestBadger(t)
	s := NewSynchronizer(engine, time.Second, nil)
	ctx := context.Background()

	acct, err := domain.New(domain.Spec{
		Kind: domain.KindSavings, Number: 101, HolderName: "Alice",
		Balance: decimal.RequireFromString("1000"), InterestRate: decimal.RequireFromString("0.02"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, 101, acct.Record()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, err := s.Load(ctx, 101)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	back, err := domain.FromRecord(101, rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if back.Describe() != acct.Describe() {
		t.Errorf("loaded %q, want %q", back.Describe(), acct.Describe())
	}

	if ok, err := s.Exists(ctx, 101); err != nil || !ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
	if err := s.Delete(ctx, 101); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, 101); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Load after Delete = %v, want ErrAccountNotFound", err)
	}
}

func TestSynchronizer_LoadAllKeys(t *testing.T) {
	engine := newTestBadger(t)
	s := NewSynchronizer(engine, 0, nil)
	ctx := context.Background()

	for _, key := range []string{"account:30", "account:4", "account:100", "account:junk", "accounts"} {
		if err := engine.HSet(ctx, key, map[string]string{"type": "SAVINGS"}); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := s.LoadAllKeys(ctx)
	if err != nil {
		t.Fatalf("LoadAllKeys: %v", err)
	}
	want := []int64{4, 30, 100}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %d, want %d", i, keys[i], want[i])
		}
	}
}

func TestSynchronizer_WrapsStoreErrors(t *testing.T) {
	cause := errors.New("connection refused")
	s := NewSynchronizer(failingStore{err: cause}, 0, nil)
	ctx := context.Background()

	checks := map[string]error{
		"save":   s.Save(ctx, 1, domain.Record{}),
		"delete": s.Delete(ctx, 1),
		"ping":   s.Ping(ctx),
	}
	_, checks["load"] = s.Load(ctx, 1)
	_, checks["keys"] = s.LoadAllKeys(ctx)
	_, checks["exists"] = s.Exists(ctx, 1)

	for op, err := range checks {
		if !errors.Is(err, domain.ErrCacheUnavailable) {
			t.Errorf("%s: err = %v, want ErrCacheUnavailable", op, err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("%s: cause lost: %v", op, err)
		}
	}
}

func TestSynchronizer_LoadMissingIsNotFound(t *testing.T) {
	s := NewSynchronizer(failingStore{err: ErrKeyNotFound}, 0, nil)
	if _, err := s.Load(context.Background(), 1); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Load err = %v, want ErrAccountNotFound", err)
	}
}

func TestSynchronizer_OpTimeout(t *testing.T) {
	s := NewSynchronizer(slowStore{}, 20*time.Millisecond, nil)

	start := time.Now()
	err := s.Save(context.Background(), 1, domain.Record{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Save err = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Save took %v, timeout not applied", elapsed)
	}
}
