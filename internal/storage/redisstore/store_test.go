package redisstore

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/yndnr/ledgerd/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Addr = mr.Addr()
	cfg.ScanCount = 2 // force several SCAN rounds

	store, err := New(context.Background(), cfg, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := DefaultConfig()
	cfg.Addr = addr
	cfg.DialTimeout = 200 * time.Millisecond
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("New against a stopped server should fail")
	}
}

func TestStore_HSetWritesHashAndIndex(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	rec := map[string]string{"type": "SAVINGS", "name": "Alice", "balance": "1000", "interest": "0.02"}
	if err := store.HSet(ctx, "account:101", rec); err != nil {
		t.Fatalf("HSet: %v", err)
	}

	if got := mr.HGet("account:101", "name"); got != "Alice" {
		t.Errorf("HGET name = %q, want Alice", got)
	}
	if ok, _ := mr.SIsMember(IndexKey, "101"); !ok {
		t.Error("101 missing from the accounts set")
	}

	got, err := store.HGetAll(ctx, "account:101")
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	for k, v := range rec {
		if got[k] != v {
			t.Errorf("field %q = %q, want %q", k, got[k], v)
		}
	}

	members, err := mr.Members(IndexKey)
	if err != nil || len(members) != 1 || members[0] != "101" {
		t.Errorf("SMEMBERS accounts = %v, %v", members, err)
	}
}

func TestStore_HSetReplacesHash(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	savings := map[string]string{"type": "SAVINGS", "name": "Alice", "balance": "10", "interest": "0.02"}
	if err := store.HSet(ctx, "account:7", savings); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	// Re-created as the other kind without the old record being deleted.
	checking := map[string]string{"type": "CHECKING", "name": "Bob", "balance": "5", "overdraft": "100"}
	if err := store.HSet(ctx, "account:7", checking); err != nil {
		t.Fatalf("HSet: %v", err)
	}

	got, err := store.HGetAll(ctx, "account:7")
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	if len(got) != len(checking) {
		t.Fatalf("HGetAll = %v, want exactly %v", got, checking)
	}
	if _, stale := got["interest"]; stale {
		t.Error("stale interest field survived the rewrite")
	}
	if ok, _ := mr.SIsMember(IndexKey, "7"); !ok {
		t.Error("7 missing from the accounts set")
	}

	if err := store.HSet(ctx, "account:7", nil); err != nil {
		t.Fatalf("HSet(empty): %v", err)
	}
	if mr.Exists("account:7") {
		t.Error("empty HSet should remove the hash")
	}
	if ok, _ := mr.SIsMember(IndexKey, "7"); ok {
		t.Error("empty HSet should drop the index entry")
	}
}

func TestStore_NonAccountKeysSkipIndex(t *testing.T) {
	store, mr := newTestStore(t)
	if err := store.HSet(context.Background(), "meta:x", map[string]string{"a": "b"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if mr.Exists(IndexKey) {
		t.Error("non-account key should not touch the accounts set")
	}
}

func TestStore_HGetAllMissing(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.HGetAll(context.Background(), "account:9"); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("HGetAll err = %v, want ErrKeyNotFound", err)
	}
}

func TestStore_DelExists(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_ = store.HSet(ctx, "account:5", map[string]string{"type": "CHECKING"})
	if ok, err := store.Exists(ctx, "account:5"); err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	if err := store.Del(ctx, "account:5"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if ok, _ := store.Exists(ctx, "account:5"); ok {
		t.Error("key still present after Del")
	}
	if ok, _ := mr.SIsMember(IndexKey, "5"); ok {
		t.Error("5 still in the accounts set after Del")
	}
}

func TestStore_ScanPrefix(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"account:1", "account:2", "account:3", "account:4", "account:5"} {
		_ = store.HSet(ctx, k, map[string]string{"type": "SAVINGS"})
	}
	mr.HSet("other:1", "a", "b")

	var keys []string
	if err := store.ScanPrefix(ctx, "account:", func(key string) bool {
		keys = append(keys, key)
		return true
	}); err != nil {
		t.Fatalf("ScanPrefix: %v", err)
	}
	sort.Strings(keys)
	want := []string{"account:1", "account:2", "account:3", "account:4", "account:5"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestStore_ServerDown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	if err := store.HSet(context.Background(), "account:1", map[string]string{"a": "b"}); err == nil {
		t.Fatal("HSet against a stopped server should fail")
	}
}

func TestEscapeGlob(t *testing.T) {
	if got := escapeGlob(`a*b?[c]\`); got != `a\*b\?\[c\]\\` {
		t.Errorf("escapeGlob = %q", got)
	}
}

func TestStore_WithSynchronizer(t *testing.T) {
	store, _ := newTestStore(t)
	sync := storage.NewSynchronizer(store, time.Second, nil)
	ctx := context.Background()

	if err := sync.Save(ctx, 102, map[string]string{"type": "CHECKING", "name": "Bob", "balance": "-150", "overdraft": "200"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec, err := sync.Load(ctx, 102)
	if err != nil || rec["overdraft"] != "200" {
		t.Fatalf("Load = %v, %v", rec, err)
	}
	keys, err := sync.LoadAllKeys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != 102 {
		t.Fatalf("LoadAllKeys = %v, %v", keys, err)
	}
}
