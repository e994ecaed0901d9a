package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/yndnr/ledgerd/internal/storage"
)

func TestStore_HSetReplacesFields(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.HSet(ctx, "account:1", map[string]string{"type": "SAVINGS", "balance": "1", "interest": "0.02"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if err := store.HSet(ctx, "account:1", map[string]string{"type": "CHECKING", "balance": "2", "overdraft": "10"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}

	got, err := store.HGetAll(ctx, "account:1")
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	want := map[string]string{"type": "CHECKING", "balance": "2", "overdraft": "10"}
	if len(got) != len(want) {
		t.Fatalf("HGetAll = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %q = %q, want %q", k, got[k], v)
		}
	}

	if err := store.HSet(ctx, "account:1", nil); err != nil {
		t.Fatalf("HSet(empty): %v", err)
	}
	if ok, _ := store.Exists(ctx, "account:1"); ok {
		t.Error("empty HSet should remove the hash")
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	in := map[string]string{"balance": "1"}
	_ = store.HSet(ctx, "k", in)
	in["balance"] = "mutated"

	out, _ := store.HGetAll(ctx, "k")
	out["balance"] = "mutated too"

	again, _ := store.HGetAll(ctx, "k")
	if again["balance"] != "1" {
		t.Fatalf("balance = %q, want 1", again["balance"])
	}
}

func TestStore_DelExists(t *testing.T) {
	store := New()
	ctx := context.Background()

	_ = store.HSet(ctx, "account:1", map[string]string{"a": "b"})
	if ok, _ := store.Exists(ctx, "account:1"); !ok {
		t.Fatal("Exists = false after HSet")
	}

	if err := store.Del(ctx, "account:1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if ok, _ := store.Exists(ctx, "account:1"); ok {
		t.Fatal("Exists = true after Del")
	}
	if _, err := store.HGetAll(ctx, "account:1"); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("HGetAll err = %v, want ErrKeyNotFound", err)
	}
	if err := store.Del(ctx, "account:1"); err != nil {
		t.Fatalf("Del of missing key: %v", err)
	}
}

func TestStore_ScanPrefix(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, k := range []string{"account:3", "account:1", "accounts", "other:1", "account:2"} {
		_ = store.HSet(ctx, k, map[string]string{"x": "y"})
	}

	var keys []string
	err := store.ScanPrefix(ctx, "account:", func(key string) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		t.Fatalf("ScanPrefix: %v", err)
	}
	if fmt.Sprint(keys) != "[account:1 account:2 account:3]" {
		t.Fatalf("keys = %v", keys)
	}

	count := 0
	_ = store.ScanPrefix(ctx, "account:", func(string) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("early stop visited %d keys, want 1", count)
	}
}

func TestStore_Close(t *testing.T) {
	store := New()
	ctx := context.Background()
	_ = store.HSet(ctx, "k", map[string]string{"a": "b"})

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := store.HSet(ctx, "k", nil); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("HSet after Close err = %v, want ErrClosed", err)
	}
	if _, err := store.HGetAll(ctx, "k"); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("HGetAll after Close err = %v, want ErrClosed", err)
	}
}

func TestStore_ConcurrentHSet(t *testing.T) {
	store := New(WithShards(4))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("account:%d", i%8)
			for j := 0; j < 50; j++ {
				if err := store.HSet(ctx, key, map[string]string{fmt.Sprintf("f%d", i): "v"}); err != nil {
					t.Errorf("HSet: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 8 {
		t.Fatalf("Len = %d, want 8", store.Len())
	}
	fields, _ := store.HGetAll(ctx, "account:0")
	if len(fields) != 4 {
		t.Fatalf("account:0 has %d fields, want 4", len(fields))
	}
}
