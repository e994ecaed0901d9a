package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int64, int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, m.ShardCount(), tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[int64, string]()

	m.Set(101, "alice")
	m.Set(102, "bob")

	if val, ok := m.Get(101); !ok || val != "alice" {
		t.Errorf("Get(101) = (%q, %v), want (alice, true)", val, ok)
	}

	m.Delete(101)
	if m.Has(101) {
		t.Error("101 should not exist after deletion")
	}

	// Deleting a missing key is a no-op.
	m.Delete(999)
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[int64, string]()

	if !m.SetIfAbsent(7, "first") {
		t.Fatal("SetIfAbsent on empty map should succeed")
	}
	if m.SetIfAbsent(7, "second") {
		t.Fatal("SetIfAbsent on existing key should fail")
	}
	if val, _ := m.Get(7); val != "first" {
		t.Errorf("value = %q, want first (must not be overwritten)", val)
	}
}

func TestPop(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)

	val, ok := m.Pop("a")
	if !ok || val != 1 {
		t.Errorf("Pop(a) = (%d, %v), want (1, true)", val, ok)
	}
	if _, ok := m.Pop("a"); ok {
		t.Error("second Pop should report missing key")
	}
}

func TestRemoveIf(t *testing.T) {
	m := New[string, *int]()
	old, replacement := new(int), new(int)
	m.Set("a", old)
	m.Set("a", replacement)

	isOld := func(v *int) bool { return v == old }
	if m.RemoveIf("a", isOld) {
		t.Fatal("RemoveIf removed a value the predicate rejected")
	}
	if v, _ := m.Get("a"); v != replacement {
		t.Fatal("replacement value should survive")
	}
	if !m.RemoveIf("a", func(v *int) bool { return v == replacement }) {
		t.Fatal("RemoveIf should remove an approved value")
	}
	if m.RemoveIf("missing", func(*int) bool { return true }) {
		t.Error("RemoveIf on a missing key should report false")
	}
}

func TestDrain(t *testing.T) {
	m := NewWithShards[int64, int64](4)
	for i := int64(0); i < 50; i++ {
		m.Set(i, i)
	}

	drained := m.Drain()
	if len(drained) != 50 {
		t.Fatalf("Drain returned %d values, want 50", len(drained))
	}
	if m.Count() != 0 {
		t.Errorf("Count() after Drain = %d, want 0", m.Count())
	}

	sort.Slice(drained, func(i, j int) bool { return drained[i] < drained[j] })
	for i, v := range drained {
		if v != int64(i) {
			t.Fatalf("drained[%d] = %d", i, v)
		}
	}
}

func TestClear(t *testing.T) {
	m := New[string, int]()
	m.Set("key1", 1)
	m.Set("key2", 2)
	m.Clear()

	if m.Count() != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", m.Count())
	}
}

func TestHashKeyDistribution(t *testing.T) {
	m := NewWithShards[int64, struct{}](8)
	for i := int64(0); i < 800; i++ {
		m.Set(i, struct{}{})
	}

	used := 0
	for _, s := range m.shards {
		if len(s.items) > 0 {
			used++
		}
	}
	if used < 4 {
		t.Errorf("only %d of 8 shards used; keys are not spread", used)
	}
}

func TestHashKeyStable(t *testing.T) {
	if hashKey(int64(42)) != hashKey(int64(42)) {
		t.Error("hash of the same int64 key differs between calls")
	}
	if hashKey("account:42") != hashKey("account:42") {
		t.Error("hash of the same string key differs between calls")
	}
	type custom struct{ a, b int }
	if hashKey(custom{1, 2}) != hashKey(custom{1, 2}) {
		t.Error("hash of the same struct key differs between calls")
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int64, int]()
	var wg sync.WaitGroup
	numGoroutines := 50
	numOps := 500

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := int64(base*numOps + j)
				m.Set(key, j)
				m.Get(key)
				m.Has(key)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != numGoroutines*numOps {
		t.Errorf("Count() = %d, want %d", m.Count(), numGoroutines*numOps)
	}
}

func TestConcurrentSetIfAbsentSingleWinner(t *testing.T) {
	m := New[int64, int]()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if m.SetIfAbsent(1, i) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("SetIfAbsent winners = %d, want 1", wins)
	}
}

func TestRangeKeysValues(t *testing.T) {
	m := New[string, int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	collected := make(map[string]int)
	m.Range(func(key string, value int) bool {
		collected[key] = value
		return true
	})
	if len(collected) != 3 {
		t.Errorf("Range collected %d items, want 3", len(collected))
	}

	keys := m.Keys()
	sort.Strings(keys)
	if fmt.Sprint(keys) != "[a b c]" {
		t.Errorf("Keys() = %v", keys)
	}

	values := m.Values()
	sort.Ints(values)
	if fmt.Sprint(values) != "[1 2 3]" {
		t.Errorf("Values() = %v", values)
	}
}

func TestRangeEarlyStop(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 100; i++ {
		m.Set(i, i)
	}

	count := 0
	m.Range(func(key, value int) bool {
		count++
		return count < 10
	})

	if count != 10 {
		t.Errorf("Range stopped at %d, want 10", count)
	}
}
