// Package cmap provides a concurrent map split into independently locked shards.
//
// The ledger keeps its account registry here: the shard lock guards only the
// key-to-value mapping, so lookups, inserts and removals on different shards never
// contend, and no shard lock is ever held while the caller works on a value.
//
// Usage:
//
//	m := cmap.New[int64, *Account]()
//	if !m.SetIfAbsent(101, acct) {
//		// key already taken
//	}
//	acct, ok := m.Get(101)
//
// Keys are spread over shards with murmur3. Integer and string keys are hashed from
// their raw bytes; any other comparable key falls back to its fmt representation.
package cmap
