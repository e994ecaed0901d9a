// Package memory provides an in-process HashStore.
//
// Hashes live in a sharded concurrent map and vanish with the process. The
// store backs the "memory" cache mode and the ledger's tests.
//
// Thread Safety:
//
// All operations are thread-safe. Stored field maps are copied on the way
// in and on the way out, so callers never share them.
package memory
