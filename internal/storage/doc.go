// Package storage provides the persistent cache behind the ledger.
//
// Accounts are stored as string field maps under "account:<number>" keys in a
// HashStore. Three backends exist:
//
//   - redisstore: Redis hashes via go-redis (production default)
//   - BadgerEngine: embedded Badger database, field maps JSON-encoded per key
//   - memory: process-local sharded map, for tests and single-process runs
//
// The Synchronizer adapts a HashStore to the ledger's CacheSynchronizer
// contract: it builds keys, bounds every call by the operation timeout and
// reports store failures as domain.ErrCacheUnavailable.
package storage
