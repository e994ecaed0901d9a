// Package service provides the ledger service.
//
// The Ledger owns the in-memory account registry and is shared by every
// client connection. It resolves account numbers, delegates mutations to the
// accounts themselves and writes each resulting record through to a
// CacheSynchronizer before returning.
//
// This package contains:
//
//   - Ledger: account lifecycle, deposits, withdrawals, modification, interest
//   - Bulk operations: listing, deleting, loading and persisting every account
//   - FileExporter: writes the bulk export document to disk, optionally sealed
//
// Operations on different accounts run in parallel. Operations on the same
// account serialize on that account's lock, which is also held while its
// record is saved, so the cache never goes back in time.
package service
