// Package domain defines the core domain models for the ledger.
//
// Domain models are pure entities without any IO dependencies or framework
// coupling. This package contains:
//
//   - Account: a financial account in one of two variants (SAVINGS earns
//     interest, CHECKING allows an overdraft), guarded by its own lock
//   - Record: the string field map an account is persisted as
//   - View: a detached copy of an account's public fields
//   - Errors: coded domain errors shared by every layer
//
// Money is carried as shopspring/decimal values, never as floats.
package domain
