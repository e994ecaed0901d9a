// Package tests holds end-to-end tests that run a ledger server over a real
// Redis protocol cache and drive it through the line client.
//
// Run with:
//
//	go test ./internal/tests/...
//
// The tests are skipped in -short mode.
package tests
