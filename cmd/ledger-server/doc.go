// Package main provides the entry point for ledger-server.
//
// The server keeps the account ledger in memory and writes every change
// through to the configured cache (Redis, Badger or memory). It serves:
//
//   - the JSON line protocol on server.ledger.addr
//   - an admin HTTP endpoint (health, metrics, export) on server.http.addr
//
// Usage:
//
//	ledger-server [flags]
//	ledger-server --config /etc/ledgerd/ledgerd.yaml
//
// Configuration is read from defaults, the YAML file, then LEDGERD_*
// environment variables. Changes to log.level in the file are applied
// without a restart.
package main
