// Package config holds the ledger-cli settings file (~/.ledgerd/cli.yaml).
//
// Settings are resolved in order: built-in defaults, the YAML file, then
// LEDGERD_* environment variables. Command-line flags are applied by the
// command package on top of the result.
package config
