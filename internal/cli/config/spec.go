package config

import "time"

// CLIConfig is the configuration for ledger-cli.
type CLIConfig struct {
	// Server is the ledger server address (host:port).
	Server string `yaml:"server"`

	// Output is the default output format: table, json or yaml.
	Output string `yaml:"output"`

	// Timeout bounds dialing and each request round trip.
	Timeout time.Duration `yaml:"timeout"`

	// HistoryFile is where the REPL keeps its command history.
	// Empty means ~/.ledgerd/history.
	HistoryFile string `yaml:"history_file,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "127.0.0.1:8080",
		Output:  "table",
		Timeout: 10 * time.Second,
	}
}
