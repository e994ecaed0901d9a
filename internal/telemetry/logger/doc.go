// Package logger provides structured logging for ledgerd.
//
// It wraps log/slog:
//
//   - logger.go: handler construction and the process-wide level
//   - context.go: request IDs and tagging a component logger with them
//   - redact.go: masking of secret-looking attributes
//
// The level is held in a shared slog.LevelVar so it can be changed at runtime
// when the configuration file is reloaded.
package logger
