// Package config defines the ledgerd server configuration.
//
//   - spec.go: LedgerdConfig struct definition
//   - default.go: default values
//   - verify.go: validation (addresses, backend, durations)
//   - sanitize.go: masking of secrets before the config is logged
//
// Configuration is loaded via internal/infra/confloader from a YAML file and
// LEDGERD_ environment variables.
package config
