package config

import "github.com/yndnr/ledgerd/internal/telemetry/logger"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *LedgerdConfig) *LedgerdConfig {
	sanitized := *cfg

	sanitized.Cache.Redis.Password = logger.MaskSecret(sanitized.Cache.Redis.Password)
	sanitized.Export.EncryptionKey = logger.MaskSecret(sanitized.Export.EncryptionKey)

	return &sanitized
}
