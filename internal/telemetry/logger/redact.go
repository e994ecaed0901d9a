package logger

import (
	"log/slog"
	"strings"
)

// Attribute keys containing one of these are redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"bearer",
}

// Attribute keys ending with one of these are redacted. A bare "key" is
// left alone: cache keys are logged under it.
var sensitiveKeySuffixes = []string{
	"_key",
	"apikey",
}

const redactedValue = "***REDACTED***"

// redactSensitive replaces non-empty string values of sensitive keys.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	for _, suffix := range sensitiveKeySuffixes {
		if strings.HasSuffix(keyLower, suffix) {
			return true
		}
	}
	return false
}

// MaskSecret keeps the first and last two characters of a secret.
// Values of four characters or fewer are fully masked.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
