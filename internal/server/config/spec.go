package config

import "time"

// Cache backends.
const (
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// LedgerdConfig is the root configuration for ledger-server.
type LedgerdConfig struct {
	Server ServerSection `koanf:"server"`
	Cache  CacheSection  `koanf:"cache"`
	Export ExportSection `koanf:"export"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Ledger LedgerConfig `koanf:"ledger"`
	HTTP   HTTPConfig   `koanf:"http"`
}

// LedgerConfig configures the JSON request listener.
type LedgerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// MaxFrameBytes bounds a single request line.
	MaxFrameBytes int `koanf:"max_frame_bytes"`
}

// HTTPConfig configures the admin HTTP server.
type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`

	// AllowList restricts the export endpoint to these IPs or CIDRs.
	// Empty allows every client.
	AllowList []string `koanf:"allow_list"`
}

// CacheSection configures the write-through cache.
type CacheSection struct {
	// Backend is one of redis, badger or memory.
	Backend string `koanf:"backend"`

	// PersistOnShutdown re-saves every account before the store is closed.
	PersistOnShutdown bool `koanf:"persist_on_shutdown"`

	Redis  RedisConfig  `koanf:"redis"`
	Badger BadgerConfig `koanf:"badger"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
	OpTimeout   time.Duration `koanf:"op_timeout"`
}

// BadgerConfig configures the embedded Badger backend.
type BadgerConfig struct {
	Dir        string        `koanf:"dir"`
	GCInterval time.Duration `koanf:"gc_interval"`
	SyncWrites bool          `koanf:"sync_writes"`
}

// ExportSection configures the EXPORT action.
type ExportSection struct {
	// Path is the export file. Empty returns the document inline instead.
	Path string `koanf:"path"`

	// EncryptionKey seals the export file when set.
	EncryptionKey string `koanf:"encryption_key"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
