package config

import "time"

// Default configuration values.
const (
	DefaultLedgerAddr    = "127.0.0.1:8080"
	DefaultReadTimeout   = 30 * time.Second
	DefaultWriteTimeout  = 10 * time.Second
	DefaultIdleTimeout   = 5 * time.Minute
	DefaultRateLimit     = 200.0
	DefaultRateBurst     = 400
	DefaultMaxFrameBytes = 64 * 1024

	DefaultHTTPAddr = "127.0.0.1:9090"

	DefaultCacheBackend     = BackendRedis
	DefaultRedisAddr        = "127.0.0.1:6379"
	DefaultRedisDialTimeout = 5 * time.Second
	DefaultRedisOpTimeout   = 2 * time.Second
	DefaultBadgerDir        = "/var/lib/ledgerd/cache"
	DefaultBadgerGCInterval = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *LedgerdConfig {
	return &LedgerdConfig{
		Server: ServerSection{
			Ledger: LedgerConfig{
				Addr:          DefaultLedgerAddr,
				ReadTimeout:   DefaultReadTimeout,
				WriteTimeout:  DefaultWriteTimeout,
				IdleTimeout:   DefaultIdleTimeout,
				RateLimit:     DefaultRateLimit,
				RateBurst:     DefaultRateBurst,
				MaxFrameBytes: DefaultMaxFrameBytes,
			},
			HTTP: HTTPConfig{
				Enabled: true,
				Addr:    DefaultHTTPAddr,
			},
		},
		Cache: CacheSection{
			Backend:           DefaultCacheBackend,
			PersistOnShutdown: true,
			Redis: RedisConfig{
				Addr:        DefaultRedisAddr,
				DialTimeout: DefaultRedisDialTimeout,
				OpTimeout:   DefaultRedisOpTimeout,
			},
			Badger: BadgerConfig{
				Dir:        DefaultBadgerDir,
				GCInterval: DefaultBadgerGCInterval,
				SyncWrites: true,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
