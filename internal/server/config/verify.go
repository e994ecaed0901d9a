package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// minEncryptionKeyLen matches the sealer's minimum secret length.
const minEncryptionKeyLen = 16

// Verify validates the configuration.
func Verify(cfg *LedgerdConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyCache(&cfg.Cache); err != nil {
		return err
	}
	if err := verifyExport(&cfg.Export); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.ledger.addr", cfg.Ledger.Addr); err != nil {
		return err
	}
	if cfg.Ledger.ReadTimeout < 0 || cfg.Ledger.WriteTimeout < 0 || cfg.Ledger.IdleTimeout < 0 {
		return errors.New("server.ledger timeouts must not be negative")
	}
	if cfg.Ledger.RateLimit < 0 {
		return errors.New("server.ledger.rate_limit must not be negative")
	}
	if cfg.Ledger.RateLimit > 0 && cfg.Ledger.RateBurst < 1 {
		return errors.New("server.ledger.rate_burst must be at least 1 when rate_limit is set")
	}
	if cfg.Ledger.MaxFrameBytes < 64 {
		return errors.New("server.ledger.max_frame_bytes must be at least 64")
	}

	if cfg.HTTP.Enabled {
		if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
			return err
		}
		if cfg.HTTP.Addr == cfg.Ledger.Addr {
			return fmt.Errorf("server.http.addr conflicts with server.ledger.addr (%s)", cfg.HTTP.Addr)
		}
		for _, entry := range cfg.HTTP.AllowList {
			if !validAllowEntry(entry) {
				return fmt.Errorf("server.http.allow_list: invalid IP or CIDR %q", entry)
			}
		}
	}
	return nil
}

func validAllowEntry(entry string) bool {
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}

func verifyAddr(name, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", name)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func verifyCache(cfg *CacheSection) error {
	switch strings.ToLower(cfg.Backend) {
	case BackendRedis:
		if err := verifyAddr("cache.redis.addr", cfg.Redis.Addr); err != nil {
			return err
		}
		if cfg.Redis.DB < 0 {
			return errors.New("cache.redis.db must not be negative")
		}
		if cfg.Redis.OpTimeout < 0 || cfg.Redis.DialTimeout < 0 {
			return errors.New("cache.redis timeouts must not be negative")
		}
	case BackendBadger:
		if cfg.Badger.Dir == "" {
			return errors.New("cache.badger.dir is required")
		}
		if err := os.MkdirAll(cfg.Badger.Dir, 0750); err != nil {
			return errors.New("cannot create cache directory: " + err.Error())
		}
		if cfg.Badger.GCInterval < 0 {
			return errors.New("cache.badger.gc_interval must not be negative")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("cache.backend %q is not one of redis, badger, memory", cfg.Backend)
	}
	return nil
}

func verifyExport(cfg *ExportSection) error {
	if cfg.EncryptionKey != "" {
		if len(cfg.EncryptionKey) < minEncryptionKeyLen {
			return fmt.Errorf("export.encryption_key must be at least %d bytes", minEncryptionKeyLen)
		}
		if cfg.Path == "" {
			return errors.New("export.encryption_key requires export.path")
		}
	}
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
			return errors.New("cannot create export directory: " + err.Error())
		}
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is invalid", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is invalid", cfg.Format)
	}
	return nil
}
