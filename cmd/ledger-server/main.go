package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/yndnr/ledgerd/internal/core/service"
	"github.com/yndnr/ledgerd/internal/infra/buildinfo"
	"github.com/yndnr/ledgerd/internal/infra/confloader"
	"github.com/yndnr/ledgerd/internal/infra/shutdown"
	"github.com/yndnr/ledgerd/internal/server/config"
	"github.com/yndnr/ledgerd/internal/server/dispatch"
	"github.com/yndnr/ledgerd/internal/server/httpserver"
	"github.com/yndnr/ledgerd/internal/server/ledgerserver"
	"github.com/yndnr/ledgerd/internal/storage"
	"github.com/yndnr/ledgerd/internal/storage/memory"
	"github.com/yndnr/ledgerd/internal/storage/redisstore"
	"github.com/yndnr/ledgerd/internal/telemetry/logger"
	"github.com/yndnr/ledgerd/internal/telemetry/metric"
	"github.com/yndnr/ledgerd/pkg/crypto/seal"
)

const (
	shutdownTimeout = 30 * time.Second
	startupTimeout  = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ledger-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting ledger-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.Global()
	shutdownHandler := shutdown.NewHandler(shutdownTimeout, log)

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// Hooks run in reverse order: the store is closed last.
	store, opTimeout, err := openStore(startCtx, cfg, metrics, log)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	shutdownHandler.OnShutdown("cache store", func(context.Context) error {
		return store.Close()
	})

	cache := storage.NewSynchronizer(store, opTimeout, log)
	ledger := service.NewLedger(cache, log, service.WithObserver(metrics))

	n, err := ledger.LoadAll(startCtx)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	log.Info("ledger ready", "accounts", n, "backend", cfg.Cache.Backend)
	metrics.RegisterAccounts(ledger.Count)

	if cfg.Cache.PersistOnShutdown {
		shutdownHandler.OnShutdown("persist accounts", func(ctx context.Context) error {
			_, err := ledger.PersistAll(ctx)
			return err
		})
	}

	dispatchOpts := []dispatch.Option{dispatch.WithObserver(metrics)}
	exporter, err := newExporter(cfg, ledger, log)
	if err != nil {
		return fmt.Errorf("init exporter: %w", err)
	}
	if exporter != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithExporter(exporter))
	}
	dispatcher := dispatch.New(ledger, log, dispatchOpts...)

	ledgerServer := ledgerserver.New(cfg.Server.Ledger, dispatcher, log,
		ledgerserver.WithObserver(metrics))
	if err := ledgerServer.Start(context.Background()); err != nil {
		return fmt.Errorf("start ledger server: %w", err)
	}
	shutdownHandler.OnShutdown("ledger server", ledgerServer.Shutdown)

	if cfg.Server.HTTP.Enabled {
		router := httpserver.NewRouter(httpserver.RouterConfig{
			Ledger:    ledger,
			Cache:     cache,
			Metrics:   metrics.Handler(),
			Logger:    log,
			AllowList: cfg.Server.HTTP.AllowList,
		})
		httpServer := httpserver.New(cfg.Server.HTTP.Addr, router, log)
		if err := httpServer.Start(); err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
		shutdownHandler.OnShutdown("http server", httpServer.Shutdown)

		go func() {
			for range httpServer.Errors() {
				shutdownHandler.Trigger("http server failed")
			}
		}()
	}

	if *configFile != "" {
		stop, err := watchLogLevel(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config watcher", func(context.Context) error {
				return stop()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.LedgerdConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger creates the redacting logger and installs it as the default.
func initLogger(cfg *config.LedgerdConfig, out io.Writer) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}

// openStore opens the configured cache backend. The returned timeout bounds
// each synchronizer call.
func openStore(ctx context.Context, cfg *config.LedgerdConfig, metrics *metric.Registry, log *slog.Logger) (storage.HashStore, time.Duration, error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rc := redisstore.DefaultConfig()
		rc.Addr = cfg.Cache.Redis.Addr
		rc.Password = cfg.Cache.Redis.Password
		rc.DB = cfg.Cache.Redis.DB
		if cfg.Cache.Redis.DialTimeout > 0 {
			rc.DialTimeout = cfg.Cache.Redis.DialTimeout
		}
		if cfg.Cache.Redis.OpTimeout > 0 {
			rc.OpTimeout = cfg.Cache.Redis.OpTimeout
		}
		store, err := redisstore.New(ctx, rc, log)
		if err != nil {
			return nil, 0, err
		}
		return store, rc.OpTimeout, nil

	case config.BackendBadger:
		kv := storage.DefaultKVConfig(cfg.Cache.Badger.Dir)
		kv.Badger.GCInterval = cfg.Cache.Badger.GCInterval
		kv.Badger.SyncWrites = cfg.Cache.Badger.SyncWrites
		engine, err := storage.NewBadgerEngine(kv, log)
		if err != nil {
			return nil, 0, err
		}
		if metrics != nil {
			engine.RegisterMetrics(metrics.Registerer())
		}
		return engine, 0, nil

	case config.BackendMemory:
		log.Warn("memory cache backend: accounts are lost on restart")
		return memory.New(), 0, nil
	}
	return nil, 0, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}

// newExporter returns nil when no export path is configured; EXPORT then
// answers inline.
func newExporter(cfg *config.LedgerdConfig, ledger *service.Ledger, log *slog.Logger) (*service.FileExporter, error) {
	if cfg.Export.Path == "" {
		return nil, nil
	}
	var sealer *seal.Sealer
	if cfg.Export.EncryptionKey != "" {
		var err error
		if sealer, err = seal.New([]byte(cfg.Export.EncryptionKey)); err != nil {
			return nil, err
		}
	}
	return service.NewFileExporter(ledger, cfg.Export.Path, sealer, log), nil
}

// watchLogLevel re-reads the config file on change and applies log.level.
func watchLogLevel(path string, log *slog.Logger) (func() error, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		changed, err := logger.SetLevel(cfg.Log.Level)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if changed {
			log.Info("log level changed", "level", logger.LevelName())
		}
	})
	watcher.StartAsync()
	return watcher.Stop, nil
}
