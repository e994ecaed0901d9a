package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// KVStats contains storage engine statistics.
type KVStats struct {
	// TotalSize is the total disk usage in bytes.
	TotalSize uint64

	// LSMSize is the LSM tree size.
	LSMSize uint64

	// ValueLogSize is the value log size.
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64

	// GCRuns is the number of value log files rewritten by GC.
	GCRuns uint64
}

// BadgerEngine implements HashStore using Badger v3.
//
// Each hash is stored as one JSON object under its key.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	// Metrics (internal counters)
	lastGCTime atomic.Int64  // Unix milliseconds
	gcRuns     atomic.Uint64 // value log files rewritten

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	// Shutdown
	closeOnce sync.Once
	closed    atomic.Bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewBadgerEngine opens a Badger database and starts its GC loop.
func NewBadgerEngine(cfg KVConfig, logger *slog.Logger) (*BadgerEngine, error) {
	badgerCfg := cfg.Badger
	if cfg.Dir == "" && !badgerCfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Build Badger options
	opts := badger.DefaultOptions(cfg.Dir)
	if badgerCfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	if badgerCfg.CacheSize > 0 {
		opts.BlockCacheSize = badgerCfg.CacheSize
	}
	if badgerCfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = badgerCfg.ValueLogFileSize
	}
	opts.SyncWrites = badgerCfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	engine := &BadgerEngine{
		db:     db,
		cfg:    badgerCfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if !badgerCfg.InMemory && badgerCfg.GCInterval > 0 {
		engine.wg.Add(1)
		go engine.gcLoop()
	}

	logger.Info("badger engine started",
		"dir", cfg.Dir,
		"in_memory", badgerCfg.InMemory,
		"gc_interval", badgerCfg.GCInterval)

	return engine, nil
}

// HSet replaces the hash stored at key.
func (e *BadgerEngine) HSet(ctx context.Context, key string, fields map[string]string) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.db.Update(func(txn *badger.Txn) error {
		if len(fields) == 0 {
			return txn.Delete([]byte(key))
		}
		value, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("badger: encode %s: %w", key, err)
		}
		return txn.Set([]byte(key), value)
	})
}

// HGetAll returns the hash stored at key.
func (e *BadgerEngine) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var fields map[string]string
	err := e.db.View(func(txn *badger.Txn) error {
		var err error
		fields, err = getHash(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func getHash(txn *badger.Txn, key string) (map[string]string, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	var fields map[string]string
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &fields)
	})
	if err != nil {
		return nil, fmt.Errorf("badger: decode %s: %w", key, err)
	}
	return fields, nil
}

// Del removes a key.
func (e *BadgerEngine) Del(ctx context.Context, key string) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Exists reports whether key is present.
func (e *BadgerEngine) Exists(ctx context.Context, key string) (bool, error) {
	if e.closed.Load() {
		return false, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	found := false
	err := e.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// ScanPrefix iterates over keys with a given prefix.
func (e *BadgerEngine) ScanPrefix(ctx context.Context, prefix string, fn func(key string) bool) error {
	if e.closed.Load() {
		return ErrClosed
	}

	return e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false // Only need keys
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !fn(string(it.Item().Key())) {
				break
			}
		}

		return nil
	})
}

// GC runs value log garbage collection until nothing is left to rewrite.
// Returns the number of value log files rewritten.
func (e *BadgerEngine) GC(ctx context.Context) (int, error) {
	startTime := time.Now()

	runs := 0
	for {
		if err := ctx.Err(); err != nil {
			return runs, err
		}
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return runs, fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.gcRuns.Add(uint64(runs))

	e.logger.Debug("gc completed",
		"files_rewritten", runs,
		"elapsed", time.Since(startTime))

	return runs, nil
}

// Stats returns storage statistics.
func (e *BadgerEngine) Stats() KVStats {
	lsm, vlog := e.db.Size()

	return KVStats{
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   e.lastGCTime.Load(),
		GCRuns:       e.gcRuns.Load(),
	}
}

// Close stops background loops and closes the database.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.logger.Info("shutting down badger engine")
		e.closed.Store(true)
		close(e.stopCh)
		e.wg.Wait()

		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
			return
		}
		e.logger.Info("badger engine shutdown complete")
	})
	return err
}

// RegisterMetrics registers Badger metrics with Prometheus.
//
// This should be called once during initialization.
// Returns the engine for method chaining.
func (e *BadgerEngine) RegisterMetrics(registry prometheus.Registerer) *BadgerEngine {
	e.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledgerd",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})

	e.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledgerd",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})

	e.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledgerd",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})

	e.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ledgerd",
		Subsystem: "badger",
		Name:      "gc_files_rewritten_total",
		Help:      "Total value log files rewritten by Badger garbage collection",
	})

	registry.MustRegister(
		e.metricsLSMSize,
		e.metricsValueLogSize,
		e.metricsLastGCTime,
		e.metricsGCRuns,
	)

	e.wg.Add(1)
	go e.metricsUpdateLoop(15 * time.Second)

	return e
}

// metricsUpdateLoop periodically updates Prometheus metrics.
func (e *BadgerEngine) metricsUpdateLoop(interval time.Duration) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var reported uint64
	for {
		select {
		case <-ticker.C:
			stats := e.Stats()
			e.metricsLSMSize.Set(float64(stats.LSMSize))
			e.metricsValueLogSize.Set(float64(stats.ValueLogSize))
			if stats.LastGCTime > 0 {
				e.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0) // ms to seconds
			}
			// Counters only grow, so add the delta since the last tick.
			if stats.GCRuns > reported {
				e.metricsGCRuns.Add(float64(stats.GCRuns - reported))
				reported = stats.GCRuns
			}

		case <-e.stopCh:
			return
		}
	}
}

// gcLoop runs periodic garbage collection.
func (e *BadgerEngine) gcLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := e.GC(ctx); err != nil {
				e.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
