package confloader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/ledgerd/internal/server/config"
)

func startWatcher(t *testing.T, path string) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher(WithWatcherLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { w.Stop() })

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch(%s) error = %v", path, err)
	}

	changed := make(chan string, 16)
	w.OnChange(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	w.StartAsync()
	return w, changed
}

func waitChange(t *testing.T, changed <-chan string) string {
	t.Helper()
	select {
	case p := <-changed:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return ""
	}
}

func TestWatcher_ReloadsLogLevel(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	_, changed := startWatcher(t, path)

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-changed:
		case <-deadline:
			t.Fatal("log.level never reloaded as debug")
		}
		cfg := config.Default()
		if err := NewLoader(WithConfigFile(path)).Load(cfg); err != nil {
			// A reader can race the writer's truncate.
			continue
		}
		if cfg.Log.Level == "debug" {
			return
		}
	}
}

func TestWatcher_FileReplacedByRename(t *testing.T) {
	path := writeConfig(t, "cache:\n  backend: memory\n")
	_, changed := startWatcher(t, path)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte("cache:\n  backend: badger\n"), 0o600); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	got := waitChange(t, changed)
	if abs, _ := filepath.Abs(path); got != abs && got != path {
		t.Errorf("changed path = %q, want %q", got, path)
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	_, changed := startWatcher(t, path)

	dir := filepath.Dir(path)
	for _, name := range []string{"accounts.export", "ledgerd.yaml.bak"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	select {
	case p := <-changed:
		t.Errorf("change reported for unwatched file %q", p)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if err := w.Watch(filepath.Join(t.TempDir(), "absent", "ledgerd.yaml")); err == nil {
		t.Error("Watch() succeeded on a missing directory")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()

	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
