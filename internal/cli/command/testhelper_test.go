package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	clicfg "github.com/yndnr/ledgerd/internal/cli/config"
	"github.com/yndnr/ledgerd/internal/core/service"
	"github.com/yndnr/ledgerd/internal/server/config"
	"github.com/yndnr/ledgerd/internal/server/dispatch"
	"github.com/yndnr/ledgerd/internal/server/ledgerserver"
	"github.com/yndnr/ledgerd/internal/storage"
	"github.com/yndnr/ledgerd/internal/storage/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testServer is a ledger server over an in-memory store.
type testServer struct {
	addr   string
	ledger *service.Ledger
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	ledger := service.NewLedger(storage.NewSynchronizer(memory.New(), 0, quietLogger()), quietLogger())
	srv := ledgerserver.New(config.LedgerConfig{
		Addr:          "127.0.0.1:0",
		ReadTimeout:   5 * time.Second,
		WriteTimeout:  5 * time.Second,
		IdleTimeout:   10 * time.Second,
		MaxFrameBytes: 64 << 10,
	}, dispatch.New(ledger, quietLogger()), quietLogger())
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return &testServer{addr: srv.Addr().String(), ledger: ledger}
}

// result is the outcome of one CLI invocation.
type result struct {
	stdout string
	stderr string
	code   int
	err    error
}

// runCLI runs ledger-cli against addr with an isolated config file.
func runCLI(t *testing.T, addr, stdin string, args ...string) result {
	t.Helper()
	for _, k := range []string{clicfg.EnvServer, clicfg.EnvOutput, clicfg.EnvTimeout} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cli.yaml")
	cfg := clicfg.Default()
	cfg.Timeout = 5 * time.Second
	cfg.HistoryFile = filepath.Join(dir, "history")
	if err := clicfg.Save(cfg, cfgPath); err != nil {
		t.Fatalf("save cli config: %v", err)
	}

	var stdout, stderr bytes.Buffer
	res := result{}

	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		var exit cli.ExitCoder
		if errors.As(err, &exit) {
			res.code = exit.ExitCode()
			if msg := err.Error(); msg != "" {
				fmt.Fprintln(&stderr, msg)
			}
		}
	}

	full := append([]string{"ledger-cli", "--config", cfgPath, "--server", addr}, args...)
	res.err = app.Run(full)
	res.stdout = stdout.String()
	res.stderr = stderr.String()
	return res
}

func (r result) mustSucceed(t *testing.T) result {
	t.Helper()
	if r.err != nil || r.code != 0 {
		t.Fatalf("command failed: err=%v code=%d\nstdout:\n%s\nstderr:\n%s", r.err, r.code, r.stdout, r.stderr)
	}
	return r
}

func createSavings(t *testing.T, srv *testServer, number, holder, balance, rate string) {
	t.Helper()
	runCLI(t, srv.addr, "", "create", "--type", "savings", "--number", number,
		"--holder", holder, "--balance", balance, "--rate", rate).mustSucceed(t)
}

func createChecking(t *testing.T, srv *testServer, number, holder, balance, limit string) {
	t.Helper()
	runCLI(t, srv.addr, "", "create", "--type", "checking", "--number", number,
		"--holder", holder, "--balance", balance, "--limit", limit).mustSucceed(t)
}
