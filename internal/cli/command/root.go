package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	clicfg "github.com/yndnr/ledgerd/internal/cli/config"
	"github.com/yndnr/ledgerd/internal/cli/connection"
	"github.com/yndnr/ledgerd/internal/cli/output"
	"github.com/yndnr/ledgerd/internal/infra/buildinfo"
)

// Exit statuses.
const (
	exitFailed    = 1
	exitTransport = 2
)

const settingsKey = "settings"

// Settings are the resolved global options of one invocation.
type Settings struct {
	Server      string
	Format      output.Format
	Wide        bool
	Timeout     time.Duration
	HistoryFile string
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "ledger-cli",
		Usage:                "Command-line client for the ledger server",
		Version:              buildinfo.Get().Version,
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			CreateCommand(),
			DepositCommand(),
			WithdrawCommand(),
			TransferCommand(),
			ModifyCommand(),
			ShowCommand(),
			ListCommand(),
			DeleteCommand(),
			DeleteAllCommand(),
			InterestCommand(),
			ExportCommand(),
			PingCommand(),
			ShellCommand(),
			DemoCommand(),
			VersionCommand(),
		},
		Before: loadSettings,
		Action: shellAction,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			Value:   clicfg.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Ledger server address (host:port)",
			EnvVars: []string{clicfg.EnvServer},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			EnvVars: []string{clicfg.EnvOutput},
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show full holder names and unrounded amounts",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Dial and request timeout",
			EnvVars: []string{clicfg.EnvTimeout},
		},
	}
}

// loadSettings merges the config file with the global flags. Flags win.
func loadSettings(c *cli.Context) error {
	cfg, err := clicfg.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), exitFailed)
	}

	if c.IsSet("server") {
		cfg.Server = c.String("server")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), exitFailed)
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = clicfg.DefaultHistoryPath()
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[settingsKey] = &Settings{
		Server:      cfg.Server,
		Format:      format,
		Wide:        c.Bool("wide"),
		Timeout:     cfg.Timeout,
		HistoryFile: cfg.HistoryFile,
	}
	return nil
}

// SettingsFrom returns the settings resolved by the app's Before hook.
func SettingsFrom(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s
	}
	cfg := clicfg.Default()
	return &Settings{Server: cfg.Server, Format: output.FormatTable, Timeout: cfg.Timeout}
}

// dial connects to the configured server.
func dial(c *cli.Context) (*connection.Client, error) {
	s := SettingsFrom(c)
	ctx, cancel := withTimeout(c.Context, s.Timeout)
	defer cancel()

	client, err := connection.Dial(ctx, s.Server, s.Timeout)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("error: %v", err), exitTransport)
	}
	return client, nil
}

// send performs one request on a fresh connection and renders the response.
func send(c *cli.Context, req connection.Request) error {
	client, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	return roundTrip(c, client, req)
}

func roundTrip(c *cli.Context, client *connection.Client, req connection.Request) error {
	s := SettingsFrom(c)
	ctx, cancel := withTimeout(c.Context, s.Timeout)
	defer cancel()

	resp, err := client.Do(ctx, req)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), exitTransport)
	}

	w := c.App.Writer
	if !resp.OK() && s.Format == output.FormatTable {
		w = errWriter(c)
	}
	if err := output.Response(w, s.Format, s.Wide, resp); err != nil {
		return err
	}
	if !resp.OK() {
		return cli.Exit("", exitFailed)
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return c.App.Writer
}

// requireArgs checks the positional argument count.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return cli.Exit(fmt.Sprintf("error: %s expects %d argument(s): %s %s",
			c.Command.Name, n, c.Command.Name, c.Command.ArgsUsage), exitFailed)
	}
	return nil
}
