package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ledgerd/internal/cli/output"
	"github.com/yndnr/ledgerd/internal/cli/repl"
)

// ShellCommand starts the interactive shell.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:    "repl",
		Aliases: []string{"shell"},
		Usage:   "Start the interactive shell (default without a command)",
		Action:  shellAction,
	}
}

func shellAction(c *cli.Context) error {
	if c.NArg() > 0 {
		return cli.Exit(fmt.Sprintf("error: unknown command %q", c.Args().First()), exitFailed)
	}

	client, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	s := SettingsFrom(c)
	if s.Format == output.FormatTable {
		fmt.Fprintf(c.App.Writer, "Connected to %s. Type HELP for commands, EXIT to quit.\n", client.Addr())
	}

	r := repl.New(repl.Config{
		Client:  client,
		Input:   c.App.Reader,
		Output:  c.App.Writer,
		Prompt:  client.Addr() + "> ",
		Format:  s.Format,
		Wide:    s.Wide,
		Timeout: s.Timeout,
		History: repl.NewHistory(s.HistoryFile),
	})
	if err := r.Run(c.Context); err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), exitTransport)
	}
	return nil
}

// demoScript exercises every account operation against a fresh ledger.
var demoScript = []string{
	"CREATE SAVINGS 101 Alice 1000 0.03",
	"CREATE CHECKING 102 Bob 500 200",
	"DISPLAY_ALL",
	"DEPOSIT 101 200",
	"WITHDRAW 102 100",
	"TRANSFER 101 102 100",
	"DISPLAY_ONE 101",
	"APPLY_INTEREST_ONE 101",
	"APPLY_INTEREST_ALL",
	"MODIFY 102 holderName=Robert balance=600 overdraftLimit=300",
	"DELETE 101",
	"EXPORT_JSON",
	"DELETE 102",
}

// DemoCommand runs a scripted session. Failed steps are reported and the
// script continues.
func DemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Run a scripted walkthrough of every operation",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stop-on-error",
				Usage: "Stop at the first failed step",
			},
		},
		Action: demoAction,
	}
}

func demoAction(c *cli.Context) error {
	client, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	failed := 0
	for _, line := range demoScript {
		fmt.Fprintf(c.App.Writer, "> %s\n", line)
		cmd, err := repl.Parse(line)
		if err != nil {
			return cli.Exit(fmt.Sprintf("error: demo step %q: %v", line, err), exitFailed)
		}

		err = roundTrip(c, client, cmd.Request)
		var exit cli.ExitCoder
		if errors.As(err, &exit) && exit.ExitCode() == exitFailed {
			failed++
			if c.Bool("stop-on-error") {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(c.App.Writer, "Demo finished: %d step(s), %d failed\n", len(demoScript), failed)
	return nil
}
