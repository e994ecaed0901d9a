package command

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ledgerd/internal/cli/connection"
	"github.com/yndnr/ledgerd/internal/cli/output"
	"github.com/yndnr/ledgerd/internal/server/dispatch"
)

// ExportCommand asks the server for the bulk export.
//
// A server configured with an export path writes the document itself and
// reports where. Otherwise the accounts come back inline and --out saves
// them locally.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all accounts as JSON",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:  "out",
				Usage: "Write inline export results to this file",
			},
		},
		Action: exportAction,
	}
}

func exportAction(c *cli.Context) error {
	client, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	s := SettingsFrom(c)
	ctx, cancel := withTimeout(c.Context, s.Timeout)
	defer cancel()

	resp, err := client.Do(ctx, connection.Request{dispatch.FieldAction: dispatch.ActionExport})
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), exitTransport)
	}

	out := c.Path("out")
	if out == "" || !resp.OK() || resp.Path != "" {
		if out != "" && resp.Path != "" {
			fmt.Fprintf(errWriter(c), "note: server wrote the export to %s; --out ignored\n", resp.Path)
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

	if err := writeExport(out, resp); err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), exitFailed)
	}
	fmt.Fprintf(c.App.Writer, "%d account(s) written to %s\n", len(resp.Accounts), out)
	return nil
}

func writeExport(path string, resp dispatch.Response) error {
	accounts := resp.Accounts
	if accounts == nil {
		return fmt.Errorf("server returned no accounts")
	}
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o640); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
