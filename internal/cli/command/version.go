package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ledgerd/internal/cli/output"
	"github.com/yndnr/ledgerd/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			info := buildinfo.Get()
			s := SettingsFrom(c)
			if s.Format == output.FormatTable {
				_, err := fmt.Fprintf(c.App.Writer, "ledger-cli %s\n", buildinfo.String())
				return err
			}
			return output.NewFormatter(s.Format, false).Format(c.App.Writer, map[string]any{
				"version":    info.Version,
				"commit":     info.Commit,
				"build_time": info.BuildTime,
				"go_version": info.GoVersion,
			})
		},
	}
}
