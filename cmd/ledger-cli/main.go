package main

import (
	"fmt"
	"os"

	"github.com/yndnr/ledgerd/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		// Exit errors were already reported by the app.
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
