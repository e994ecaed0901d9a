// Package command defines the ledger-cli commands using urfave/cli/v2.
//
// Every account command opens one connection, sends one request and renders
// the response in the selected output format. A failed response exits with
// status 1; a transport error exits with status 2. Without a subcommand the
// interactive shell starts.
package command
