// Package repl is the interactive ledger shell.
//
// Lines use the positional syntax of the classic ledger client, for example
//
//	CREATE SAVINGS 101 Alice 1000 0.03
//	DEPOSIT 101 250.50
//	MODIFY 101 "Alice Smith" - 0.04
//
// or key=value pairs after the action. Each line becomes one request on the
// shared connection.
package repl
