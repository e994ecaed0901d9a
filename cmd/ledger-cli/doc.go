// Package main provides the entry point for ledger-cli.
//
// ledger-cli talks to ledger-server over the JSON line protocol, either one
// command per invocation or through the interactive shell:
//
//	ledger-cli create --type savings --number 101 --holder Alice --balance 1000 --rate 0.03
//	ledger-cli -o json list
//	ledger-cli --server 10.0.0.5:8080 repl
package main
