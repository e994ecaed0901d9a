// Package output renders ledger-cli results.
//
// Three formats are supported: an aligned table (the default), indented
// JSON and YAML. The table formatter knows the account view shape; any other
// value falls back to JSON.
package output
