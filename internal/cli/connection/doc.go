// Package connection implements the ledger-cli side of the line protocol.
//
// A Client holds one TCP connection to a ledger server. Each request is a
// JSON object written on its own line; the server answers every request
// with exactly one JSON line.
package connection
