// Package ledgerserver serves the ledger request protocol over TCP.
//
// Each connection carries newline-delimited JSON: one request envelope per
// line in, one response envelope per line out, in order. Frames are handed
// to a dispatch.Dispatcher. A connection ends when the client closes it,
// sends EXIT, exceeds the frame size limit or stays idle too long.
//
// Requests are rate limited per client IP and tagged with a ULID request ID
// for log correlation.
package ledgerserver
