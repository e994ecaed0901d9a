// Package dispatch turns decoded request envelopes into ledger operations.
//
// A request is a flat JSON object with an "action" discriminator; a response
// always carries "status" (success or failed) and "message". Every required
// field is validated before the ledger is called, and every error, including
// a handler panic, becomes a failed envelope. The dispatcher holds no
// per-connection state; EXIT only marks its response terminal so the
// transport closes the connection.
package dispatch
