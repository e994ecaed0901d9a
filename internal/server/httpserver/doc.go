// Package httpserver provides the admin HTTP server for ledger-server.
//
// Endpoints:
//
//   - GET /healthz: cache reachability, account count and build info
//   - GET /metrics: Prometheus exposition
//   - GET /v1/accounts/export: the bulk export document
//
// Every route runs behind RequestID and Recover; the export route also
// passes the network allow list. Requests are access-logged.
package httpserver
