// Package metric provides the Prometheus metrics of ledgerd.
//
// A Registry owns its own prometheus.Registry so tests can create isolated
// instances; the server uses Global. Metrics are served by Handler on the
// admin listener at /metrics.
package metric
