// Package redisstore provides a Redis-backed storage.HashStore.
//
// Each account is a Redis hash under "account:<number>". The store also keeps
// the set "accounts" of every account number it has written, matching the
// layout older deployments already hold in Redis. Enumeration uses SCAN with
// a MATCH pattern so it never blocks the server the way KEYS would.
package redisstore
