// Package buildinfo exposes the version of the ledgerd binaries.
//
// Release builds inject the values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/ledgerd/internal/infra/buildinfo.Version=v1.0.0"
//
// Development builds fall back to the VCS data embedded by the Go toolchain.
package buildinfo
