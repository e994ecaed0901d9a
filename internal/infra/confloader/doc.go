// Package confloader loads configuration with koanf.
//
// Sources, later ones overriding earlier ones:
//
//  1. Values already present in the target struct (defaults)
//  2. Configuration file (YAML)
//  3. Environment variables (LEDGERD_ prefix)
//
// Watcher reports writes to the configuration file so the server can apply
// reloadable settings such as the log level.
package confloader
