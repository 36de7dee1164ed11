// Package cmd implements the command-line interface for dIPC. It provides a
// hierarchical command structure for interacting with a local IPC daemon.
//
// The package is organized into several subpackages:
//
//   - daemon: Commands for talking to the daemon (ping, info, notify, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dipc -help for a list of all commands.
package cmd
