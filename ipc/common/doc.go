// Package common provides the shared building blocks of the IPC client:
// status codes and error values, the client configuration structure, the
// process identity, the message envelope used above the transport, and the
// logging setup.
//
// The package focuses on:
//   - Wire status codes exchanged with the daemon during connection setup
//   - Sentinel error values surfaced by the connect and send operations
//   - Configuration structures with environment-driven defaults
//   - A compact Message envelope with factory functions per operation
package common
