// Package ipc provides the client-side transport for talking to a local
// daemon over its published rendezvous point. It covers discovery, the
// connect handshake with credential exchange, and an asynchronous dispatch
// model in which a single I/O-owning goroutine holds all socket state.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the IPC system, including
//     the Message envelope, status codes, configuration structures, and
//     logging.
//
//   - rendezvous: Discovery of the daemon's rendezvous point from the
//     environment and parsing of rendezvous URIs.
//
//   - wire: The framed wire format: fixed-size message headers and the
//     connect handshake payload.
//
//   - security: Pluggable authentication mechanisms used during the
//     connect handshake (native, token).
//
//   - serializer: Message serialization with multiple format options
//     (Binary, JSON, GOB) for converting between Message objects and byte
//     arrays.
//
//   - transport: The connection session itself, with pluggable media
//     (Unix sockets, TCP).
//
//   - client: The high-level daemon session, layering synchronous typed
//     operations on top of the transport.
package ipc
