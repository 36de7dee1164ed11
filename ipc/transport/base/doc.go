// Package base implements the medium-independent core of the client
// transport: connection establishment with the connect handshake, and the
// asynchronous dispatch model that moves message buffers to and from the
// daemon. Medium-specific packages (unix, tcp) extend it with a connector.
//
// The package focuses on:
//   - Connection setup: rendezvous resolution, dialing through a pluggable
//     connector, the framed connect handshake with credential exchange,
//     optional security handshake and peer index assignment
//   - Single-owner I/O: one goroutine per session owns the socket writes
//     and the pending-reply table, so no lock ever guards connection state
//   - Frame-based message protocol with tag-correlated replies
//
// Key Components:
//
//   - IClientConnector: Interface for medium-specific operations that
//     allows extending the base transport with different socket types.
//
//   - clientTransport: Core client implementation; one value is one
//     connection session with the daemon.
//
//   - dispatchQueue: Lock-free MPSC queue through which any goroutine
//     hands requests to the I/O-owning goroutine in submission order.
//
// Performance Optimizations:
//
//   - Frame Batching: The transport uses net.Buffers to reduce syscalls
//     when writing frames, combining header and payload into a single
//     write operation.
//
//   - Lock-free Dispatch: Request submission never takes a lock; producers
//     append to an atomic linked list and the I/O-owning goroutine drains
//     it through a channel.
//
// Thread Safety:
//
//	All public methods are thread-safe. Requests are immutable once queued
//	and reply callbacks fire exactly once, on the I/O-owning goroutine.
package base
