// Package transport defines the interfaces and abstractions for moving
// message buffers between this process and the coordinating daemon. It
// provides a common contract that all transport media must fulfill,
// enabling medium-agnostic connection establishment and dispatch.
//
// The package focuses on:
//   - Defining a clear interface for the client transport session
//   - The asynchronous dispatch contract: fire-and-forget sends and
//     send-with-reply requests handed over to a single I/O-owning goroutine
//   - Enabling multiple transport media (unix domain sockets, TCP)
//
// Key Components:
//
//   - IClientTransport: Interface for client-side transport implementations
//     that owns connection establishment, the daemon peer and dispatch.
//
//   - ReplyCallback/RecvHandler: Function types through which inbound
//     traffic is delivered from the I/O-owning goroutine.
package transport
