// Package serializer provides message serialization for the payloads
// exchanged with the daemon once a connection is established. It defines a
// common interface and multiple implementations for serializing and
// deserializing the Message envelope.
//
// The package focuses on:
//   - Providing a consistent interface for different serialization formats
//   - Offering multiple implementations with different performance characteristics
//   - Minimizing memory allocations and processing overhead
//
// Key Components:
//
//   - ISerializer: Core interface that all serializer implementations must
//     satisfy. The implementation name ("json", "gob", "binary") is the
//     serialization profile the connect handshake advertises to the daemon.
//
//   - binarySerializerImpl: Custom binary format implementation optimized
//     for speed and space efficiency. Uses a flag-based approach to encode
//     only present fields.
//
//   - gobSerializerImpl: Implementation using Go's built-in gob encoding.
//
//   - jsonSerializerImpl: Implementation using JSON encoding, useful for
//     debugging or interoperability with other systems.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
package serializer
