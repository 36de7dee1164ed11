// Package wire defines the bit-exact message framing exchanged with the
// daemon: the fixed-size Header that precedes every message and the
// variable-length connect Handshake payload. The package is pure - it only
// marshals and unmarshals byte slices, all I/O lives in the transport.
//
// The original protocol sent integers in native byte order and relied on
// matching-architecture peers. This implementation pins little-endian,
// which is byte-identical on every platform the daemon ships for and makes
// the format well-defined everywhere else.
//
// The handshake payload is forward-compatible by construction: fields are
// only ever appended, and a receiver that understands just a prefix of the
// field list (older daemons stop after the credential) can still parse a
// message produced by a newer sender.
package wire
