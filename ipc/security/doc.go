// Package security provides the pluggable authentication mechanisms used
// during connection setup. A mechanism produces the credential blob that
// rides in the connect handshake and can additionally run its own exchange
// over the raw connection when the daemon requests one.
//
// Two mechanisms ship with the module:
//
//   - native: defers entirely to the transport (kernel-reported peer
//     credentials on local sockets); sends an empty credential.
//
//   - token: a shared secret from the DIPC_AUTH_TOKEN environment
//     variable, sent as the credential and replayable on demand through
//     the secondary handshake.
package security
