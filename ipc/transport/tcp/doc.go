// Package tcp provides a TCP transport medium for daemons that listen on a
// network address instead of a local socket. The handshake and dispatch
// semantics are identical to the unix medium.
package tcp
