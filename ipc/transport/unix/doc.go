// Package unix provides the Unix domain socket transport medium. This is
// the default rendezvous medium: the daemon publishes a socket path in its
// rendezvous URI and clients on the same host dial it directly.
package unix
