// Package rendezvous discovers the daemon's rendezvous point from the
// process environment. A rendezvous URI has the form
//
//	<namespace>:<rank>:<path>
//
// where path names the local socket the daemon listens on. The package only
// parses and validates; opening the connection is the transport's job.
package rendezvous
