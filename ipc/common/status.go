package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Wire Status Codes
// --------------------------------------------------------------------------

// Status is the numeric status code exchanged with the daemon. It is sent
// on the wire as a fixed-width int32, so the values must never be reordered.
type Status int32

const (
	StatusSuccess Status = 0

	// Error statuses are negative so that new success-ish codes can be
	// added later without colliding with them.

	StatusFailed             Status = -1
	StatusNotSupported       Status = -2
	StatusServerNotAvailable Status = -3
	StatusMalformedURI       Status = -4
	StatusNotFound           Status = -5
	StatusUnreachable        Status = -6
	StatusOutOfResource      Status = -7
	StatusPermissionDenied   Status = -8

	// StatusReadyForHandshake is a sentinel, not an error: the daemon
	// accepted our identity and now wants the security mechanism to run
	// its own exchange over the raw connection.
	StatusReadyForHandshake Status = -9
)

// String returns a human-readable name for the status code.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusNotSupported:
		return "not-supported"
	case StatusServerNotAvailable:
		return "server-not-available"
	case StatusMalformedURI:
		return "malformed-uri"
	case StatusNotFound:
		return "not-found"
	case StatusUnreachable:
		return "unreachable"
	case StatusOutOfResource:
		return "out-of-resource"
	case StatusPermissionDenied:
		return "permission-denied"
	case StatusReadyForHandshake:
		return "ready-for-handshake"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// --------------------------------------------------------------------------
// Client-Side Error Values
// --------------------------------------------------------------------------

var (
	// ErrNotSupported is returned when the connect operation is attempted
	// by a process that is not in the client role.
	ErrNotSupported = errors.New("ipc: operation not supported for this role")

	// ErrServerNotAvailable is returned when no rendezvous URI is present
	// in the environment or the configuration.
	ErrServerNotAvailable = errors.New("ipc: daemon rendezvous URI not set")

	// ErrMalformedURI is returned when the rendezvous URI does not consist
	// of exactly three non-empty colon-separated fields.
	ErrMalformedURI = errors.New("ipc: malformed rendezvous URI")

	// ErrRendezvousNotFound is returned when the rendezvous path named by
	// the URI does not exist or is not readable.
	ErrRendezvousNotFound = errors.New("ipc: rendezvous point not found")

	// ErrUnreachable is returned for any transport-level failure: dialing,
	// blocking sends or receives during the handshake, socket options.
	ErrUnreachable = errors.New("ipc: daemon unreachable")

	// ErrOutOfResource is returned when the handshake message could not
	// be assembled.
	ErrOutOfResource = errors.New("ipc: out of resources")

	// ErrAlreadyConnected is returned by a second connect attempt against
	// an established peer.
	ErrAlreadyConnected = errors.New("ipc: already connected")

	// ErrNotConnected is returned when a send is attempted before the
	// connection is established or after it was torn down.
	ErrNotConnected = errors.New("ipc: not connected")
)

// StatusError carries a non-success status returned verbatim by the daemon
// during the connect acknowledgment. The code is surfaced unmodified so the
// caller sees exactly what the daemon decided.
type StatusError struct {
	Code Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ipc: daemon rejected connection: %s", e.Code)
}

// StatusFromError converts an error back into a wire status, used when a
// failure must be reported to a reply callback as a status code.
func StatusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrNotSupported):
		return StatusNotSupported
	case errors.Is(err, ErrServerNotAvailable):
		return StatusServerNotAvailable
	case errors.Is(err, ErrMalformedURI):
		return StatusMalformedURI
	case errors.Is(err, ErrRendezvousNotFound):
		return StatusNotFound
	case errors.Is(err, ErrUnreachable), errors.Is(err, ErrNotConnected):
		return StatusUnreachable
	case errors.Is(err, ErrOutOfResource):
		return StatusOutOfResource
	default:
		var se *StatusError
		if errors.As(err, &se) {
			return se.Code
		}
		return StatusFailed
	}
}
