package transport

import (
	"github.com/ValentinKolb/dIPC/ipc/common"
)

// --------------------------------------------------------------------------
// Callback Types
// --------------------------------------------------------------------------

// ReplyCallback reports the outcome of a SendRecv exactly once, on the
// I/O-owning goroutine: either the daemon's reply payload with
// StatusSuccess, or a nil payload with the failure status.
type ReplyCallback func(status common.Status, payload []byte)

// RecvHandler consumes daemon-initiated messages for a tag registered via
// RegisterRecvHandler. It also runs on the I/O-owning goroutine, so it must
// not block.
type RecvHandler func(tag uint32, payload []byte)

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientTransport is the interface for the client-side daemon transport.
// A transport instance is the connection session: it owns the established
// state, the daemon peer and the assigned peer index. Implementations are
// selected at configuration time (unix, tcp) and used polymorphically.
type IClientTransport interface {
	// Connect establishes the connection to the daemon: rendezvous
	// resolution, dialing, the connect handshake with credential
	// exchange, optional security handshake and peer index assignment.
	// At most one connection attempt is in flight at a time and no
	// retries happen internally. After a successful Connect the
	// transport is ready for asynchronous traffic.
	Connect(config common.ClientConfig) error

	// SendRecv submits a request buffer expecting exactly one reply.
	// It may be called from any goroutine and returns as soon as the
	// request has been handed to the I/O-owning goroutine; cb fires
	// later, exactly once.
	SendRecv(buf []byte, cb ReplyCallback) error

	// Send submits a fire-and-forget buffer under the given tag.
	// Delivery failures are logged and counted, never reported back to
	// the caller.
	Send(buf []byte, tag uint32) error

	// RegisterRecvHandler installs a persistent handler for
	// daemon-initiated messages carrying the given tag. Registrations
	// may happen before Connect and survive a connection teardown.
	RegisterRecvHandler(tag uint32, handler RecvHandler)

	// PeerIndex returns the index the daemon assigned to this client
	// during the handshake, or -1 before establishment.
	PeerIndex() int32

	// Close tears the connection down and fails all pending replies.
	Close() error
}
