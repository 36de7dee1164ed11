package base

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/ValentinKolb/dIPC/ipc/transport"
	"github.com/ValentinKolb/dIPC/ipc/wire"
)

// --------------------------------------------------------------------------
// Request Objects
// --------------------------------------------------------------------------

// requestKind distinguishes the two dispatch variants
type requestKind uint8

const (
	reqSendRecv requestKind = iota
	reqSendOneWay
)

// request is the unit of work handed from a calling goroutine to the
// I/O-owning goroutine. It is immutable once queued: the submitter
// constructs it, retains the peer, and never touches it again.
type request struct {
	kind requestKind
	peer *peer
	buf  []byte
	tag  uint32
	cb   transport.ReplyCallback // only set for reqSendRecv
}

// inboundFrame is a message the reader pulled off the wire, forwarded to
// the I/O-owning goroutine for correlation.
type inboundFrame struct {
	hdr     wire.Header
	payload []byte
}

// --------------------------------------------------------------------------
// Peer
// --------------------------------------------------------------------------

// peer is the daemon endpoint as seen by this client. It is created once
// per session after a successful handshake and torn down when the
// connection drops or the session closes.
//
// Ownership discipline: the socket, the pending-reply table and the
// outbound queue head are mutated only by the I/O-owning goroutine
// (ioLoop). All other goroutines interact with the peer exclusively by
// pushing immutable requests onto the queue. The reference count is the
// single concurrently-mutated field; the socket closes exactly once, when
// the count drains.
type peer struct {
	identity common.Identity // daemon identity from the rendezvous descriptor
	conn     net.Conn

	// index assigned by the daemon during the handshake, -1 before that.
	// Written exactly once, before any data message is sent.
	index atomic.Int32

	refs atomic.Int32

	queue   *dispatchQueue
	inbound chan inboundFrame
	nextTag atomic.Uint32

	// done is closed when the I/O-owning goroutine begins teardown; the
	// reader uses it to stop forwarding frames nobody will consume
	done      chan struct{}
	closeOnce sync.Once
}

func newPeer(identity common.Identity, conn net.Conn) *peer {
	p := &peer{
		identity: identity,
		conn:     conn,
		queue:    newDispatchQueue(),
		inbound:  make(chan inboundFrame),
		done:     make(chan struct{}),
	}
	p.index.Store(wire.PeerIndexUnassigned)
	p.refs.Store(1) // session reference, dropped during teardown
	p.nextTag.Store(wire.TagDynamicBase)
	return p
}

// nextDynamicTag returns the next reply-correlation tag. Dynamic tags live
// strictly above the well-known application tags and never reach the
// control tag; on wraparound the counter resets into the dynamic range.
func (p *peer) nextDynamicTag() uint32 {
	for {
		tag := p.nextTag.Add(1)
		if tag >= wire.TagDynamicBase && tag != wire.TagControl {
			return tag
		}
		// left the dynamic range, move the counter back above the base.
		// A lost race just means another submitter fixed it first.
		p.nextTag.CompareAndSwap(tag, wire.TagDynamicBase)
	}
}

// retain takes a reference on behalf of a request object
func (p *peer) retain() {
	p.refs.Add(1)
}

// release drops a reference and closes the socket when the last one goes
func (p *peer) release() {
	if p.refs.Add(-1) == 0 {
		p.closeOnce.Do(func() {
			_ = p.conn.Close()
		})
	}
}

// closing reports whether teardown has started
func (p *peer) closing() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
