package base

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/ValentinKolb/dIPC/ipc/rendezvous"
	"github.com/ValentinKolb/dIPC/ipc/security"
	"github.com/ValentinKolb/dIPC/ipc/transport"
	"github.com/ValentinKolb/dIPC/ipc/wire"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("ipc/transport")

// ackTimeout bounds the wait for the daemon's connect acknowledgment. It
// is best-effort: media whose connections reject read deadlines proceed
// without a bound instead of failing.
const ackTimeout = 2 * time.Second

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for medium-specific connection
// operations (unix, tcp)
type IClientConnector interface {
	// GetName returns the name of the transport medium (e.g., "unix", "tcp")
	GetName() string

	// CheckRendezvous validates the medium's interpretation of the
	// rendezvous address before any connection is opened (the unix
	// medium requires a readable socket path)
	CheckRendezvous(desc *rendezvous.Descriptor) error

	// Connect opens a single connection to the resolved rendezvous address
	Connect(desc *rendezvous.Descriptor, config common.ClientConfig) (net.Conn, error)

	// UpgradeConnection applies medium-specific settings to an established
	// connection before the handshake runs
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Client Transport
// -----------------------------------------------------------

// clientTransport implements the core client transport independent of the
// transport medium. A value of this type is the connection session: it
// owns the established flag, the daemon peer and the assigned peer index,
// so no package-level connection state exists anywhere in the module.
type clientTransport struct {
	connector IClientConnector
	security  security.IMethod
	config    common.ClientConfig

	established atomic.Bool
	peer        atomic.Pointer[peer]

	// persistent handlers for daemon-initiated tags. They live on the
	// session rather than the peer so registrations may precede Connect
	// and survive a connection teardown.
	handlers *xsync.MapOf[uint32, transport.RecvHandler]
}

// NewBaseClientTransport creates a new base client transport with the
// specified connector and security method
func NewBaseClientTransport(connector IClientConnector, sec security.IMethod) transport.IClientTransport {
	return &clientTransport{
		connector: connector,
		security:  sec,
		handlers:  xsync.NewMapOf[uint32, transport.RecvHandler](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	// only clients may initiate a connection to the daemon
	if config.Role != common.RoleClient {
		return fmt.Errorf("%w: role %s cannot connect", common.ErrNotSupported, config.Role)
	}

	// the established flag gates re-registration: a second connect must
	// not leave a second pair of I/O goroutines on the socket
	if t.established.Load() {
		return common.ErrAlreadyConnected
	}

	t.config = config
	metricConnectAttempts.Inc()

	// resolve the rendezvous point
	uri := config.Transport.RendezvousURI
	if uri == "" {
		var err error
		if uri, err = rendezvous.URIFromEnv(); err != nil {
			metricConnectFailures.Inc()
			return err
		}
	}
	desc, err := rendezvous.Parse(uri)
	if err != nil {
		metricConnectFailures.Inc()
		return err
	}
	if err := t.connector.CheckRendezvous(desc); err != nil {
		metricConnectFailures.Inc()
		return err
	}

	// establish the connection
	conn, err := t.connector.Connect(desc, config)
	if err != nil {
		metricConnectFailures.Inc()
		return fmt.Errorf("%w: dial %s: %v", common.ErrUnreachable, desc.SocketPath, err)
	}

	// every failure path from here on closes the socket exactly once
	registered := false
	defer func() {
		if !registered {
			metricConnectFailures.Inc()
			_ = conn.Close()
		}
	}()

	if err := t.connector.UpgradeConnection(conn, config); err != nil {
		return fmt.Errorf("%w: upgrade connection: %v", common.ErrUnreachable, err)
	}

	// send our identity and credential, then wait for the verdict
	if err := t.sendHandshake(conn); err != nil {
		return err
	}
	index, err := t.recvHandshakeAck(conn)
	if err != nil {
		return err
	}

	if !t.established.CompareAndSwap(false, true) {
		// lost a connect race, the winner keeps its registration
		return common.ErrAlreadyConnected
	}

	// hand the socket to the I/O-owning goroutine pair for the rest of
	// the session
	p := newPeer(common.Identity{Namespace: desc.Namespace, Rank: desc.Rank}, conn)
	p.index.Store(index)
	t.peer.Store(p)
	go t.readLoop(p)
	go t.ioLoop(p)
	registered = true

	Logger.Infof("connected to daemon %s via %s (assigned peer index %d)",
		p.identity, t.connector.GetName(), index)

	return nil
}

func (t *clientTransport) SendRecv(buf []byte, cb transport.ReplyCallback) error {
	p := t.peer.Load()
	if p == nil || !t.established.Load() {
		return common.ErrNotConnected
	}

	// retain the peer for the lifetime of the request, construct the
	// request and shift it to the I/O-owning goroutine
	p.retain()
	req := &request{
		kind: reqSendRecv,
		peer: p,
		buf:  buf,
		tag:  p.nextDynamicTag(),
		cb:   cb,
	}
	if !p.queue.Push(req) {
		p.release()
		return common.ErrNotConnected
	}
	return nil
}

func (t *clientTransport) Send(buf []byte, tag uint32) error {
	p := t.peer.Load()
	if p == nil || !t.established.Load() {
		return common.ErrNotConnected
	}

	p.retain()
	req := &request{
		kind: reqSendOneWay,
		peer: p,
		buf:  buf,
		tag:  tag,
	}
	if !p.queue.Push(req) {
		p.release()
		return common.ErrNotConnected
	}
	return nil
}

func (t *clientTransport) RegisterRecvHandler(tag uint32, handler transport.RecvHandler) {
	t.handlers.Store(tag, handler)
}

func (t *clientTransport) PeerIndex() int32 {
	if p := t.peer.Load(); p != nil {
		return p.index.Load()
	}
	return wire.PeerIndexUnassigned
}

func (t *clientTransport) Close() error {
	p := t.peer.Load()
	if p == nil || !t.established.CompareAndSwap(true, false) {
		return common.ErrNotConnected
	}

	// reject new requests; the I/O-owning goroutine drains what is left
	p.queue.Close()
	<-p.done
	return nil
}

// --------------------------------------------------------------------------
// Connection Handshake
// --------------------------------------------------------------------------

// sendHandshake assembles and sends the connect message: header with the
// control tag and unassigned peer index, followed by the handshake payload.
// The credential is produced first so a security failure aborts the
// attempt before a single byte reaches the daemon.
func (t *clientTransport) sendHandshake(conn net.Conn) error {
	cred, err := t.security.CreateCredential(t.config.Identity, common.ProtocolVersion)
	if err != nil {
		return err
	}

	flag := wire.BufferCompact
	if t.config.SelfDescribing {
		flag = wire.BufferSelfDescribing
	}

	hs := &wire.Handshake{
		Namespace:  t.config.Identity.Namespace,
		Rank:       t.config.Identity.Rank,
		Version:    common.ProtocolVersion,
		Credential: cred,
		Mechanisms: security.Available(),
		Profile:    t.config.Serializer,
		BufferFlag: flag,
		Backend:    t.config.Backend,
	}
	payload, err := hs.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrOutOfResource, err)
	}

	hdr := wire.Header{
		PeerIndex:    wire.PeerIndexUnassigned,
		Tag:          wire.TagControl,
		PayloadBytes: uint64(len(payload)),
	}
	if err := writeFrame(conn, hdr, payload); err != nil {
		return fmt.Errorf("%w: handshake send: %v", common.ErrUnreachable, err)
	}

	Logger.Debugf("sent connect handshake as %s (%d payload bytes)",
		t.config.Identity, len(payload))
	return nil
}

// recvHandshakeAck waits for the daemon's status verdict, runs the
// security handshake when requested, and reads the assigned peer index.
func (t *clientTransport) recvHandshakeAck(conn net.Conn) (int32, error) {
	// bound the wait for the acknowledgment. Media that reject read
	// deadlines proceed unbounded instead of failing the connect.
	hasDeadline := true
	if err := conn.SetReadDeadline(time.Now().Add(ackTimeout)); err != nil {
		Logger.Debugf("connection does not support read deadlines: %v", err)
		hasDeadline = false
	}

	status, err := readStatus(conn)
	if err != nil {
		return 0, fmt.Errorf("%w: ack recv: %v", common.ErrUnreachable, err)
	}

	switch status {
	case common.StatusSuccess:
	case common.StatusReadyForHandshake:
		// the daemon wants the security mechanism to prove itself over
		// the raw connection before it admits us
		if err := t.security.ClientHandshake(t.config.Identity, conn); err != nil {
			return 0, err
		}
	default:
		// surface the daemon's verdict verbatim
		return 0, &common.StatusError{Code: status}
	}

	// our index into the daemon's client table
	index, err := readInt32(conn)
	if err != nil {
		return 0, fmt.Errorf("%w: peer index recv: %v", common.ErrUnreachable, err)
	}

	if hasDeadline {
		// return the connection to an unbounded read for the data plane
		if err := conn.SetReadDeadline(time.Time{}); err != nil {
			return 0, fmt.Errorf("%w: clear read deadline: %v", common.ErrUnreachable, err)
		}
	}

	return index, nil
}

// --------------------------------------------------------------------------
// I/O-Owning Goroutines
// --------------------------------------------------------------------------

// readLoop pulls frames off the wire and forwards them to the I/O-owning
// goroutine. It owns nothing but the read side of the socket; correlation
// state stays with ioLoop.
func (t *clientTransport) readLoop(p *peer) {
	defer close(p.inbound)

	for {
		hdr, payload, err := readFrame(p.conn)
		if err != nil {
			if !p.closing() {
				Logger.Errorf("connection to daemon %s lost: %v", p.identity, err)
			}
			return
		}

		metricMessagesReceived.Inc()
		metricBytesReceived.Add(wire.HeaderSize + len(payload))

		select {
		case p.inbound <- inboundFrame{hdr: hdr, payload: payload}:
		case <-p.done:
			return
		}
	}
}

// ioLoop is the single goroutine that owns the peer's socket writes, its
// outbound queue and the pending-reply table. Requests arrive through the
// dispatch queue in submission order, inbound frames through the reader;
// nothing else ever touches this state.
func (t *clientTransport) ioLoop(p *peer) {
	pending := make(map[uint32]transport.ReplyCallback)

	defer t.teardown(p, pending)

	for {
		select {
		case req, ok := <-p.queue.Recv():
			if !ok {
				// session closed by the user
				return
			}
			t.handleRequest(p, req, pending)

		case frame, ok := <-p.inbound:
			if !ok {
				// reader saw the connection drop
				return
			}
			t.handleInbound(p, frame, pending)
		}
	}
}

// handleRequest writes one queued request to the wire and registers its
// reply callback. Failures complete SendRecv requests immediately; one-way
// requests only have the log and the counters as their side channel.
func (t *clientTransport) handleRequest(p *peer, req *request, pending map[uint32]transport.ReplyCallback) {
	defer p.release()

	if timeout := t.config.TimeoutSecond; timeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(time.Duration(timeout) * time.Second))
	}

	hdr := wire.Header{
		PeerIndex:    p.index.Load(),
		Tag:          req.tag,
		PayloadBytes: uint64(len(req.buf)),
	}
	if err := writeFrame(p.conn, hdr, req.buf); err != nil {
		metricSendFailures.Inc()
		if req.kind == reqSendRecv {
			req.cb(common.StatusUnreachable, nil)
		} else {
			Logger.Errorf("dropped message with tag %d for daemon %s: %v", req.tag, p.identity, err)
		}
		return
	}

	metricMessagesSent.Inc()
	metricBytesSent.Add(wire.HeaderSize + len(req.buf))

	if req.kind == reqSendRecv {
		pending[req.tag] = req.cb
	}
}

// handleInbound correlates one inbound frame: first against the pending
// replies, then against the persistent handler registry.
func (t *clientTransport) handleInbound(p *peer, frame inboundFrame, pending map[uint32]transport.ReplyCallback) {
	tag := frame.hdr.Tag

	if cb, ok := pending[tag]; ok {
		delete(pending, tag)
		cb(common.StatusSuccess, frame.payload)
		return
	}

	if handler, ok := t.handlers.Load(tag); ok {
		handler(tag, frame.payload)
		return
	}

	Logger.Warningf("received message with unknown tag %d from daemon %s", tag, p.identity)
}

// teardown completes every outstanding request with a failure status,
// exactly once each, and drops the session's peer reference.
func (t *clientTransport) teardown(p *peer, pending map[uint32]transport.ReplyCallback) {
	close(p.done)
	t.established.Store(false)

	// no new requests; drain the ones already queued
	p.queue.Close()
	for req := range p.queue.Recv() {
		if req.kind == reqSendRecv {
			req.cb(common.StatusUnreachable, nil)
		} else {
			metricSendFailures.Inc()
			Logger.Errorf("dropped message with tag %d for daemon %s: connection closed", req.tag, p.identity)
		}
		p.release()
	}

	// fail the requests that made it to the wire but never got a reply
	for tag, cb := range pending {
		delete(pending, tag)
		cb(common.StatusUnreachable, nil)
	}

	// drop the session reference; the socket closes when the count drains
	p.release()

	Logger.Infof("session with daemon %s closed", p.identity)
}
