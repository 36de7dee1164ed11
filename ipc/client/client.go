package client

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/ValentinKolb/dIPC/ipc/serializer"
	"github.com/ValentinKolb/dIPC/ipc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("ipc/client")

// Well-known message tags shared with the daemon. Request/reply traffic uses
// transport-generated tags from wire.TagDynamicBase upward; well-known tags
// must stay below that base so a reply can never be misrouted to one of them.
const (
	// TagNotify carries fire-and-forget notifications to the daemon
	TagNotify uint32 = 1

	// TagEvent carries daemon-initiated event messages to the client
	TagEvent uint32 = 2
)

// defaultInvokeTimeout bounds synchronous calls when the configuration does
// not set its own timeout
const defaultInvokeTimeout = 30 * time.Second

// Client is the high-level session with the daemon. It wraps the transport's
// asynchronous dispatch model behind synchronous calls and handles message
// serialization, so applications never touch raw buffers or tags.
type Client struct {
	config     common.ClientConfig
	transport  transport.IClientTransport
	serializer serializer.ISerializer
}

// NewClient connects the given transport and returns a ready session.
// The transport owns the connection state; closing the client closes it.
func NewClient(
	config common.ClientConfig,
	tr transport.IClientTransport,
	ser serializer.ISerializer,
) (*Client, error) {

	if err := tr.Connect(config); err != nil {
		return nil, err
	}

	return &Client{
		config:     config,
		transport:  tr,
		serializer: ser,
	}, nil
}

// --------------------------------------------------------------------------
// Daemon Operations
// --------------------------------------------------------------------------

// Ping performs a round-trip liveness check. The payload travels to the
// daemon and must come back unchanged.
func (c *Client) Ping(payload []byte) error {
	resp, err := c.Call(common.NewPingRequest(c.config.Identity, payload))
	if err != nil {
		return err
	}
	if !resp.Ok {
		return fmt.Errorf("ipc: ping rejected: %s", resp.Err)
	}
	if string(resp.Payload) != string(payload) {
		return fmt.Errorf("ipc: ping payload mismatch (%d bytes sent, %d returned)",
			len(payload), len(resp.Payload))
	}
	return nil
}

// Info queries the daemon for its self-description. The payload format is
// daemon-defined and returned opaquely.
func (c *Client) Info() ([]byte, error) {
	resp, err := c.Call(common.NewInfoRequest(c.config.Identity))
	if err != nil {
		return nil, err
	}
	if !resp.Ok {
		return nil, fmt.Errorf("ipc: info rejected: %s", resp.Err)
	}
	return resp.Payload, nil
}

// Notify sends a fire-and-forget notification. Delivery is best-effort:
// the call returns once the message is queued, and transport failures are
// only visible in the log and the counters.
func (c *Client) Notify(payload []byte) error {
	buf, err := c.serializer.Serialize(*common.NewNotify(c.config.Identity, payload))
	if err != nil {
		return fmt.Errorf("ipc: serialize notify: %w", err)
	}
	return c.transport.Send(buf, TagNotify)
}

// Call sends an arbitrary request message and waits for its reply. This is
// the escape hatch for daemon-specific operations the typed methods above
// do not cover.
func (c *Client) Call(req *common.Message) (*common.Message, error) {
	reqBytes, err := c.serializer.Serialize(*req)
	if err != nil {
		return nil, fmt.Errorf("ipc: serialize request: %w", err)
	}

	type outcome struct {
		status  common.Status
		payload []byte
	}
	done := make(chan outcome, 1)

	err = c.transport.SendRecv(reqBytes, func(status common.Status, payload []byte) {
		done <- outcome{status: status, payload: payload}
	})
	if err != nil {
		return nil, err
	}

	timeout := defaultInvokeTimeout
	if c.config.TimeoutSecond > 0 {
		timeout = time.Duration(c.config.TimeoutSecond) * time.Second
	}

	var out outcome
	select {
	case out = <-done:
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w: no reply within %s", common.ErrUnreachable, timeout)
	}

	if out.status != common.StatusSuccess {
		return nil, fmt.Errorf("%w: request failed with status %s", common.ErrUnreachable, out.status)
	}

	resp := &common.Message{}
	if err := c.serializer.Deserialize(out.payload, resp); err != nil {
		return nil, fmt.Errorf("ipc: deserialize reply: %w", err)
	}

	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, fmt.Errorf("ipc: daemon error: %s", resp.Err)
	}
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("ipc: unexpected reply type %s, expected %s", resp.MsgType, req.MsgType)
	}

	return resp, nil
}

// OnEvent installs a handler for daemon-initiated event messages. The
// handler runs on the transport's I/O-owning goroutine, so it must not
// block; hand heavy work to another goroutine.
func (c *Client) OnEvent(handler func(msg *common.Message)) {
	c.transport.RegisterRecvHandler(TagEvent, func(tag uint32, payload []byte) {
		msg := &common.Message{}
		if err := c.serializer.Deserialize(payload, msg); err != nil {
			Logger.Errorf("dropped undecodable event message: %v", err)
			return
		}
		handler(msg)
	})
}

// PeerIndex returns the index the daemon assigned to this client.
func (c *Client) PeerIndex() int32 {
	return c.transport.PeerIndex()
}

// Close tears the session down. Outstanding calls complete with an error.
func (c *Client) Close() error {
	return c.transport.Close()
}
