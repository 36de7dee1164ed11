package tcp

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/ValentinKolb/dIPC/ipc/rendezvous"
	"github.com/ValentinKolb/dIPC/ipc/security"
	"github.com/ValentinKolb/dIPC/ipc/transport"
	"github.com/ValentinKolb/dIPC/ipc/transport/base"
)

// clientConnector implements the IClientConnector interface for TCP sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "tcp"
}

func (c *clientConnector) CheckRendezvous(desc *rendezvous.Descriptor) error {
	// no filesystem rendezvous point for tcp, only the host name to check
	if desc.SocketPath == "" {
		return fmt.Errorf("%w: empty host", common.ErrMalformedURI)
	}
	return nil
}

func (c *clientConnector) Connect(desc *rendezvous.Descriptor, config common.ClientConfig) (net.Conn, error) {
	addr := net.JoinHostPort(desc.SocketPath, strconv.Itoa(config.Transport.TCPConf.Port))
	return net.Dial("tcp", addr)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	if err := tc.SetNoDelay(config.Transport.TCPConf.TCPNoDelay); err != nil {
		return err
	}
	if sec := config.Transport.TCPConf.TCPKeepAliveSec; sec > 0 {
		if err := tc.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tc.SetKeepAlivePeriod(time.Duration(sec) * time.Second); err != nil {
			return err
		}
	}

	if size := config.Transport.SocketConf.WriteBufferSize; size > 0 {
		if err := tc.SetWriteBuffer(size); err != nil {
			return err
		}
	}
	if size := config.Transport.SocketConf.ReadBufferSize; size > 0 {
		if err := tc.SetReadBuffer(size); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPClientTransport creates a new TCP client transport with the given
// security method. The rendezvous URI's path field is interpreted as the
// daemon's host name for this medium; the port comes from TCPConf.
func NewTCPClientTransport(sec security.IMethod) transport.IClientTransport {
	return base.NewBaseClientTransport(&clientConnector{}, sec)
}
