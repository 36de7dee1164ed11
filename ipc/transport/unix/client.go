package unix

import (
	"net"

	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/ValentinKolb/dIPC/ipc/rendezvous"
	"github.com/ValentinKolb/dIPC/ipc/security"
	"github.com/ValentinKolb/dIPC/ipc/transport"
	"github.com/ValentinKolb/dIPC/ipc/transport/base"
)

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) CheckRendezvous(desc *rendezvous.Descriptor) error {
	return desc.CheckPath()
}

func (c *clientConnector) Connect(desc *rendezvous.Descriptor, _ common.ClientConfig) (net.Conn, error) {
	return net.Dial("unix", desc.SocketPath)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}

	if size := config.Transport.SocketConf.WriteBufferSize; size > 0 {
		if err := uc.SetWriteBuffer(size); err != nil {
			return err
		}
	}
	if size := config.Transport.SocketConf.ReadBufferSize; size > 0 {
		if err := uc.SetReadBuffer(size); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixClientTransport creates a new Unix domain socket client transport
// with the given security method
func NewUnixClientTransport(sec security.IMethod) transport.IClientTransport {
	return base.NewBaseClientTransport(&clientConnector{}, sec)
}
