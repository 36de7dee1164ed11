package security

import (
	"net"

	"github.com/ValentinKolb/dIPC/ipc/common"
)

// nativeMethod relies on the transport itself for authentication: on local
// sockets the daemon reads the connecting process's credentials from the
// kernel, so there is nothing to put in the handshake payload.
type nativeMethod struct{}

func (m *nativeMethod) Name() string {
	return "native"
}

func (m *nativeMethod) CreateCredential(common.Identity, string) ([]byte, error) {
	return nil, nil
}

// ClientHandshake must never be requested for the native mechanism - the
// daemon already has everything it needs from the kernel.
func (m *nativeMethod) ClientHandshake(id common.Identity, _ net.Conn) error {
	Logger.Errorf("daemon requested a handshake for the native mechanism (peer %s)", id)
	return common.ErrNotSupported
}
