package security

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/ValentinKolb/dIPC/ipc/common"
)

// tokenMethod authenticates with a shared secret handed to the process by
// its launcher through the environment. The token travels once as the
// handshake credential; daemons that want proof the client still holds it
// request the secondary exchange instead of trusting the payload copy.
type tokenMethod struct{}

func (m *tokenMethod) Name() string {
	return "token"
}

func (m *tokenMethod) CreateCredential(id common.Identity, _ string) ([]byte, error) {
	token, ok := os.LookupEnv(common.EnvAuthToken)
	if !ok || token == "" {
		return nil, fmt.Errorf("security: no token in %s for %s", common.EnvAuthToken, id)
	}
	return []byte(token), nil
}

// ClientHandshake sends the token as a length-prefixed blob and waits for
// the daemon's verdict. The exchange runs on the still-blocking connection
// during setup, before the transport takes ownership of the socket.
func (m *tokenMethod) ClientHandshake(id common.Identity, conn net.Conn) error {
	token, err := m.CreateCredential(id, common.ProtocolVersion)
	if err != nil {
		return err
	}

	sz := make([]byte, 4)
	binary.LittleEndian.PutUint32(sz, uint32(len(token)))
	if _, err := conn.Write(sz); err != nil {
		return fmt.Errorf("%w: token handshake send: %v", common.ErrUnreachable, err)
	}
	if _, err := conn.Write(token); err != nil {
		return fmt.Errorf("%w: token handshake send: %v", common.ErrUnreachable, err)
	}

	verdict := make([]byte, 4)
	if _, err := io.ReadFull(conn, verdict); err != nil {
		return fmt.Errorf("%w: token handshake recv: %v", common.ErrUnreachable, err)
	}

	if status := common.Status(int32(binary.LittleEndian.Uint32(verdict))); status != common.StatusSuccess {
		return &common.StatusError{Code: status}
	}

	Logger.Debugf("token handshake complete for %s", id)
	return nil
}
