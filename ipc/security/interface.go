package security

import (
	"fmt"
	"net"
	"strings"

	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("ipc/security")

// IMethod is the capability interface the transport consumes during
// connection setup. A method produces the credential blob carried in the
// connect handshake and, if the daemon asks for it, drives a secondary
// exchange over the raw connection before any data traffic begins.
type IMethod interface {
	// Name returns the mechanism identifier advertised to the daemon
	Name() string

	// CreateCredential produces the opaque credential blob for the given
	// identity and protocol version. A nil blob is valid: it is sent as
	// an empty field and the daemon falls back to transport-level checks.
	CreateCredential(id common.Identity, version string) ([]byte, error)

	// ClientHandshake runs the mechanism's exchange over the raw
	// connection. It is only invoked when the daemon answers the connect
	// request with the ready-for-handshake sentinel.
	ClientHandshake(id common.Identity, conn net.Conn) error
}

// --------------------------------------------------------------------------
// Method Registry
// --------------------------------------------------------------------------

// New returns the security method with the given name.
func New(name string) (IMethod, error) {
	switch name {
	case "native":
		return &nativeMethod{}, nil
	case "token":
		return &tokenMethod{}, nil
	default:
		return nil, fmt.Errorf("invalid security method %s", name)
	}
}

// Available returns the comma-separated list of mechanisms this client can
// run, ordered by preference. The list is sent verbatim in the handshake
// payload so the daemon can pick one both sides support.
func Available() string {
	return strings.Join([]string{"token", "native"}, ",")
}
