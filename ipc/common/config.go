package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// EnvServerURI is the environment variable under which a launching
	// daemon publishes its rendezvous URI (<namespace>:<rank>:<path>).
	EnvServerURI = "DIPC_SERVER_URI"

	// EnvAuthToken is read by the token security mechanism.
	EnvAuthToken = "DIPC_AUTH_TOKEN"

	// ProtocolVersion is sent in the connect handshake. The daemon uses it
	// to decide how much of the handshake payload it understands.
	ProtocolVersion = "2.0"
)

// Role describes how this process participates in the IPC system. Only
// clients may initiate a connection to the daemon.
type Role uint8

const (
	RoleClient Role = iota
	RoleDaemon
	RoleTool
)

// String returns the string representation of a Role.
func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleDaemon:
		return "daemon"
	case RoleTool:
		return "tool"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Identity
// --------------------------------------------------------------------------

// Identity names a process within the job: the namespace it was launched
// under and its rank within that namespace.
type Identity struct {
	Namespace string
	Rank      uint32
}

// String returns the identity in <namespace>:<rank> form.
func (id Identity) String() string {
	return fmt.Sprintf("%s:%d", id.Namespace, id.Rank)
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// SocketConf holds kernel buffer sizes applied to an established connection
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds settings only relevant for the tcp transport medium
type TCPConf struct {
	// Port the daemon listens on. The rendezvous URI's path field carries
	// the host for this medium; the port is configured out of band.
	Port int

	TCPNoDelay      bool
	TCPKeepAliveSec int
}

// ClientTransportConfig groups the transport-medium settings
type ClientTransportConfig struct {
	// RendezvousURI overrides EnvServerURI when non-empty. Tools use this
	// to target a specific daemon; regular clients leave it empty.
	RendezvousURI string

	SocketConf SocketConf
	TCPConf    TCPConf
}

// ClientConfig holds all configuration parameters for a client session.
type ClientConfig struct {
	// Who we are
	Role     Role
	Identity Identity

	// Negotiation parameters advertised during the connect handshake
	Security       string // security mechanism ("native", "token")
	Serializer     string // serialization profile ("json", "gob", "binary")
	Backend        string // data-store backend identifier ("hash", "shmem")
	SelfDescribing bool   // send fully self-describing payload buffers

	// TimeoutSecond bounds the data-plane send/receive deadlines.
	// The connect acknowledgment always uses its own fixed bound.
	TimeoutSecond int

	Transport ClientTransportConfig

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Identity")
	addField("Role", c.Role.String())
	addField("Namespace", c.Identity.Namespace)
	addField("Rank", strconv.FormatUint(uint64(c.Identity.Rank), 10))

	addSection("Negotiation")
	addField("Protocol Version", ProtocolVersion)
	addField("Security", c.Security)
	addField("Serializer", c.Serializer)
	addField("Backend", c.Backend)
	addField("Self Describing", fmt.Sprintf("%t", c.SelfDescribing))

	addSection("Transport")
	if c.Transport.RendezvousURI != "" {
		addField("Rendezvous URI", c.Transport.RendezvousURI)
	} else {
		addField("Rendezvous URI", fmt.Sprintf("$%s", EnvServerURI))
	}
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.SocketConf.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.SocketConf.ReadBufferSize))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
