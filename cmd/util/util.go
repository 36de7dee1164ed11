package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/ValentinKolb/dIPC/ipc/security"
	"github.com/ValentinKolb/dIPC/ipc/serializer"
	"github.com/ValentinKolb/dIPC/ipc/transport"
	"github.com/ValentinKolb/dIPC/ipc/transport/tcp"
	"github.com/ValentinKolb/dIPC/ipc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupIPCClientFlags adds common daemon connection flags to a command
func SetupIPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds for daemon requests"))

	key = "uri"
	cmd.PersistentFlags().String(key, "", WrapString(fmt.Sprintf("Rendezvous URI of the daemon (namespace:rank:path). Overrides $%s", common.EnvServerURI)))

	key = "namespace"
	cmd.PersistentFlags().String(key, "dipc-cli", WrapString("Namespace this process identifies as during the handshake"))

	key = "rank"
	cmd.PersistentFlags().Uint32(key, 0, WrapString("Rank this process identifies as during the handshake"))

	key = "backend"
	cmd.PersistentFlags().String(key, "", WrapString("Data-store backend to request from the daemon (daemon-defined, optional)"))

	key = "self-describing"
	cmd.PersistentFlags().Bool(key, false, WrapString("Advertise fully self-describing payload buffers instead of the compact form"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the write buffer for the transport (in KB, 0 keeps the kernel default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the read buffer for the transport (in KB, 0 keeps the kernel default)"))

	key = "transport-tcp-port"
	cmd.PersistentFlags().Int(key, 5050, WrapString("The daemon port (only for tcp)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY for the transport (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval for the transport (in seconds, only for tcp)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dipc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := &common.ClientConfig{
		Role: common.RoleClient,
		Identity: common.Identity{
			Namespace: viper.GetString("namespace"),
			Rank:      viper.GetUint32("rank"),
		},
		Security:       viper.GetString("security"),
		Serializer:     viper.GetString("serializer"),
		Backend:        viper.GetString("backend"),
		SelfDescribing: viper.GetBool("self-describing"),
		TimeoutSecond:  viper.GetInt("timeout"),
		Transport: common.ClientTransportConfig{
			RendezvousURI: viper.GetString("uri"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				Port:            viper.GetInt("transport-tcp-port"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			},
		},
		LogLevel: viper.GetString("log-level"),
	}

	return conf
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.ISerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetSecurity creates a security mechanism based on configuration
func GetSecurity() (security.IMethod, error) {
	return security.New(viper.GetString("security"))
}

// GetTransport creates transport based on configuration
func GetTransport() (transport.IClientTransport, error) {
	sec, err := GetSecurity()
	if err != nil {
		return nil, err
	}

	switch viper.GetString("transport") {
	case "unix":
		return unix.NewUnixClientTransport(sec), nil
	case "tcp":
		return tcp.NewTCPClientTransport(sec), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
