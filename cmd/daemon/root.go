package daemon

import (
	"github.com/ValentinKolb/dIPC/cmd/util"
	"github.com/ValentinKolb/dIPC/ipc/client"
	"github.com/ValentinKolb/dIPC/ipc/common"
	"github.com/spf13/cobra"
)

var (
	session *client.Client

	// DaemonCommands represents the daemon command group
	DaemonCommands = &cobra.Command{
		Use:               "daemon",
		Short:             "Interact with the local IPC daemon",
		PersistentPreRunE: setupSession,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags to the daemon command
	util.SetupIPCClientFlags(DaemonCommands)

	// Add subcommands
	DaemonCommands.AddCommand(pingCmd)
	DaemonCommands.AddCommand(infoCmd)
	DaemonCommands.AddCommand(notifyCmd)
	DaemonCommands.AddCommand(perfTestCmd)
}

// setupSession connects to the daemon and stores the session for the
// subcommand about to run
func setupSession(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration
	config := util.GetClientConfig()
	common.InitLoggers(config.LogLevel)

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Connect the session
	session, err = client.NewClient(*config, t, s)
	return err
}
