package daemon

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	pingCmd = &cobra.Command{
		Use:   "ping [payload]",
		Short: "Round-trip liveness check against the daemon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := []byte("ping")
			if len(args) == 1 {
				payload = []byte(args[0])
			}

			start := time.Now()
			if err := session.Ping(payload); err != nil {
				return err
			}
			fmt.Printf("pong from peer index %d (%s)\n", session.PeerIndex(), time.Since(start))
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Query the daemon for its self-description",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := session.Info()
			if err != nil {
				return err
			}
			fmt.Println(string(info))
			return nil
		},
	}
	notifyCmd = &cobra.Command{
		Use:   "notify [payload]",
		Short: "Send a fire-and-forget notification to the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Notify([]byte(args[0])); err != nil {
				return err
			}
			fmt.Println("notification queued")
			return nil
		},
	}
)
