package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swipecli/swipecli/daemon"
	"github.com/swipecli/swipecli/server"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemonized listener",
	Long: `Sends SIGTERM to the listener named by the pid file. With --addr, asks a
listener started with --serve to shut down via JSON-RPC instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			if err := daemon.KillServer(stopAddr); err != nil {
				return err
			}
			fmt.Printf("Shutdown requested from listener at %s\n", stopAddr)
			return nil
		}

		if pidFile == "" {
			pidFile = daemon.DefaultPidFile()
		}

		pid, err := daemon.Stop(pidFile)
		if err != nil {
			return err
		}

		fmt.Printf("Sent SIGTERM to listener with pid %d\n", pid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)

	stopCmd.Flags().StringVar(&pidFile, "pid-file", "", "pid file of the daemon (default $XDG_RUNTIME_DIR/swipecli.pid)")
	stopCmd.Flags().StringVar(&stopAddr, "addr", "", "event stream address of the listener, e.g. "+server.DefaultAddress)
}
