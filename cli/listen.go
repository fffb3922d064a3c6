package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swipecli/swipecli/commands"
	"github.com/swipecli/swipecli/daemon"
	"github.com/swipecli/swipecli/server"
	"github.com/swipecli/swipecli/utils"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Listen for swipes and run their actions",
	Long: `Listens for three and four finger swipes and runs the actions configured
for each of the sixteen swipe events. Runs until interrupted.

Actions are written as type:command, where type is i3 (sent over the i3 or
sway IPC socket) or command (run with the shell), e.g.

  swipecli listen --three-finger-swipe-up "i3:fullscreen toggle" \
    --four-finger-swipe-down "command:loginctl lock-session" -e i3,command`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runDaemon {
			if pidFile == "" {
				pidFile = daemon.DefaultPidFile()
			}

			child, release, err := daemon.Daemonize(daemon.Options{PidFile: pidFile, LogFile: logFile})
			if err != nil {
				return err
			}
			if child != nil {
				fmt.Printf("Listener daemon started with pid %d (pid file %s)\n", child.Pid, pidFile)
				return nil
			}
			releasePidFile := commands.RegisterCleanup("pid file", release)
			defer func() {
				if err := releasePidFile(); err != nil {
					utils.Verbose("Failed to release pid file: %v", err)
				}
			}()
		} else if logFile != "" {
			if err := utils.SetLogFile(logFile); err != nil {
				return err
			}
		}

		return commands.Listen(cmd.Context(), commands.ListenRequest{
			Config:     loadOptions(cmd),
			Verbosity:  verbosity,
			ServeAddr:  serveAddr,
			EnableCORS: enableCORS,
			Version:    GetVersion(),
		})
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	addConfigFlags(listenCmd)
	listenCmd.Flags().StringVar(&serveAddr, "serve", "", "serve the gesture event stream on this address, e.g. "+server.DefaultAddress)
	listenCmd.Flags().BoolVar(&enableCORS, "cors", false, "allow cross-origin requests to the event stream")
	listenCmd.Flags().BoolVarP(&runDaemon, "daemon", "d", false, "run the listener in the background")
	listenCmd.Flags().StringVar(&pidFile, "pid-file", "", "pid file of the daemon (default $XDG_RUNTIME_DIR/swipecli.pid)")
	listenCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
}
