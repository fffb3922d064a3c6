package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swipecli/swipecli/cli"
	"github.com/swipecli/swipecli/commands"
	"github.com/swipecli/swipecli/utils"
)

// unwindTimeout bounds how long a signal waits for the listener to return
// after the shutdown hooks released its event source, executors, server and
// pid file
const unwindTimeout = 2 * time.Second

func main() {
	// create shutdown hook registry for cleanup tracking
	hook := utils.NewShutdownHook()
	commands.SetShutdownHook(hook)

	// setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// run command in goroutine
	done := make(chan error, 1)
	go func() {
		done <- cli.Execute()
	}()

	// wait for command completion or signal
	select {
	case sig := <-sigChan:
		utils.Verbose("Received %s, shutting down", sig)
		if err := hook.Shutdown(); err != nil {
			utils.Warn("Shutdown: %v", err)
		}

		select {
		case err := <-done:
			if err != nil {
				utils.Verbose("Listener stopped with error: %v", err)
			}
		case <-time.After(unwindTimeout):
			utils.Warn("Listener did not stop within %s", unwindTimeout)
		}
		os.Exit(0)
	case err := <-done:
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
