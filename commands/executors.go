package commands

import (
	"github.com/swipecli/swipecli/actions"
	"github.com/swipecli/swipecli/config"
	"github.com/swipecli/swipecli/i3"
	"github.com/swipecli/swipecli/utils"
)

// executors holds one action executor per enabled kind and the resources
// behind them
type executors struct {
	list     []actions.Action
	i3Client *i3.Client
	command  *actions.CommandAction
}

// newExecutors creates the executors for the enabled kinds. The i3 client
// connects eagerly so a missing window manager shows up at startup, but an
// unreachable socket is not fatal: the client reconnects on the next action.
func newExecutors(settings *config.Settings, enabled actions.KindSet) *executors {
	e := &executors{}

	if enabled.Has(actions.KindIPC) {
		e.i3Client = i3.NewClient("")
		if err := e.i3Client.Connect(); err != nil {
			utils.Warn("i3 IPC is not available yet, i3 actions will retry on use: %v", err)
		}
		e.list = append(e.list, actions.NewIPCAction(e.i3Client))
	}

	if enabled.Has(actions.KindCommand) {
		e.command = actions.NewCommandAction(settings.Shell)
		e.list = append(e.list, e.command)
	}

	return e
}

// Close kills running command actions and closes the i3 connection
func (e *executors) Close() error {
	if e.command != nil {
		e.command.Stop()
	}
	if e.i3Client == nil {
		return nil
	}
	return e.i3Client.Close()
}
