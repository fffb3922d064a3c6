package actions

import (
	"fmt"
	"strings"

	"github.com/swipecli/swipecli/i3"
	"github.com/swipecli/swipecli/utils"
)

// Commander sends commands to the window manager. *i3.Client implements it.
type Commander interface {
	RunCommand(command string) ([]i3.CommandOutcome, error)
}

// IPCAction sends commands over the window manager's IPC socket
type IPCAction struct {
	commander Commander
}

func NewIPCAction(commander Commander) *IPCAction {
	return &IPCAction{commander: commander}
}

func (a *IPCAction) Kind() Kind {
	return KindIPC
}

// Execute runs command through RUN_COMMAND. Any outcome that is not
// successful rejects the whole command.
func (a *IPCAction) Execute(command string) error {
	outcomes, err := a.commander.RunCommand(command)
	if err != nil {
		return newActionError(KindIPC, command, ErrTransportFailure, err)
	}

	var failures []string
	for _, outcome := range outcomes {
		if outcome.Success {
			continue
		}
		if outcome.Error != "" {
			failures = append(failures, outcome.Error)
		} else {
			failures = append(failures, "command not applied")
		}
	}

	if len(failures) > 0 {
		return newActionError(KindIPC, command, ErrRejected, fmt.Errorf("%s", strings.Join(failures, "; ")))
	}

	utils.Verbose("i3 command %q applied (%d outcome(s))", command, len(outcomes))
	return nil
}
