package actions

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/swipecli/swipecli/utils"
)

const DefaultShell = "/bin/sh"

// outputWaitDelay bounds how long a killed command's leftover children may
// hold its output pipe open
const outputWaitDelay = time.Second

// CommandAction runs commands through a shell and waits for them. Stop kills
// the commands that are still running and fails any later ones.
type CommandAction struct {
	shell  string
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCommandAction returns a command action using shell, or DefaultShell when empty
func NewCommandAction(shell string) *CommandAction {
	if shell == "" {
		shell = DefaultShell
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CommandAction{shell: shell, ctx: ctx, cancel: cancel}
}

func (a *CommandAction) Kind() Kind {
	return KindCommand
}

func (a *CommandAction) Shell() string {
	return a.shell
}

func (a *CommandAction) Execute(command string) error {
	cmd := exec.CommandContext(a.ctx, a.shell, "-c", command)
	utils.ConfigureDetachedProcAttr(cmd)
	cmd.WaitDelay = outputWaitDelay

	output, err := cmd.CombinedOutput()
	if utils.IsVerbose() {
		if out := strings.TrimSpace(string(output)); out != "" {
			utils.Verbose("command %q output: %s", command, out)
		}
	}

	if err == nil {
		return nil
	}

	if cmd.Process != nil && a.ctx.Err() != nil {
		actionErr := newActionError(KindCommand, command, ErrNonZeroExit, a.ctx.Err())
		actionErr.ExitCode = -1
		return actionErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		actionErr := newActionError(KindCommand, command, ErrNonZeroExit, nil)
		actionErr.ExitCode = exitErr.ExitCode()
		return actionErr
	}

	return newActionError(KindCommand, command, ErrSpawnFailure, err)
}

// Stop kills the process groups of running commands. Commands executed
// afterwards fail to spawn.
func (a *CommandAction) Stop() {
	a.cancel()
}
