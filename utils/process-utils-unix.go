//go:build unix

package utils

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// ConfigureDetachedProcAttr starts the command in its own process group, so a
// Ctrl-C aimed at the listener's terminal is not also delivered to action
// commands that are still running. For commands created with a context the
// whole group is killed when the context is done.
func ConfigureDetachedProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}

	if cmd.Cancel != nil {
		cmd.Cancel = func() error {
			err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			if errors.Is(err, syscall.ESRCH) {
				return os.ErrProcessDone
			}
			return err
		}
	}
}
