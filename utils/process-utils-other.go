//go:build !unix

package utils

import (
	"os/exec"
)

// ConfigureDetachedProcAttr is a no-op where process groups are not available
func ConfigureDetachedProcAttr(cmd *exec.Cmd) {
}
