package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swipecli/swipecli/server"
)

func writePidFile(t *testing.T, pid int) string {
	path := filepath.Join(t.TempDir(), "swipecli.pid")
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644))
	return path
}

func TestDefaultPidFile(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/swipecli.pid", DefaultPidFile())

	t.Setenv("XDG_RUNTIME_DIR", "")
	assert.Equal(t, filepath.Join(os.TempDir(), fmt.Sprintf("swipecli-%d.pid", os.Getuid())), DefaultPidFile())
}

func TestStop_MissingPidFile(t *testing.T) {
	_, err := Stop(filepath.Join(t.TempDir(), "none.pid"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no listener is running")
}

func TestStop_StalePidFile(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	_, err := Stop(writePidFile(t, cmd.Process.Pid))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no listener is running")
}

func TestStop_SignalsProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())

	pid, err := Stop(writePidFile(t, cmd.Process.Pid))
	require.NoError(t, err)
	assert.Equal(t, cmd.Process.Pid, pid)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.False(t, exitErr.Success())
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("process did not exit after SIGTERM")
	}
}

func TestKillServer(t *testing.T) {
	called := make(chan struct{})
	s, err := server.New(server.Options{Addr: "127.0.0.1:0", OnShutdown: func() { close(called) }})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Shutdown(t.Context())

	require.NoError(t, KillServer(s.Addr()))

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown was not requested")
	}
}

func TestKillServer_NotRunning(t *testing.T) {
	err := KillServer("127.0.0.1:1")
	assert.Error(t, err)
}

func TestKillServer_DefaultAddress(t *testing.T) {
	err := KillServer("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), server.DefaultAddress)
}
