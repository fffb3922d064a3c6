package actions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swipecli/swipecli/i3"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Spec
		wantErr string
	}{
		{"i3 action", "i3:workspace next", Spec{Kind: KindIPC, Command: "workspace next"}, ""},
		{"ipc alias", "ipc:workspace prev", Spec{Kind: KindIPC, Command: "workspace prev"}, ""},
		{"command action", "command:touch /tmp/x", Spec{Kind: KindCommand, Command: "touch /tmp/x"}, ""},
		{"colon in command", "command:echo a:b:c", Spec{Kind: KindCommand, Command: "echo a:b:c"}, ""},
		{"no separator", "workspace next", Spec{}, "not in the form"},
		{"empty type", ":workspace next", Spec{}, "empty type"},
		{"empty command", "i3:", Spec{}, "empty command"},
		{"blank command", "command:   ", Spec{}, "empty command"},
		{"unknown type", "xdotool:key super", Spec{}, "does not start with a valid action type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpec(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpec_String(t *testing.T) {
	spec, err := ParseSpec("ipc:workspace next")
	require.NoError(t, err)
	assert.Equal(t, "i3:workspace next", spec.String())
}

func TestParseKindSet(t *testing.T) {
	set, err := ParseKindSet([]string{"command", "i3"})
	require.NoError(t, err)
	assert.True(t, set.Has(KindIPC))
	assert.True(t, set.Has(KindCommand))
	assert.Equal(t, []string{"command", "i3"}, set.Names())

	empty, err := ParseKindSet(nil)
	require.NoError(t, err)
	assert.False(t, empty.Has(KindIPC))

	_, err = ParseKindSet([]string{"i3", "dbus"})
	assert.Error(t, err)
}

// --- ActionError tests ---

func TestActionError_Is(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := error(newActionError(KindIPC, "workspace next", ErrTransportFailure, cause))

	assert.True(t, errors.Is(err, ErrTransportFailure))
	assert.False(t, errors.Is(err, ErrRejected))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), `i3 action "workspace next": transport failure: connection refused`)

	var actionErr *ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, KindIPC, actionErr.Kind)
}

func TestActionError_ExitCodeInMessage(t *testing.T) {
	err := newActionError(KindCommand, "false", ErrNonZeroExit, nil)
	err.ExitCode = 1
	assert.Equal(t, `command action "false": non-zero exit (exit code 1)`, err.Error())
}

// --- IPCAction tests ---

type fakeCommander struct {
	outcomes []i3.CommandOutcome
	err      error
	received []string
}

func (f *fakeCommander) RunCommand(command string) ([]i3.CommandOutcome, error) {
	f.received = append(f.received, command)
	return f.outcomes, f.err
}

func TestIPCAction_Success(t *testing.T) {
	commander := &fakeCommander{outcomes: []i3.CommandOutcome{{Success: true}}}
	action := NewIPCAction(commander)

	assert.Equal(t, KindIPC, action.Kind())
	assert.NoError(t, action.Execute("workspace next"))
	assert.Equal(t, []string{"workspace next"}, commander.received)
}

func TestIPCAction_Rejected(t *testing.T) {
	commander := &fakeCommander{outcomes: []i3.CommandOutcome{
		{Success: true},
		{Success: false, ParseError: true, Error: "Unknown command"},
	}}
	action := NewIPCAction(commander)

	err := action.Execute("workspace next, frobnicate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Contains(t, err.Error(), "Unknown command")
}

func TestIPCAction_RejectedWithoutMessage(t *testing.T) {
	action := NewIPCAction(&fakeCommander{outcomes: []i3.CommandOutcome{{Success: false}}})

	err := action.Execute("move scratchpad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Contains(t, err.Error(), "command not applied")
}

func TestIPCAction_TransportFailure(t *testing.T) {
	action := NewIPCAction(&fakeCommander{err: i3.ErrSocketNotFound})

	err := action.Execute("workspace next")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransportFailure))
	assert.True(t, errors.Is(err, i3.ErrSocketNotFound))
}

func TestIPCAction_AgainstSocket(t *testing.T) {
	// the real client against a path where nothing listens
	client := i3.NewClient(filepath.Join(t.TempDir(), "nobody.sock"))
	defer client.Close()

	err := NewIPCAction(client).Execute("workspace next")
	assert.True(t, errors.Is(err, ErrTransportFailure))
}

// --- CommandAction tests ---

func TestCommandAction_Success(t *testing.T) {
	target := filepath.Join(t.TempDir(), "x")
	action := NewCommandAction("")

	assert.Equal(t, KindCommand, action.Kind())
	assert.Equal(t, DefaultShell, action.Shell())
	require.NoError(t, action.Execute("touch "+target))

	_, err := os.Stat(target)
	assert.NoError(t, err)
}

func TestCommandAction_ShellSyntax(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out")
	action := NewCommandAction("")

	require.NoError(t, action.Execute(fmt.Sprintf("echo 'a b' > %q && echo c >> %q", target, target)))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "a b\nc\n", string(data))
}

func TestCommandAction_NonZeroExit(t *testing.T) {
	err := NewCommandAction("").Execute("exit 3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonZeroExit))

	var actionErr *ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, 3, actionErr.ExitCode)
	assert.Equal(t, "exit 3", actionErr.Command)
}

func TestCommandAction_SpawnFailure(t *testing.T) {
	action := NewCommandAction(filepath.Join(t.TempDir(), "no-such-shell"))

	err := action.Execute("true")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawnFailure))
	assert.False(t, errors.Is(err, ErrNonZeroExit))
}

func TestCommandAction_StopKillsRunningCommand(t *testing.T) {
	started := filepath.Join(t.TempDir(), "started")
	action := NewCommandAction("")

	done := make(chan error, 1)
	go func() {
		done <- action.Execute("touch " + started + "; sleep 30")
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(started)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	action.Stop()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.True(t, errors.Is(err, ErrNonZeroExit))
	case <-time.After(3 * time.Second):
		t.Fatal("command kept running after Stop")
	}
}

func TestCommandAction_ExecuteAfterStop(t *testing.T) {
	action := NewCommandAction("")
	action.Stop()

	err := action.Execute("true")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawnFailure))
	assert.True(t, errors.Is(err, context.Canceled))
}
