package daemon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sevlyar/go-daemon"
	"github.com/swipecli/swipecli/server"
)

const (
	// DaemonEnvVar is the environment variable that marks a daemon child process
	DaemonEnvVar = "SWIPECLI_DAEMON_CHILD"

	// shutdownRequestID is the JSON-RPC request ID for shutdown commands
	shutdownRequestID = 1
)

// DefaultPidFile returns $XDG_RUNTIME_DIR/swipecli.pid, or a per-user file
// in the temp directory when there is no runtime directory
func DefaultPidFile() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "swipecli.pid")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("swipecli-%d.pid", os.Getuid()))
}

type Options struct {
	PidFile string

	// LogFile receives the child's stdout and stderr, empty discards them
	LogFile string
}

func newContext(opts Options) *daemon.Context {
	workDir, err := os.Getwd()
	if err != nil {
		workDir = "/"
	}

	return &daemon.Context{
		PidFileName: opts.PidFile,
		PidFilePerm: 0644,
		LogFileName: opts.LogFile,
		LogFilePerm: 0640,
		WorkDir:     workDir,
		Umask:       027,
		Args:        os.Args,
		Env:         append(os.Environ(), fmt.Sprintf("%s=1", DaemonEnvVar)),
	}
}

// Daemonize detaches the process. It must be called by both the parent and
// the child: in the parent the returned process is the child, in the child
// it is nil and release must be called on exit to remove the pid file.
func Daemonize(opts Options) (*os.Process, func() error, error) {
	ctx := newContext(opts)

	child, err := ctx.Reborn()
	if err != nil {
		if errors.Is(err, daemon.ErrWouldBlock) {
			return nil, nil, fmt.Errorf("a listener is already running (pid file %s is locked)", opts.PidFile)
		}
		return nil, nil, fmt.Errorf("failed to daemonize: %w", err)
	}

	return child, ctx.Release, nil
}

// Stop sends SIGTERM to the process named by the pid file and returns its pid
func Stop(pidFile string) (int, error) {
	pid, err := daemon.ReadPidFile(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("no listener is running (pid file %s not found)", pidFile)
		}
		return 0, fmt.Errorf("failed to read pid file %s: %w", pidFile, err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("failed to find process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			return 0, fmt.Errorf("no listener is running (stale pid file %s names process %d)", pidFile, pid)
		}
		return 0, fmt.Errorf("failed to signal process %d: %w", pid, err)
	}

	return pid, nil
}

// KillServer connects to the event stream server and sends a shutdown
// command via JSON-RPC
func KillServer(addr string) error {
	if addr == "" {
		addr = server.DefaultAddress
	}

	// normalize address to match server's format
	// if no colon, assume it's a bare port number
	if !strings.Contains(addr, ":") {
		// validate it's a number
		if _, err := strconv.Atoi(addr); err == nil {
			addr = ":" + addr
		}
	}

	// if address starts with colon, prepend localhost
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	// prepend http:// scheme
	if !strings.HasPrefix(addr, "http://") {
		addr = "http://" + addr
	}

	reqBody := server.JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  "server.shutdown",
		ID:      shutdownRequestID,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(http.MethodPost, addr+"/rpc", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "connection refused") {
			return fmt.Errorf("listener is not serving on %s", addr)
		}
		return fmt.Errorf("failed to connect to listener: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listener returned error: %s", resp.Status)
	}

	var rpcResp server.JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("shutdown rejected: %v", rpcResp.Error)
	}

	return nil
}
