package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/swipecli/swipecli/utils"
)

const stderrTailSize = 4096

// DebugEventsSource reads the text output of `libinput debug-events`, either
// from a running child process or from a recording. Lines are read on a
// separate goroutine so Next can return as soon as its context is done.
type DebugEventsSource struct {
	name   string
	cmd    *exec.Cmd
	reader io.ReadCloser
	stderr *tailBuffer

	lines   chan string
	readErr error
	done    chan struct{}

	waitOnce sync.Once
	waitErr  error

	closeOnce sync.Once
	closeErr  error
}

// LibinputPath returns the libinput binary from PATH, or empty
func LibinputPath() string {
	path, err := exec.LookPath("libinput")
	if err != nil {
		return ""
	}
	return path
}

// debugEventsCommand builds the libinput invocation. stdbuf forces line
// buffering, otherwise libinput block-buffers its stdout into the pipe.
func debugEventsCommand(ctx context.Context, libinput, seat, device string) *exec.Cmd {
	args := []string{libinput, "debug-events"}
	if device != "" {
		args = append(args, "--device", device)
	} else {
		if seat == "" {
			seat = "seat0"
		}
		args = append(args, "--udev", seat)
	}

	if stdbuf, err := exec.LookPath("stdbuf"); err == nil {
		args = append([]string{stdbuf, "-oL", "--"}, args...)
	}

	return exec.CommandContext(ctx, args[0], args[1:]...)
}

// NewDebugEventsSource starts `libinput debug-events` for seat, or for a
// single device when device is set.
func NewDebugEventsSource(ctx context.Context, seat, device string) (*DebugEventsSource, error) {
	libinput := LibinputPath()
	if libinput == "" {
		return nil, fmt.Errorf("libinput not found in PATH (install libinput-tools, or use --backend evdev)")
	}

	cmd := debugEventsCommand(ctx, libinput, seat, device)
	stderr := &tailBuffer{limit: stderrTailSize}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start libinput debug-events: %w", err)
	}

	utils.Verbose("Started %s (pid %d)", strings.Join(cmd.Args, " "), cmd.Process.Pid)

	source := &DebugEventsSource{
		name:   "libinput debug-events",
		cmd:    cmd,
		reader: stdout,
		stderr: stderr,
	}
	source.start()
	return source, nil
}

// NewReplaySource reads recorded debug-events output from path, "-" for stdin
func NewReplaySource(path string) (*DebugEventsSource, error) {
	if path == "" {
		return nil, fmt.Errorf("replay backend requires a replay file")
	}

	var reader io.ReadCloser
	if path == "-" {
		reader = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open replay file: %w", err)
		}
		reader = f
	}

	return newReaderSource(path, reader), nil
}

func newReaderSource(name string, reader io.ReadCloser) *DebugEventsSource {
	source := &DebugEventsSource{
		name:   name,
		reader: reader,
	}
	source.start()
	return source
}

func (s *DebugEventsSource) start() {
	s.lines = make(chan string)
	s.done = make(chan struct{})
	go s.readLines()
}

// readLines feeds lines to Next until the reader ends or the source is
// closed. readErr is set before lines is closed.
func (s *DebugEventsSource) readLines() {
	defer close(s.lines)

	scanner := bufio.NewScanner(s.reader)
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		case <-s.done:
			return
		}
	}
	s.readErr = scanner.Err()
}

func (s *DebugEventsSource) Next(ctx context.Context) (Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-s.done:
			return Event{}, s.closedErr()
		case line, ok := <-s.lines:
			if !ok {
				return Event{}, s.finish(ctx)
			}

			event, ok, err := ParseDebugLine(line)
			if err != nil {
				utils.Verbose("Skipping unparsable line from %s: %v", s.name, err)
				continue
			}
			if ok {
				utils.Trace("%s: %s", s.name, event)
				return event, nil
			}
		}
	}
}

// finish reports why the output ended
func (s *DebugEventsSource) finish(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-s.done:
		return s.closedErr()
	default:
	}

	if s.readErr != nil {
		return fmt.Errorf("failed to read from %s: %w", s.name, s.readErr)
	}

	if s.cmd == nil {
		return io.EOF
	}

	// the child went away on its own
	waitErr := s.wait()
	if tail := strings.TrimSpace(s.stderr.String()); tail != "" {
		return fmt.Errorf("%s exited: %v: %s", s.name, waitErr, tail)
	}
	if waitErr == nil {
		waitErr = errors.New("unexpected end of output")
	}
	return fmt.Errorf("%s exited: %w", s.name, waitErr)
}

func (s *DebugEventsSource) closedErr() error {
	return fmt.Errorf("%s: %w", s.name, os.ErrClosed)
}

// wait reaps the child once, for both Next and Close
func (s *DebugEventsSource) wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
	return s.waitErr
}

// Close stops the child process and the reader. It may be called while
// Next is blocked in another goroutine.
func (s *DebugEventsSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.cmd != nil && s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		if err := s.reader.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			s.closeErr = err
		}
		if s.cmd != nil {
			// its exit status after Kill is not interesting
			_ = s.wait()
		}
	})
	return s.closeErr
}

// ParseDebugLine parses one line of `libinput debug-events` output.
// It reports false for lines that are not swipe gesture events:
//
//	-event7   GESTURE_SWIPE_BEGIN     +3.042s	3
//	 event7   GESTURE_SWIPE_UPDATE    +3.051s	3 -0.25/ 0.74 (-0.78/ 2.31 unaccelerated)
//	 event7   GESTURE_SWIPE_END       +3.263s	3 cancelled
func ParseDebugLine(line string) (Event, bool, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 || !strings.HasPrefix(fields[1], "GESTURE_SWIPE_") {
		return Event{}, false, nil
	}

	fingers, err := strconv.Atoi(fields[3])
	if err != nil {
		return Event{}, false, fmt.Errorf("invalid finger count %q", fields[3])
	}

	switch fields[1] {
	case "GESTURE_SWIPE_BEGIN":
		return Begin(fingers), true, nil
	case "GESTURE_SWIPE_END":
		if fields[len(fields)-1] == "cancelled" {
			return Cancel(), true, nil
		}
		return End(), true, nil
	case "GESTURE_SWIPE_UPDATE":
		dx, dy, err := parseDelta(strings.Join(fields[4:], ""))
		if err != nil {
			return Event{}, false, err
		}
		return Update(dx, dy), true, nil
	}

	return Event{}, false, nil
}

// parseDelta parses "dx/dy" with the unaccelerated part, if any, after '('
func parseDelta(text string) (float64, float64, error) {
	text, _, _ = strings.Cut(text, "(")
	x, y, found := strings.Cut(text, "/")
	if !found {
		return 0, 0, fmt.Errorf("invalid swipe delta %q", text)
	}

	dx, err := strconv.ParseFloat(x, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid swipe delta %q: %w", text, err)
	}
	dy, err := strconv.ParseFloat(y, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid swipe delta %q: %w", text, err)
	}

	return dx, dy, nil
}

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if len(b.buf) > b.limit {
		b.buf = b.buf[len(b.buf)-b.limit:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
