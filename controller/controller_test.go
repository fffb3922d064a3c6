package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swipecli/swipecli/actions"
	"github.com/swipecli/swipecli/gesture"
	"github.com/swipecli/swipecli/i3"
	"github.com/swipecli/swipecli/input"
	"github.com/swipecli/swipecli/utils"
)

// sliceSource replays a fixed list of events, then returns err (io.EOF by default)
type sliceSource struct {
	events []input.Event
	err    error
	closed bool
}

func (s *sliceSource) Next(ctx context.Context) (input.Event, error) {
	if err := ctx.Err(); err != nil {
		return input.Event{}, err
	}
	if len(s.events) == 0 {
		if s.err != nil {
			return input.Event{}, s.err
		}
		return input.Event{}, io.EOF
	}
	event := s.events[0]
	s.events = s.events[1:]
	return event, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// recordingAction remembers every command and fails the ones listed in fail
type recordingAction struct {
	kind     actions.Kind
	fail     map[string]error
	executed *[]string
}

func (a *recordingAction) Kind() actions.Kind {
	return a.kind
}

func (a *recordingAction) Execute(command string) error {
	*a.executed = append(*a.executed, a.kind.String()+":"+command)
	return a.fail[command]
}

type rejectingCommander struct{}

func (rejectingCommander) RunCommand(command string) ([]i3.CommandOutcome, error) {
	return []i3.CommandOutcome{{Success: false, Error: "Unknown command"}}, nil
}

func newTable(t *testing.T, entries map[string][]string) *actions.Table {
	table, err := actions.ParseTable(entries)
	require.NoError(t, err)
	return table
}

func defaultOptions() Options {
	return Options{
		Options: gesture.Options{Threshold: 20},
		Enabled: actions.NewKindSet(actions.Kinds...),
	}
}

func newRecordingController(t *testing.T, entries map[string][]string, opts Options, fail map[string]error) (*Controller, *[]string) {
	executed := &[]string{}
	c := New(newTable(t, entries), []actions.Action{
		&recordingAction{kind: actions.KindIPC, fail: fail, executed: executed},
		&recordingAction{kind: actions.KindCommand, fail: fail, executed: executed},
	}, opts)
	return c, executed
}

func feed(c *Controller, events ...input.Event) []gesture.Event {
	var recognized []gesture.Event
	for _, e := range events {
		if g, ok := c.Handle(e); ok {
			recognized = append(recognized, g)
		}
	}
	return recognized
}

func TestHandle_RecognizesUp(t *testing.T) {
	c, _ := newRecordingController(t, nil, defaultOptions(), nil)

	got := feed(c, input.Begin(3), input.Update(0, -25), input.End())

	assert.Equal(t, []gesture.Event{{Fingers: 3, Direction: gesture.Up}}, got)
	assert.Equal(t, Idle, c.State())
}

func TestHandle_RecognizesDiagonal(t *testing.T) {
	c, _ := newRecordingController(t, nil, defaultOptions(), nil)

	got := feed(c, input.Begin(3), input.Update(25, -25), input.End())

	assert.Equal(t, []gesture.Event{{Fingers: 3, Direction: gesture.RightUp}}, got)
}

func TestHandle_BelowThresholdIsIgnored(t *testing.T) {
	c, executed := newRecordingController(t, map[string][]string{
		"three-finger-swipe-right-down": {"i3:nop"},
	}, defaultOptions(), nil)

	got := feed(c, input.Begin(3), input.Update(5, 5), input.End())

	assert.Empty(t, got)
	assert.Empty(t, *executed)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, int64(1), c.Stats().Ignored)
}

func TestHandle_InvertY(t *testing.T) {
	opts := defaultOptions()
	opts.InvertY = true
	c, _ := newRecordingController(t, nil, opts, nil)

	got := feed(c, input.Begin(4), input.Update(0, 25), input.End())

	assert.Equal(t, []gesture.Event{{Fingers: 4, Direction: gesture.Up}}, got)
}

func TestHandle_DuplicateBeginRestartsSession(t *testing.T) {
	c, _ := newRecordingController(t, nil, defaultOptions(), nil)

	logs := new(test.Hook)
	removeHook := utils.AddHook(logs)
	defer removeHook()

	got := feed(c, input.Begin(3), input.Begin(3), input.Update(30, 0), input.End())

	assert.Equal(t, []gesture.Event{{Fingers: 3, Direction: gesture.Right}}, got)
	assert.Equal(t, Idle, c.State())

	var warnings []string
	for _, entry := range logs.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings = append(warnings, entry.Message)
		}
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "still active")
}

func TestHandle_DuplicateBeginDiscardsStaleDisplacement(t *testing.T) {
	c, _ := newRecordingController(t, nil, defaultOptions(), nil)

	// the stale session moved left; only the fresh one counts
	got := feed(c, input.Begin(3), input.Update(-100, 0), input.Begin(4), input.Update(30, 0), input.End())

	assert.Equal(t, []gesture.Event{{Fingers: 4, Direction: gesture.Right}}, got)
}

func TestDispatch_RejectedIPCContinues(t *testing.T) {
	target := filepath.Join(t.TempDir(), "x")
	table := newTable(t, map[string][]string{
		"three-finger-swipe-right": {"i3:workspace next", "command:touch " + target},
	})
	c := New(table, []actions.Action{
		actions.NewIPCAction(rejectingCommander{}),
		actions.NewCommandAction(""),
	}, defaultOptions())

	var records []Record
	c.SetObserver(ObserverFunc(func(r Record) { records = append(records, r) }))

	got := feed(c, input.Begin(3), input.Update(30, 0), input.End())
	require.Len(t, got, 1)

	require.Len(t, records, 1)
	results := records[0].Results
	require.Len(t, results, 2)

	assert.False(t, results[0].OK())
	assert.True(t, errors.Is(results[0].Err(), actions.ErrRejected))
	assert.Contains(t, results[0].Error, "Unknown command")

	assert.True(t, results[1].OK())
	_, err := os.Stat(target)
	assert.NoError(t, err, "command action should have run")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Gestures)
	assert.Equal(t, int64(2), stats.Actions)
	assert.Equal(t, int64(1), stats.Failures)
}

func TestDispatch_FailureDoesNotStopLaterActions(t *testing.T) {
	entries := map[string][]string{
		"four-finger-swipe-down": {"command:one", "i3:two", "command:three", "i3:four", "command:five"},
	}

	for failing := 0; failing < 5; failing++ {
		t.Run(fmt.Sprintf("failing action %d", failing+1), func(t *testing.T) {
			names := []string{"one", "two", "three", "four", "five"}
			fail := map[string]error{names[failing]: errors.New("boom")}
			c, executed := newRecordingController(t, entries, defaultOptions(), fail)

			results := c.Dispatch(gesture.Event{Fingers: 4, Direction: gesture.Down})

			assert.Equal(t, []string{"command:one", "i3:two", "command:three", "i3:four", "command:five"}, *executed)
			require.Len(t, results, 5)
			for i, r := range results {
				assert.Equal(t, i != failing, r.OK(), "result %d", i)
			}
		})
	}
}

func TestDispatch_AllActionsFailing(t *testing.T) {
	fail := map[string]error{"a": errors.New("x"), "b": errors.New("y")}
	c, executed := newRecordingController(t, map[string][]string{
		"three-finger-swipe-left": {"i3:a", "command:b"},
	}, defaultOptions(), fail)

	results := c.Dispatch(gesture.Event{Fingers: 3, Direction: gesture.Left})

	assert.Len(t, *executed, 2)
	assert.Len(t, results, 2)
	assert.Equal(t, int64(2), c.Stats().Failures)
}

func TestHandle_UnsupportedFingerCountsKeepState(t *testing.T) {
	c, executed := newRecordingController(t, map[string][]string{
		"three-finger-swipe-right": {"i3:workspace next"},
	}, defaultOptions(), nil)

	for _, fingers := range []int{0, 1, 2, 5} {
		got := feed(c, input.Begin(fingers), input.Update(100, 0), input.End())
		assert.Empty(t, got)
		assert.Equal(t, Idle, c.State())
	}

	// an unsupported begin in the middle of a gesture leaves it alone
	feed(c, input.Begin(3), input.Update(15, 0))
	feed(c, input.Begin(2))
	assert.Equal(t, InGesture, c.State())
	got := feed(c, input.Update(15, 0), input.End())

	assert.Equal(t, []gesture.Event{{Fingers: 3, Direction: gesture.Right}}, got)
	assert.Equal(t, []string{"i3:workspace next"}, *executed)
}

func TestHandle_SpuriousEventsWhileIdle(t *testing.T) {
	c, executed := newRecordingController(t, nil, defaultOptions(), nil)

	got := feed(c, input.Update(100, 100), input.End(), input.Cancel(), input.End())

	assert.Empty(t, got)
	assert.Empty(t, *executed)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, Stats{}, c.Stats())
}

func TestHandle_CancelProducesNoEvent(t *testing.T) {
	c, executed := newRecordingController(t, map[string][]string{
		"three-finger-swipe-right": {"i3:workspace next"},
	}, defaultOptions(), nil)

	got := feed(c, input.Begin(3), input.Update(100, 0), input.Cancel(), input.End())

	assert.Empty(t, got)
	assert.Empty(t, *executed)
	assert.Equal(t, Idle, c.State())
}

func TestHandle_StateTransitions(t *testing.T) {
	c, _ := newRecordingController(t, nil, defaultOptions(), nil)

	assert.Equal(t, Idle, c.State())
	c.Handle(input.Begin(4))
	assert.Equal(t, InGesture, c.State())
	c.Handle(input.Update(1, 1))
	assert.Equal(t, InGesture, c.State())
	c.Handle(input.End())
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "idle", c.State().String())
}

func TestDispatch_DisabledKindsAreSkipped(t *testing.T) {
	opts := defaultOptions()
	opts.Enabled = actions.NewKindSet(actions.KindIPC)
	c, executed := newRecordingController(t, map[string][]string{
		"three-finger-swipe-left": {"command:notify-send left", "i3:workspace prev"},
	}, opts, nil)

	results := c.Dispatch(gesture.Event{Fingers: 3, Direction: gesture.Left})

	assert.Equal(t, []string{"i3:workspace prev"}, *executed)
	require.Len(t, results, 1)
	assert.Equal(t, actions.KindIPC, results[0].Kind)
	assert.Equal(t, "three-finger: 1/0/0/0/0/0/0/0, four-finger: 0/0/0/0/0/0/0/0", c.Summary())
}

func TestDispatch_MissingExecutorFailsAction(t *testing.T) {
	executed := &[]string{}
	c := New(newTable(t, map[string][]string{
		"three-finger-swipe-up": {"command:true", "i3:nop"},
	}), []actions.Action{
		&recordingAction{kind: actions.KindIPC, executed: executed},
	}, defaultOptions())

	results := c.Dispatch(gesture.Event{Fingers: 3, Direction: gesture.Up})

	require.Len(t, results, 2)
	assert.False(t, results[0].OK())
	assert.Contains(t, results[0].Error, "no executor")
	assert.True(t, results[1].OK())
	assert.Equal(t, []string{"i3:nop"}, *executed)
}

func TestSetObserver_ReceivesRecord(t *testing.T) {
	c, _ := newRecordingController(t, map[string][]string{
		"four-finger-swipe-left-down": {"i3:move left"},
	}, defaultOptions(), nil)

	var records []Record
	c.SetObserver(ObserverFunc(func(r Record) { records = append(records, r) }))

	feed(c, input.Begin(4), input.Update(-12, 10), input.Update(-12, 15), input.End())
	// below threshold: no record
	feed(c, input.Begin(4), input.Update(1, 1), input.End())

	require.Len(t, records, 1)
	r := records[0]
	assert.NotEmpty(t, r.SessionID)
	assert.Equal(t, "four-finger-swipe-left-down", r.Name)
	assert.Equal(t, -24.0, r.DX)
	assert.Equal(t, 25.0, r.DY)
	assert.WithinDuration(t, time.Now(), r.Time, time.Minute)
	require.Len(t, r.Results, 1)
	assert.Equal(t, "move left", r.Results[0].Command)
}

func TestRun_ProcessesUntilEOF(t *testing.T) {
	c, executed := newRecordingController(t, map[string][]string{
		"three-finger-swipe-up":   {"i3:workspace 1"},
		"three-finger-swipe-down": {"i3:workspace 2"},
	}, defaultOptions(), nil)

	source := &sliceSource{events: []input.Event{
		input.Begin(3), input.Update(0, -30), input.End(),
		input.Begin(3), input.Update(0, 30), input.End(),
	}}

	err := c.Run(context.Background(), source)

	require.NoError(t, err)
	assert.Equal(t, []string{"i3:workspace 1", "i3:workspace 2"}, *executed)
}

func TestRun_SourceFailureIsFatal(t *testing.T) {
	c, _ := newRecordingController(t, nil, defaultOptions(), nil)
	source := &sliceSource{
		events: []input.Event{input.Begin(3)},
		err:    errors.New("device disappeared"),
	}

	err := c.Run(context.Background(), source)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "device disappeared")
}

func TestRun_CancelledContextIsClean(t *testing.T) {
	c, _ := newRecordingController(t, nil, defaultOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Run(ctx, &sliceSource{events: []input.Event{input.Begin(3)}})
	assert.NoError(t, err)
}

func TestRun_ReplayRecording(t *testing.T) {
	recording := "-event7 GESTURE_SWIPE_BEGIN +1.0s 3\n" +
		" event7 GESTURE_SWIPE_UPDATE +1.1s 3 15.00/ 0.00 (45.00/ 0.00 unaccelerated)\n" +
		" event7 GESTURE_SWIPE_UPDATE +1.2s 3 15.00/ 0.00 (45.00/ 0.00 unaccelerated)\n" +
		" event7 GESTURE_SWIPE_END +1.3s 3\n"
	path := filepath.Join(t.TempDir(), "recording.txt")
	require.NoError(t, os.WriteFile(path, []byte(recording), 0644))

	source, err := input.NewReplaySource(path)
	require.NoError(t, err)
	defer source.Close()

	c, executed := newRecordingController(t, map[string][]string{
		"three-finger-swipe-right": {"i3:workspace next"},
	}, defaultOptions(), nil)

	require.NoError(t, c.Run(context.Background(), source))
	assert.Equal(t, []string{"i3:workspace next"}, *executed)
}
