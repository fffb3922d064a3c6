package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/swipecli/swipecli/actions"
	"github.com/swipecli/swipecli/gesture"
	"github.com/swipecli/swipecli/input"
	"github.com/swipecli/swipecli/utils"
)

// State of the recognition state machine
type State int

const (
	Idle State = iota
	InGesture
)

func (s State) String() string {
	if s == InGesture {
		return "in-gesture"
	}
	return "idle"
}

// Options are fixed for the lifetime of a Controller
type Options struct {
	gesture.Options
	Enabled actions.KindSet
}

// ActionResult is the outcome of one executed action
type ActionResult struct {
	Kind       actions.Kind `json:"type"`
	Command    string       `json:"command"`
	Error      string       `json:"error,omitempty"`
	DurationMs int64        `json:"duration_ms"`

	err error
}

func (r ActionResult) OK() bool {
	return r.err == nil
}

// Err returns the execution error, nil on success
func (r ActionResult) Err() error {
	return r.err
}

// Record describes one dispatched gesture
type Record struct {
	SessionID string         `json:"session_id,omitempty"`
	Time      time.Time      `json:"time"`
	Name      string         `json:"name"`
	Event     gesture.Event  `json:"event"`
	DX        float64        `json:"dx"`
	DY        float64        `json:"dy"`
	Results   []ActionResult `json:"actions"`
}

// Observer is notified after every dispatched gesture. It is called on the
// event loop and must not block.
type Observer interface {
	Observe(record Record)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(record Record)

func (f ObserverFunc) Observe(record Record) {
	f(record)
}

// Stats are counters that may be read from other goroutines
type Stats struct {
	Gestures int64 `json:"gestures"`
	Ignored  int64 `json:"ignored"`
	Actions  int64 `json:"actions"`
	Failures int64 `json:"failures"`
}

// Controller turns raw events into gestures and runs their actions. Apart
// from Stats, its methods must be called from a single goroutine.
type Controller struct {
	table     *actions.Table
	executors map[actions.Kind]actions.Action
	opts      Options
	observer  Observer

	session *gesture.Session

	gestures atomic.Int64
	ignored  atomic.Int64
	executed atomic.Int64
	failures atomic.Int64
}

// New creates a controller. executors provides one Action per kind; kinds
// without an executor fail at execution time.
func New(table *actions.Table, executors []actions.Action, opts Options) *Controller {
	byKind := make(map[actions.Kind]actions.Action, len(executors))
	for _, e := range executors {
		byKind[e.Kind()] = e
	}

	if opts.Enabled == nil {
		opts.Enabled = actions.NewKindSet()
	}

	return &Controller{
		table:     table,
		executors: byKind,
		opts:      opts,
	}
}

// SetObserver installs the observer, nil removes it
func (c *Controller) SetObserver(observer Observer) {
	c.observer = observer
}

func (c *Controller) State() State {
	if c.session != nil {
		return InGesture
	}
	return Idle
}

func (c *Controller) Stats() Stats {
	return Stats{
		Gestures: c.gestures.Load(),
		Ignored:  c.ignored.Load(),
		Actions:  c.executed.Load(),
		Failures: c.failures.Load(),
	}
}

// Summary returns the per-event count of enabled actions
func (c *Controller) Summary() string {
	return c.table.Summary(c.opts.Enabled)
}

// Run processes events from source until ctx is done or the source fails.
// A cancelled context or an exhausted source ends the loop without error.
func (c *Controller) Run(ctx context.Context, source input.Source) error {
	utils.Info("Listening for gestures (%s actions enabled)", c.Summary())

	for {
		event, err := source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				utils.Verbose("Event loop stopped: %v", ctx.Err())
				return nil
			}
			if errors.Is(err, io.EOF) {
				utils.Info("Event source exhausted")
				return nil
			}
			return fmt.Errorf("event source failed: %w", err)
		}

		c.Handle(event)
	}
}

// Handle advances the state machine by one raw event. It reports the
// recognized gesture when the event finished one.
func (c *Controller) Handle(event input.Event) (gesture.Event, bool) {
	switch event.Type {
	case input.EventBegin:
		c.begin(event.Fingers)
	case input.EventUpdate:
		if c.session != nil {
			c.session.Update(event.DX, event.DY)
		}
	case input.EventEnd:
		return c.end()
	case input.EventCancel:
		if c.session != nil {
			utils.Verbose("Gesture %s cancelled", c.session.ID())
			c.session.Cancel()
			c.session = nil
		}
	}
	return gesture.Event{}, false
}

func (c *Controller) begin(fingers int) {
	// unsupported gestures leave the state untouched, even mid-gesture
	if !gesture.FingerCount(fingers).Supported() {
		utils.Trace("Ignoring %d finger gesture", fingers)
		return
	}

	if c.session != nil {
		utils.Warn("Gesture began while gesture %s was still active, discarding it", c.session.ID())
		c.session.Cancel()
		c.session = nil
	}

	session, err := gesture.Begin(fingers, c.opts.Options)
	if err != nil {
		utils.Trace("Ignoring gesture: %v", err)
		return
	}

	utils.Trace("Gesture %s began with %d fingers", session.ID(), fingers)
	c.session = session
}

func (c *Controller) end() (gesture.Event, bool) {
	session := c.session
	if session == nil {
		return gesture.Event{}, false
	}
	c.session = nil

	event, ok := session.End()
	dx, dy := session.Displacement()
	if !ok {
		c.ignored.Add(1)
		utils.Verbose("Gesture %s below threshold (dx=%.2f dy=%.2f)", session.ID(), dx, dy)
		return gesture.Event{}, false
	}

	c.gestures.Add(1)
	utils.WithFields(logrus.Fields{
		"session":  session.ID(),
		"dx":       fmt.Sprintf("%.2f", dx),
		"dy":       fmt.Sprintf("%.2f", dy),
		"duration": utils.Since(session.Started()),
	}).Infof("Recognized %s", event.Name())

	results := c.dispatch(session.ID(), event)

	if c.observer != nil {
		c.observer.Observe(Record{
			SessionID: session.ID(),
			Time:      time.Now(),
			Name:      event.Name(),
			Event:     event,
			DX:        dx,
			DY:        dy,
			Results:   results,
		})
	}

	return event, true
}

// Dispatch runs the actions configured for event as if it had been swiped
func (c *Controller) Dispatch(event gesture.Event) []ActionResult {
	return c.dispatch("", event)
}

func (c *Controller) dispatch(sessionID string, event gesture.Event) []ActionResult {
	specs := c.table.Lookup(event)
	results := make([]ActionResult, 0, len(specs))

	for _, spec := range specs {
		if !c.opts.Enabled.Has(spec.Kind) {
			utils.Trace("Skipping disabled %s action %q", spec.Kind, spec.Command)
			continue
		}

		result := c.execute(spec)
		results = append(results, result)

		if result.err != nil {
			c.failures.Add(1)
			utils.WithFields(logrus.Fields{
				"session": sessionID,
				"event":   event.Name(),
				"type":    spec.Kind.String(),
				"command": spec.Command,
			}).Warnf("Action failed: %v", result.err)
		}
	}

	return results
}

func (c *Controller) execute(spec actions.Spec) ActionResult {
	result := ActionResult{Kind: spec.Kind, Command: spec.Command}

	executor, ok := c.executors[spec.Kind]
	if !ok {
		result.err = fmt.Errorf("no executor for %s actions", spec.Kind)
		result.Error = result.err.Error()
		return result
	}

	start := time.Now()
	err := executor.Execute(spec.Command)
	result.DurationMs = time.Since(start).Milliseconds()
	c.executed.Add(1)

	if err != nil {
		result.err = err
		result.Error = err.Error()
		return result
	}

	utils.Verbose("Executed %s action %q in %dms", spec.Kind, spec.Command, result.DurationMs)
	return result
}
