package gesture

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrUnsupportedFingerCount = errors.New("unsupported finger count")

// Options are the process-wide recognition settings
type Options struct {
	Threshold float64
	InvertX   bool
	InvertY   bool
}

// Session accumulates the displacement of one in-progress swipe
type Session struct {
	id      string
	fingers FingerCount
	opts    Options
	started time.Time

	dx, dy  float64
	updates int
	done    bool
}

// Begin starts a session. It fails for finger counts other than three or four.
func Begin(fingers int, opts Options) (*Session, error) {
	count := FingerCount(fingers)
	if !count.Supported() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFingerCount, fingers)
	}

	return &Session{
		id:      uuid.NewString(),
		fingers: count,
		opts:    opts,
		started: time.Now(),
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Fingers() FingerCount {
	return s.fingers
}

func (s *Session) Started() time.Time {
	return s.started
}

// Displacement returns the accumulated, already inverted, displacement
func (s *Session) Displacement() (float64, float64) {
	return s.dx, s.dy
}

// Updates returns how many deltas were accumulated
func (s *Session) Updates() int {
	return s.updates
}

// Done reports whether the session was ended or cancelled
func (s *Session) Done() bool {
	return s.done
}

// Update adds one delta, after applying axis inversion
func (s *Session) Update(dx, dy float64) {
	if s.done {
		return
	}

	if s.opts.InvertX {
		dx = -dx
	}
	if s.opts.InvertY {
		dy = -dy
	}

	s.dx += dx
	s.dy += dy
	s.updates++
}

// End consumes the session and classifies it. It reports false when the
// displacement stayed below the threshold, or the session was already done.
func (s *Session) End() (Event, bool) {
	if s.done {
		return Event{}, false
	}
	s.done = true

	direction, ok := Classify(s.dx, s.dy, s.opts.Threshold)
	if !ok {
		return Event{}, false
	}

	return Event{Fingers: s.fingers, Direction: direction}, true
}

// Cancel consumes the session without producing an event
func (s *Session) Cancel() {
	s.done = true
}
