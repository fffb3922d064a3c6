//go:build linux

package input

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/holoplot/go-evdev"
	"github.com/swipecli/swipecli/utils"
)

// minSwipeFingers is the smallest finger count that starts a swipe
const minSwipeFingers = 3

// mmPerInch converts evdev resolutions (units/mm) into 1/1000 inch deltas,
// the unit libinput reports swipe deltas in
const mmPerInch = 25.4

var toolFingers = map[evdev.EvCode]int{
	evdev.BTN_TOOL_FINGER:    1,
	evdev.BTN_TOOL_DOUBLETAP: 2,
	evdev.BTN_TOOL_TRIPLETAP: 3,
	evdev.BTN_TOOL_QUADTAP:   4,
	evdev.BTN_TOOL_QUINTTAP:  5,
}

// EvdevSource recognizes swipes directly from a touchpad's evdev node
type EvdevSource struct {
	path    string
	dev     *evdev.InputDevice
	tracker *touchpadTracker
	pending []Event

	closeOnce sync.Once
	closeErr  error
}

// NewEvdevSource opens the touchpad at path, or the first touchpad found
// when path is empty.
func NewEvdevSource(path string) (*EvdevSource, error) {
	if path == "" {
		found, err := FindTouchpad()
		if err != nil {
			return nil, err
		}
		path = found
	}

	dev, err := evdev.OpenWithFlags(path, os.O_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	name, _ := dev.Name()
	scaleX, scaleY := 1.0, 1.0
	if infos, err := dev.AbsInfos(); err == nil {
		scaleX = resolutionScale(infos[evdev.ABS_X].Resolution)
		scaleY = resolutionScale(infos[evdev.ABS_Y].Resolution)
	}

	utils.Info("Reading touchpad %q at %s", name, path)
	utils.Verbose("Touchpad delta scale x=%.4f y=%.4f", scaleX, scaleY)

	return &EvdevSource{
		path:    path,
		dev:     dev,
		tracker: newTouchpadTracker(scaleX, scaleY),
	}, nil
}

func resolutionScale(resolution int32) float64 {
	if resolution <= 0 {
		return 1
	}
	return 1000 / (float64(resolution) * mmPerInch)
}

func (s *EvdevSource) Next(ctx context.Context) (Event, error) {
	// a blocked read only returns once the device is closed
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for len(s.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		ev, err := s.dev.ReadOne()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Event{}, ctxErr
			}
			return Event{}, fmt.Errorf("failed to read from %s: %w", s.path, err)
		}

		s.pending = s.tracker.feed(ev.Type, ev.Code, ev.Value)
	}

	event := s.pending[0]
	s.pending = s.pending[1:]
	utils.Trace("%s: %s", s.path, event)
	return event, nil
}

func (s *EvdevSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.dev.Close()
	})
	return s.closeErr
}

// touchpadTracker turns the evdev stream of a touchpad into swipe events.
// The finger count comes from the BTN_TOOL_* keys and the position from the
// single-touch ABS_X/ABS_Y axes; both are evaluated on SYN_REPORT.
type touchpadTracker struct {
	scaleX, scaleY float64

	tools map[evdev.EvCode]bool
	x, y  int32

	// position at the previous frame of the active swipe
	lastX, lastY int32

	// finger count of the active swipe, 0 when idle
	active int

	// set after a swipe ended by lifting some fingers; cleared once fewer
	// than minSwipeFingers remain, so the leftover fingers do not start a
	// new swipe immediately
	waitRelease bool
}

func newTouchpadTracker(scaleX, scaleY float64) *touchpadTracker {
	return &touchpadTracker{
		scaleX: scaleX,
		scaleY: scaleY,
		tools:  make(map[evdev.EvCode]bool),
	}
}

func (t *touchpadTracker) fingers() int {
	n := 0
	for code, down := range t.tools {
		if down && toolFingers[code] > n {
			n = toolFingers[code]
		}
	}
	return n
}

func (t *touchpadTracker) feed(typ evdev.EvType, code evdev.EvCode, value int32) []Event {
	switch typ {
	case evdev.EV_KEY:
		if _, ok := toolFingers[code]; ok {
			t.tools[code] = value != 0
		}
	case evdev.EV_ABS:
		switch code {
		case evdev.ABS_X:
			t.x = value
		case evdev.ABS_Y:
			t.y = value
		}
	case evdev.EV_SYN:
		if code == evdev.SYN_REPORT {
			return t.frame()
		}
	}
	return nil
}

func (t *touchpadTracker) frame() []Event {
	fingers := t.fingers()

	if t.waitRelease {
		if fingers >= minSwipeFingers {
			return nil
		}
		t.waitRelease = false
	}

	var events []Event
	switch {
	case t.active == 0:
		if fingers >= minSwipeFingers {
			t.begin(fingers)
			events = append(events, Begin(fingers))
		}
	case fingers == t.active:
		dx := float64(t.x-t.lastX) * t.scaleX
		dy := float64(t.y-t.lastY) * t.scaleY
		t.lastX, t.lastY = t.x, t.y
		if dx != 0 || dy != 0 {
			events = append(events, Update(dx, dy))
		}
	case fingers > t.active:
		// another finger landed, the swipe so far is not the one meant
		t.begin(fingers)
		events = append(events, Cancel(), Begin(fingers))
	default:
		t.active = 0
		t.waitRelease = fingers >= minSwipeFingers
		events = append(events, End())
	}

	return events
}

func (t *touchpadTracker) begin(fingers int) {
	t.active = fingers
	t.lastX, t.lastY = t.x, t.y
}
