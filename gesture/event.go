package gesture

import (
	"fmt"
	"strings"
)

// FingerCount is the number of fingers taking part in a swipe
type FingerCount int

const (
	ThreeFingers FingerCount = 3
	FourFingers  FingerCount = 4
)

// FingerCounts lists the supported finger counts
var FingerCounts = []FingerCount{ThreeFingers, FourFingers}

// Supported reports whether swipes with this many fingers are recognized
func (f FingerCount) Supported() bool {
	return f == ThreeFingers || f == FourFingers
}

func (f FingerCount) String() string {
	switch f {
	case ThreeFingers:
		return "three"
	case FourFingers:
		return "four"
	}
	return fmt.Sprintf("%d", int(f))
}

// Event is a recognized swipe
type Event struct {
	Fingers   FingerCount `json:"fingers"`
	Direction Direction   `json:"direction"`
}

const eventSeparator = "-finger-swipe-"

// Name returns the configuration key of the event, e.g. "three-finger-swipe-left-up"
func (e Event) Name() string {
	return e.Fingers.String() + eventSeparator + e.Direction.String()
}

func (e Event) String() string {
	return e.Name()
}

// ParseEventName parses a name produced by Event.Name
func ParseEventName(name string) (Event, error) {
	fingers, direction, found := strings.Cut(name, eventSeparator)
	if !found {
		return Event{}, fmt.Errorf("invalid event name %q", name)
	}

	var count FingerCount
	switch fingers {
	case "three":
		count = ThreeFingers
	case "four":
		count = FourFingers
	default:
		return Event{}, fmt.Errorf("invalid event name %q: unsupported finger count %q", name, fingers)
	}

	d, err := ParseDirection(direction)
	if err != nil {
		return Event{}, fmt.Errorf("invalid event name %q: %w", name, err)
	}

	return Event{Fingers: count, Direction: d}, nil
}

// AllEvents returns the 16 recognizable events, three-finger events first
func AllEvents() []Event {
	events := make([]Event, 0, len(FingerCounts)*len(Directions))
	for _, f := range FingerCounts {
		for _, d := range Directions {
			events = append(events, Event{Fingers: f, Direction: d})
		}
	}
	return events
}

// EventNames returns the names of AllEvents, in the same order
func EventNames() []string {
	events := AllEvents()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name()
	}
	return names
}
