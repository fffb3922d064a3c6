package input

import (
	"context"
	"fmt"
	"strings"
)

// EventType is the kind of a raw gesture event
type EventType int

const (
	EventBegin EventType = iota
	EventUpdate
	EventEnd
	EventCancel
)

func (t EventType) String() string {
	switch t {
	case EventBegin:
		return "begin"
	case EventUpdate:
		return "update"
	case EventEnd:
		return "end"
	case EventCancel:
		return "cancel"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event is one raw swipe event. Fingers is set for EventBegin, DX and DY for
// EventUpdate. Positive DY points down.
type Event struct {
	Type    EventType
	Fingers int
	DX      float64
	DY      float64
}

func Begin(fingers int) Event {
	return Event{Type: EventBegin, Fingers: fingers}
}

func Update(dx, dy float64) Event {
	return Event{Type: EventUpdate, DX: dx, DY: dy}
}

func End() Event {
	return Event{Type: EventEnd}
}

func Cancel() Event {
	return Event{Type: EventCancel}
}

func (e Event) String() string {
	switch e.Type {
	case EventBegin:
		return fmt.Sprintf("begin{%d}", e.Fingers)
	case EventUpdate:
		return fmt.Sprintf("update{%.2f, %.2f}", e.DX, e.DY)
	}
	return e.Type.String()
}

// Source delivers raw swipe events. Next blocks until an event is available.
// It returns io.EOF when a finite source is exhausted and ctx.Err() once ctx
// is done; any other error is fatal for the listener.
type Source interface {
	Next(ctx context.Context) (Event, error)
	Close() error
}

const (
	BackendLibinput = "libinput"
	BackendEvdev    = "evdev"
	BackendReplay   = "replay"
)

// Backends lists the accepted backend names
var Backends = []string{BackendLibinput, BackendEvdev, BackendReplay}

// ValidateBackend checks a backend name
func ValidateBackend(name string) error {
	for _, b := range Backends {
		if b == name {
			return nil
		}
	}
	return fmt.Errorf("unknown backend %q (expected one of %s)", name, strings.Join(Backends, ", "))
}

type OpenOptions struct {
	Backend string

	// Seat is passed to libinput when no device is given
	Seat string

	// Device is an /dev/input/event* path; optional for libinput and evdev
	Device string

	// ReplayFile is the recording read by the replay backend, "-" for stdin
	ReplayFile string
}

// Open starts the event source selected by opts.Backend. The libinput backend
// runs a child process that is stopped when ctx is done or on Close.
func Open(ctx context.Context, opts OpenOptions) (Source, error) {
	var source Source
	var err error

	switch opts.Backend {
	case BackendLibinput, "":
		source, err = NewDebugEventsSource(ctx, opts.Seat, opts.Device)
	case BackendEvdev:
		source, err = NewEvdevSource(opts.Device)
	case BackendReplay:
		source, err = NewReplaySource(opts.ReplayFile)
	default:
		return nil, ValidateBackend(opts.Backend)
	}

	if err != nil {
		return nil, err
	}
	return source, nil
}
