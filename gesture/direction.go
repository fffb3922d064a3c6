package gesture

import (
	"fmt"
	"math"
)

// Direction is the classified direction of a finished swipe
type Direction int

const (
	Left Direction = iota
	LeftUp
	Up
	RightUp
	Right
	RightDown
	Down
	LeftDown
)

// Directions lists all directions in display order, clockwise from Left
var Directions = []Direction{Left, LeftUp, Up, RightUp, Right, RightDown, Down, LeftDown}

var directionNames = map[Direction]string{
	Left:      "left",
	LeftUp:    "left-up",
	Up:        "up",
	RightUp:   "right-up",
	Right:     "right",
	RightDown: "right-down",
	Down:      "down",
	LeftDown:  "left-down",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

func (d Direction) MarshalText() ([]byte, error) {
	if _, ok := directionNames[d]; !ok {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses a kebab-case direction name such as "right-up"
func ParseDirection(name string) (Direction, error) {
	for d, n := range directionNames {
		if n == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", name)
}

// Classify maps an accumulated displacement to a direction. It reports false
// when neither axis reaches the threshold. Positive dy points down. A zero
// component counts as non-positive.
func Classify(dx, dy, threshold float64) (Direction, bool) {
	ax := math.Abs(dx)
	ay := math.Abs(dy)

	horizontal := ax >= threshold
	vertical := ay >= threshold

	switch {
	case !horizontal && !vertical:
		return 0, false
	case horizontal && !vertical:
		if dx > 0 {
			return Right, true
		}
		return Left, true
	case vertical && !horizontal:
		if dy > 0 {
			return Down, true
		}
		return Up, true
	}

	// diagonal: only the sign pair matters
	if dx > 0 {
		if dy > 0 {
			return RightDown, true
		}
		return RightUp, true
	}
	if dy > 0 {
		return LeftDown, true
	}
	return LeftUp, true
}
