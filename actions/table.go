package actions

import (
	"fmt"
	"strings"

	"github.com/swipecli/swipecli/gesture"
)

// Table maps every recognizable gesture event to its ordered action list.
// It always holds all sixteen events; unconfigured ones map to an empty list.
type Table struct {
	cells map[gesture.Event][]Spec
}

// NewTable builds a table from already parsed specs. Events not present in
// specs get an empty list.
func NewTable(specs map[gesture.Event][]Spec) (*Table, error) {
	cells := make(map[gesture.Event][]Spec, len(gesture.FingerCounts)*len(gesture.Directions))
	for _, event := range gesture.AllEvents() {
		cells[event] = []Spec{}
	}

	for event, list := range specs {
		if _, ok := cells[event]; !ok {
			return nil, fmt.Errorf("cannot configure actions for unsupported event %s", event)
		}
		cells[event] = append([]Spec{}, list...)
	}

	return &Table{cells: cells}, nil
}

// ParseTable builds a table from event names to "{kind}:{command}" strings
func ParseTable(entries map[string][]string) (*Table, error) {
	specs := make(map[gesture.Event][]Spec, len(entries))
	for name, values := range entries {
		event, err := gesture.ParseEventName(name)
		if err != nil {
			return nil, err
		}

		list := make([]Spec, 0, len(values))
		for _, value := range values {
			spec, err := ParseSpec(value)
			if err != nil {
				return nil, fmt.Errorf("invalid action for %s: %w", name, err)
			}
			list = append(list, spec)
		}
		specs[event] = list
	}

	return NewTable(specs)
}

// Lookup returns the actions configured for event, in execution order
func (t *Table) Lookup(event gesture.Event) []Spec {
	return append([]Spec{}, t.cells[event]...)
}

// Len returns the number of cells, always sixteen
func (t *Table) Len() int {
	return len(t.cells)
}

// Entries returns the table in its textual form, skipping empty cells
func (t *Table) Entries() map[string][]string {
	entries := make(map[string][]string)
	for event, list := range t.cells {
		if len(list) == 0 {
			continue
		}
		values := make([]string, len(list))
		for i, spec := range list {
			values[i] = spec.String()
		}
		entries[event.Name()] = values
	}
	return entries
}

// Disabled returns the "event: action" pairs whose kind is not in enabled
func (t *Table) Disabled(enabled KindSet) []string {
	var disabled []string
	for _, event := range gesture.AllEvents() {
		for _, spec := range t.cells[event] {
			if !enabled.Has(spec.Kind) {
				disabled = append(disabled, fmt.Sprintf("%s: %s", event.Name(), spec))
			}
		}
	}
	return disabled
}

// Summary renders the number of enabled actions per event, one group per
// finger count, directions in display order:
// "three-finger: 1/0/0/0/1/0/0/0, four-finger: 0/0/0/0/0/0/0/0"
func (t *Table) Summary(enabled KindSet) string {
	groups := make([]string, 0, len(gesture.FingerCounts))
	for _, fingers := range gesture.FingerCounts {
		counts := make([]string, 0, len(gesture.Directions))
		for _, direction := range gesture.Directions {
			n := 0
			for _, spec := range t.cells[gesture.Event{Fingers: fingers, Direction: direction}] {
				if enabled.Has(spec.Kind) {
					n++
				}
			}
			counts = append(counts, fmt.Sprintf("%d", n))
		}
		groups = append(groups, fmt.Sprintf("%s-finger: %s", fingers, strings.Join(counts, "/")))
	}
	return strings.Join(groups, ", ")
}
