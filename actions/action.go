package actions

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies an action variant
type Kind int

const (
	KindIPC Kind = iota
	KindCommand
)

// Kinds lists every action kind
var Kinds = []Kind{KindIPC, KindCommand}

func (k Kind) String() string {
	switch k {
	case KindIPC:
		return "i3"
	case KindCommand:
		return "command"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses an action kind name. "ipc" is accepted as an alias of "i3".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "i3", "ipc":
		return KindIPC, nil
	case "command":
		return KindCommand, nil
	}
	return 0, fmt.Errorf("unknown action type %q (expected i3 or command)", name)
}

// KindSet is a set of enabled action kinds
type KindSet map[Kind]struct{}

func NewKindSet(kinds ...Kind) KindSet {
	set := make(KindSet, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

// ParseKindSet parses a list of kind names
func ParseKindSet(names []string) (KindSet, error) {
	set := make(KindSet, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		set[k] = struct{}{}
	}
	return set, nil
}

func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}

// Names returns the kind names in a stable order
func (s KindSet) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return names
}

// Spec is one configured action: what to run and how
type Spec struct {
	Kind    Kind   `json:"type"`
	Command string `json:"command"`
}

// ParseSpec parses "{kind}:{command}". Only the first ':' separates the
// two, so commands may contain colons.
func ParseSpec(value string) (Spec, error) {
	kind, command, found := strings.Cut(value, ":")
	if !found {
		return Spec{}, fmt.Errorf("action %q is not in the form type:command", value)
	}

	if strings.TrimSpace(kind) == "" {
		return Spec{}, fmt.Errorf("action %q has an empty type", value)
	}
	if strings.TrimSpace(command) == "" {
		return Spec{}, fmt.Errorf("action %q has an empty command", value)
	}

	k, err := ParseKind(kind)
	if err != nil {
		return Spec{}, fmt.Errorf("action %q does not start with a valid action type: %w", value, err)
	}

	return Spec{Kind: k, Command: command}, nil
}

func (s Spec) String() string {
	return s.Kind.String() + ":" + s.Command
}

// Action executes commands of one kind
type Action interface {
	Kind() Kind
	Execute(command string) error
}
