package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/swipecli/swipecli/actions"
	"github.com/swipecli/swipecli/input"
	"github.com/swipecli/swipecli/utils"
)

const (
	DefaultLogLevel    = "info"
	DefaultSeat        = "seat0"
	DefaultThreshold   = 20.0
	DefaultHistorySize = 64
)

// Settings is the merged configuration of the listener
type Settings struct {
	LogLevel           string              `json:"log_level"`
	Seat               string              `json:"seat"`
	Backend            string              `json:"backend"`
	Device             string              `json:"device,omitempty"`
	ReplayFile         string              `json:"replay_file,omitempty"`
	EnabledActionTypes []string            `json:"enabled_action_types"`
	Threshold          float64             `json:"threshold"`
	InvertX            bool                `json:"invert_x"`
	InvertY            bool                `json:"invert_y"`
	Shell              string              `json:"shell"`
	HistorySize        int                 `json:"history_size"`
	Actions            map[string][]string `json:"actions"`
}

// Default returns the built-in settings
func Default() *Settings {
	return &Settings{
		LogLevel:           DefaultLogLevel,
		Seat:               DefaultSeat,
		Backend:            input.BackendLibinput,
		EnabledActionTypes: []string{actions.KindIPC.String()},
		Threshold:          DefaultThreshold,
		Shell:              actions.DefaultShell,
		HistorySize:        DefaultHistorySize,
		Actions: map[string][]string{
			"three-finger-swipe-left":  {"i3:workspace prev"},
			"three-finger-swipe-right": {"i3:workspace next"},
		},
	}
}

// Partial is one configuration layer. Nil fields leave the lower layer's
// value in place.
type Partial struct {
	LogLevel           *string             `toml:"log_level"`
	Seat               *string             `toml:"seat"`
	Backend            *string             `toml:"backend"`
	Device             *string             `toml:"device"`
	ReplayFile         *string             `toml:"replay_file"`
	EnabledActionTypes *[]string           `toml:"enabled_action_types"`
	Threshold          *float64            `toml:"threshold"`
	InvertX            *bool               `toml:"invert_x"`
	InvertY            *bool               `toml:"invert_y"`
	Shell              *string             `toml:"shell"`
	HistorySize        *int                `toml:"history_size"`
	Actions            map[string][]string `toml:"actions"`
}

// Merge applies p over s. Action lists replace the lower layer's list for
// the same event.
func (s *Settings) Merge(p *Partial) {
	if p == nil {
		return
	}

	setString(&s.LogLevel, p.LogLevel)
	setString(&s.Seat, p.Seat)
	setString(&s.Backend, p.Backend)
	setString(&s.Device, p.Device)
	setString(&s.ReplayFile, p.ReplayFile)
	setString(&s.Shell, p.Shell)

	if p.EnabledActionTypes != nil {
		s.EnabledActionTypes = append([]string{}, (*p.EnabledActionTypes)...)
	}
	if p.Threshold != nil {
		s.Threshold = *p.Threshold
	}
	if p.InvertX != nil {
		s.InvertX = *p.InvertX
	}
	if p.InvertY != nil {
		s.InvertY = *p.InvertY
	}
	if p.HistorySize != nil {
		s.HistorySize = *p.HistorySize
	}

	if s.Actions == nil {
		s.Actions = make(map[string][]string)
	}
	for event, list := range p.Actions {
		s.Actions[event] = append([]string{}, list...)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// Validated is the configuration in the form the controller consumes
type Validated struct {
	Table    *actions.Table
	Enabled  actions.KindSet
	Warnings []string
}

// Validate checks every setting and builds the dispatch table. Actions of a
// disabled type stay in the table and are reported as warnings.
func (s *Settings) Validate() (*Validated, error) {
	if _, err := utils.ParseLevel(s.LogLevel); err != nil {
		return nil, err
	}

	if err := input.ValidateBackend(s.Backend); err != nil {
		return nil, err
	}
	if s.Backend == input.BackendReplay && s.ReplayFile == "" {
		return nil, fmt.Errorf("backend %q requires replay_file", input.BackendReplay)
	}

	if s.Threshold <= 0 || math.IsNaN(s.Threshold) || math.IsInf(s.Threshold, 0) {
		return nil, fmt.Errorf("threshold must be a positive number, got %v", s.Threshold)
	}

	if strings.TrimSpace(s.Shell) == "" {
		return nil, fmt.Errorf("shell must not be empty")
	}

	if s.HistorySize < 0 {
		return nil, fmt.Errorf("history_size must not be negative, got %d", s.HistorySize)
	}

	enabled, err := actions.ParseKindSet(s.EnabledActionTypes)
	if err != nil {
		return nil, fmt.Errorf("invalid enabled_action_types: %w", err)
	}

	table, err := actions.ParseTable(s.Actions)
	if err != nil {
		return nil, err
	}

	var warnings []string
	for _, entry := range table.Disabled(enabled) {
		warnings = append(warnings, fmt.Sprintf("action %s uses a disabled action type and will be skipped", entry))
	}

	return &Validated{
		Table:    table,
		Enabled:  enabled,
		Warnings: warnings,
	}, nil
}
