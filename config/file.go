package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
)

// ParseError reports a configuration file that could not be decoded
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadFile reads one configuration file. Files ending in .ini or .conf are
// read as INI, everything else as TOML.
func LoadFile(path string) (*Partial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".conf":
		return parseINI(path, data)
	default:
		return parseTOML(path, data)
	}
}

func parseTOML(path string, data []byte) (*Partial, error) {
	var p Partial
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&p); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &p, nil
}

const actionsSection = "actions"

var iniKeys = map[string]bool{
	"log_level":            true,
	"seat":                 true,
	"backend":              true,
	"device":               true,
	"replay_file":          true,
	"enabled_action_types": true,
	"threshold":            true,
	"invert_x":             true,
	"invert_y":             true,
	"shell":                true,
	"history_size":         true,
}

// parseINI reads the INI form: top-level keys as in TOML, a comma separated
// enabled_action_types, and an [actions] section where a key may repeat to
// list several actions for one event.
func parseINI(path string, data []byte) (*Partial, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:        true,
		KeyValueDelimiters:  "=",
		IgnoreInlineComment: true,
	}, data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var p Partial
	for _, section := range cfg.Sections() {
		switch section.Name() {
		case ini.DefaultSection:
			if err := readINIGlobals(section, &p); err != nil {
				return nil, &ParseError{Path: path, Err: err}
			}
		case actionsSection:
			p.Actions = make(map[string][]string)
			for _, key := range section.Keys() {
				p.Actions[key.Name()] = key.ValueWithShadows()
			}
		default:
			return nil, &ParseError{Path: path, Err: fmt.Errorf("unknown section [%s]", section.Name())}
		}
	}

	return &p, nil
}

func readINIGlobals(section *ini.Section, p *Partial) error {
	for _, key := range section.Keys() {
		name := key.Name()
		if !iniKeys[name] {
			return fmt.Errorf("unknown key %q", name)
		}

		value := key.String()
		switch name {
		case "log_level":
			p.LogLevel = &value
		case "seat":
			p.Seat = &value
		case "backend":
			p.Backend = &value
		case "device":
			p.Device = &value
		case "replay_file":
			p.ReplayFile = &value
		case "shell":
			p.Shell = &value
		case "enabled_action_types":
			types := splitList(value)
			p.EnabledActionTypes = &types
		case "threshold":
			f, err := key.Float64()
			if err != nil {
				return fmt.Errorf("invalid threshold: %w", err)
			}
			p.Threshold = &f
		case "invert_x", "invert_y":
			b, err := key.Bool()
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			if name == "invert_x" {
				p.InvertX = &b
			} else {
				p.InvertY = &b
			}
		case "history_size":
			n, err := key.Int()
			if err != nil {
				return fmt.Errorf("invalid history_size: %w", err)
			}
			p.HistorySize = &n
		}
	}
	return nil
}

// splitList splits a comma separated list, dropping empty items
func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
