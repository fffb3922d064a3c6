package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/swipecli/swipecli/utils"
)

const (
	appName = "swipecli"

	// EnvPrefix prefixes every environment variable read by LoadFromEnv
	EnvPrefix = "SWIPECLI_"
)

// DefaultSearchPaths returns the configuration files read when no file is
// given explicitly, lowest precedence first.
func DefaultSearchPaths() []string {
	paths := []string{filepath.Join("/etc", appName+".toml")}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		paths = append(paths, filepath.Join(configHome, appName, appName+".toml"))
	}

	return append(paths, appName+".toml")
}

// LoadFromEnv reads the SWIPECLI_* variables
func LoadFromEnv() (*Partial, error) {
	return loadEnv(os.LookupEnv)
}

func loadEnv(lookup func(string) (string, bool)) (*Partial, error) {
	var p Partial

	str := func(name string, dst **string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = &v
		}
	}
	str("LOG_LEVEL", &p.LogLevel)
	str("SEAT", &p.Seat)
	str("BACKEND", &p.Backend)
	str("DEVICE", &p.Device)
	str("REPLAY_FILE", &p.ReplayFile)
	str("SHELL", &p.Shell)

	if v, ok := lookup(EnvPrefix + "ENABLED_ACTION_TYPES"); ok {
		types := splitList(v)
		p.EnabledActionTypes = &types
	}

	if v, ok := lookup(EnvPrefix + "THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %sTHRESHOLD: %w", EnvPrefix, err)
		}
		p.Threshold = &f
	}

	for name, dst := range map[string]**bool{"INVERT_X": &p.InvertX, "INVERT_Y": &p.InvertY} {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
			}
			*dst = &b
		}
	}

	if v, ok := lookup(EnvPrefix + "HISTORY_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %sHISTORY_SIZE: %w", EnvPrefix, err)
		}
		p.HistorySize = &n
	}

	return &p, nil
}

type LoadOptions struct {
	// ConfigFile replaces the search path with a single file that must exist
	ConfigFile string

	// SearchPaths overrides DefaultSearchPaths, for tests
	SearchPaths []string

	// Overrides has the highest precedence, usually the command line
	Overrides *Partial
}

// Loaded is the result of Load
type Loaded struct {
	Settings *Settings
	*Validated

	// Files lists the configuration files that were merged, in order
	Files []string
}

// Load merges defaults, configuration files, environment and overrides, then
// validates the result.
func Load(opts LoadOptions) (*Loaded, error) {
	settings := Default()
	var files []string

	if opts.ConfigFile != "" {
		p, err := LoadFile(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		settings.Merge(p)
		files = append(files, opts.ConfigFile)
	} else {
		paths := opts.SearchPaths
		if paths == nil {
			paths = DefaultSearchPaths()
		}
		for _, path := range paths {
			p, err := LoadFile(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					utils.Trace("No config file at %s", path)
					continue
				}
				return nil, err
			}
			utils.Verbose("Loaded config file %s", path)
			settings.Merge(p)
			files = append(files, path)
		}
	}

	env, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}
	settings.Merge(env)
	settings.Merge(opts.Overrides)

	validated, err := settings.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Loaded{
		Settings:  settings,
		Validated: validated,
		Files:     files,
	}, nil
}
