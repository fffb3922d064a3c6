package cli

import (
	"github.com/spf13/cobra"
	"github.com/swipecli/swipecli/config"
	"github.com/swipecli/swipecli/gesture"
)

var (
	// all commands
	verbosity int
	logLevel  string

	// for commands that load the configuration
	configFile         string
	seat               string
	backend            string
	device             string
	replayFile         string
	threshold          float64
	invertX            bool
	invertY            bool
	enabledActionTypes []string
	shell              string
	historySize        int

	// for listen command
	serveAddr  string
	enableCORS bool
	runDaemon  bool
	pidFile    string
	logFile    string

	// for devices command
	touchpadsOnly bool

	// for stop command
	stopAddr string
)

// addConfigFlags registers the flags that override configuration settings
func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config-file", "c", "", "read only this configuration file")
	flags.StringVarP(&seat, "seat", "s", config.DefaultSeat, "libinput seat to listen on")
	flags.StringVar(&backend, "backend", "", "event source: libinput, evdev or replay")
	flags.StringVar(&device, "device", "", "input device path, e.g. /dev/input/event7")
	flags.StringVar(&replayFile, "replay-file", "", "libinput debug-events recording for the replay backend, - for stdin")
	flags.Float64VarP(&threshold, "threshold", "t", config.DefaultThreshold, "minimum displacement per axis for a swipe")
	flags.BoolVar(&invertX, "invert-x", false, "invert horizontal motion")
	flags.BoolVar(&invertY, "invert-y", false, "invert vertical motion")
	flags.StringSliceVarP(&enabledActionTypes, "enabled-action-types", "e", nil, "action types to run: i3, command")
	flags.StringVar(&shell, "shell", "", "shell used for command actions")
	flags.IntVar(&historySize, "history-size", config.DefaultHistorySize, "gestures kept for the event stream's recent method")

	for _, name := range gesture.EventNames() {
		flags.StringArray(name, nil, "action for "+name+" as type:command (repeatable)")
	}
}

// configOverrides turns the flags given on the command line into the
// highest precedence configuration layer
func configOverrides(cmd *cobra.Command) *config.Partial {
	flags := cmd.Flags()
	p := &config.Partial{}

	if flags.Changed("log-level") {
		p.LogLevel = &logLevel
	}
	if flags.Changed("seat") {
		p.Seat = &seat
	}
	if flags.Changed("backend") {
		p.Backend = &backend
	}
	if flags.Changed("device") {
		p.Device = &device
	}
	if flags.Changed("replay-file") {
		p.ReplayFile = &replayFile
		if !flags.Changed("backend") {
			replay := "replay"
			p.Backend = &replay
		}
	}
	if flags.Changed("threshold") {
		p.Threshold = &threshold
	}
	if flags.Changed("invert-x") {
		p.InvertX = &invertX
	}
	if flags.Changed("invert-y") {
		p.InvertY = &invertY
	}
	if flags.Changed("enabled-action-types") {
		p.EnabledActionTypes = &enabledActionTypes
	}
	if flags.Changed("shell") {
		p.Shell = &shell
	}
	if flags.Changed("history-size") {
		p.HistorySize = &historySize
	}

	for _, name := range gesture.EventNames() {
		if !flags.Changed(name) {
			continue
		}
		// GetStringArray cannot fail for defined flags
		list, _ := flags.GetStringArray(name)
		if p.Actions == nil {
			p.Actions = make(map[string][]string)
		}
		p.Actions[name] = list
	}

	return p
}

func loadOptions(cmd *cobra.Command) config.LoadOptions {
	return config.LoadOptions{
		ConfigFile: configFile,
		Overrides:  configOverrides(cmd),
	}
}
