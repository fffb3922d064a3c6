package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/swipecli/swipecli/config"
	"github.com/swipecli/swipecli/utils"
)

// version is set at build time with -ldflags "-X github.com/swipecli/swipecli/cli.version=..."
var version = "dev"

// GetVersion returns the version of the binary
func GetVersion() string {
	return version
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "swipecli",
	Short: "Turn touchpad swipes into window manager and shell actions",
	Long: `swipecli recognizes three and four finger touchpad swipes in eight
directions and runs the i3 IPC or shell commands configured for each of them.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func initLogging() error {
	base := logLevel
	if base == "" {
		base = config.DefaultLogLevel
	}
	if _, err := utils.ParseLevel(base); err != nil {
		return err
	}
	return utils.SetLevel(utils.RaiseLevel(base, verbosity))
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeat for more)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (error, warn, info, debug, trace)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}
