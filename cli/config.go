package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swipecli/swipecli/commands"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long:  `Merges the configuration files, SWIPECLI_* environment variables and flags, validates the result and prints it.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.ConfigCommand(loadOptions(cmd))
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	addConfigFlags(configCmd)
}
