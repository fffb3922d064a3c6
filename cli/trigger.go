package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/swipecli/swipecli/commands"
	"github.com/swipecli/swipecli/gesture"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger [event]",
	Short: "Run the actions of one swipe event",
	Long: `Runs the actions configured for a swipe event once, as if the swipe had
been recognized. Events are named like three-finger-swipe-left-up.

Valid events: ` + strings.Join(gesture.EventNames(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: gesture.EventNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.TriggerCommand(commands.TriggerRequest{
			Config: loadOptions(cmd),
			Event:  args[0],
		})
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(triggerCmd)

	addConfigFlags(triggerCmd)
}
