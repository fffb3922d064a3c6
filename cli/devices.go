package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swipecli/swipecli/commands"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List input devices",
	Long:  `Lists /dev/input event devices, whether they can be read and whether they look like a touchpad.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		response := commands.DevicesCommand(touchpadsOnly)
		printJson(response)
		if response.Status == "error" {
			return fmt.Errorf("%s", response.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	devicesCmd.Flags().BoolVar(&touchpadsOnly, "touchpads", false, "only list touchpads")
}
