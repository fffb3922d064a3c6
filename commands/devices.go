package commands

import (
	"github.com/swipecli/swipecli/input"
)

// DevicesCommand lists the input devices, optionally only touchpads
func DevicesCommand(touchpadsOnly bool) *CommandResponse {
	devices, err := input.ListDevices()
	if err != nil {
		return NewErrorResponse(err)
	}

	if touchpadsOnly {
		filtered := make([]input.DeviceInfo, 0, len(devices))
		for _, d := range devices {
			if d.Touchpad {
				filtered = append(filtered, d)
			}
		}
		devices = filtered
	}

	return NewSuccessResponse(map[string]interface{}{
		"devices": devices,
	})
}
