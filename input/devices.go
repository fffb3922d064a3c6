//go:build linux

package input

import (
	"fmt"
	"os"
	"slices"

	"github.com/holoplot/go-evdev"
)

// DeviceInfo describes one /dev/input/event* node
type DeviceInfo struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Readable bool   `json:"readable"`
	Touchpad bool   `json:"touchpad"`
	MaxTouch int    `json:"max_fingers,omitempty"`
	Virtual  bool   `json:"virtual,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ListDevices enumerates input devices. Devices that cannot be opened are
// listed with Readable false.
func ListDevices() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(paths))
	for _, p := range paths {
		info := DeviceInfo{Path: p.Path, Name: p.Name}

		dev, err := evdev.OpenWithFlags(p.Path, os.O_RDONLY)
		if err != nil {
			info.Error = err.Error()
			devices = append(devices, info)
			continue
		}

		info.Readable = true
		keys := dev.CapableEvents(evdev.EV_KEY)
		axes := dev.CapableEvents(evdev.EV_ABS)
		info.Touchpad = isTouchpad(keys, axes)
		info.MaxTouch = maxToolFingers(keys)

		if id, err := dev.InputID(); err == nil {
			info.Virtual = id.BusType == evdev.BUS_VIRTUAL
		}

		_ = dev.Close()
		devices = append(devices, info)
	}

	return devices, nil
}

// FindTouchpad returns the path of the first readable touchpad that can
// report three fingers.
func FindTouchpad() (string, error) {
	devices, err := ListDevices()
	if err != nil {
		return "", err
	}

	unreadable := 0
	for _, d := range devices {
		if !d.Readable {
			unreadable++
			continue
		}
		if d.Touchpad && d.MaxTouch >= minSwipeFingers {
			return d.Path, nil
		}
	}

	if unreadable > 0 {
		return "", fmt.Errorf("no touchpad found, %d input device(s) could not be opened (is the user in the 'input' group?)", unreadable)
	}
	return "", fmt.Errorf("no touchpad found")
}

// isTouchpad matches indirect multi-touch devices that report finger tools
func isTouchpad(keys, axes []evdev.EvCode) bool {
	return slices.Contains(keys, evdev.BTN_TOOL_FINGER) &&
		slices.Contains(keys, evdev.BTN_TOUCH) &&
		slices.Contains(axes, evdev.ABS_MT_POSITION_X) &&
		!slices.Contains(keys, evdev.BTN_TOOL_PEN)
}

func maxToolFingers(keys []evdev.EvCode) int {
	n := 0
	for _, code := range keys {
		if toolFingers[code] > n {
			n = toolFingers[code]
		}
	}
	return n
}
