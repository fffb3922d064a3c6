//go:build !linux

package input

import (
	"context"
	"errors"
)

var errEvdevUnsupported = errors.New("evdev input is only available on linux")

type DeviceInfo struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Readable bool   `json:"readable"`
	Touchpad bool   `json:"touchpad"`
	MaxTouch int    `json:"max_fingers,omitempty"`
	Virtual  bool   `json:"virtual,omitempty"`
	Error    string `json:"error,omitempty"`
}

type EvdevSource struct{}

func NewEvdevSource(path string) (*EvdevSource, error) {
	return nil, errEvdevUnsupported
}

func (s *EvdevSource) Next(ctx context.Context) (Event, error) {
	return Event{}, errEvdevUnsupported
}

func (s *EvdevSource) Close() error {
	return nil
}

func ListDevices() ([]DeviceInfo, error) {
	return nil, errEvdevUnsupported
}

func FindTouchpad() (string, error) {
	return "", errEvdevUnsupported
}
