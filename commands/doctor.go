package commands

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/swipecli/swipecli/i3"
	"github.com/swipecli/swipecli/input"
)

type DoctorInfo struct {
	SwipecliVersion string   `json:"swipecli_version"`
	OS              string   `json:"os"`
	OSVersion       string   `json:"os_version"`
	SessionType     string   `json:"session_type,omitempty"`
	LibinputPath    string   `json:"libinput_path"`
	LibinputVersion string   `json:"libinput_version,omitempty"`
	I3Socket        string   `json:"i3_socket,omitempty"`
	I3Version       string   `json:"i3_version,omitempty"`
	I3Error         string   `json:"i3_error,omitempty"`
	InputDevices    int      `json:"input_devices"`
	ReadableDevices int      `json:"readable_devices"`
	Touchpads       []string `json:"touchpads"`
	InputError      string   `json:"input_error,omitempty"`
	Hints           []string `json:"hints,omitempty"`
}

func getLibinputVersion(libinputPath string) string {
	if libinputPath == "" {
		return ""
	}

	cmd := exec.Command(libinputPath, "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(output))
}

func getOSVersion() string {
	if runtime.GOOS != "linux" {
		return ""
	}

	// try reading /etc/os-release
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		if strings.HasPrefix(line, "PRETTY_NAME=") {
			return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
		}
	}
	return ""
}

// checkI3 discovers the IPC socket and asks the window manager for its version
func checkI3(info *DoctorInfo) {
	path, err := i3.DiscoverSocketPath()
	if err != nil {
		info.I3Error = err.Error()
		return
	}
	info.I3Socket = path

	client := i3.NewClient(path)
	defer client.Close()

	version, err := client.Version()
	if err != nil {
		info.I3Error = err.Error()
		return
	}
	info.I3Version = version.HumanReadable
}

func checkInputDevices(info *DoctorInfo) {
	info.Touchpads = []string{}

	devices, err := input.ListDevices()
	if err != nil {
		info.InputError = err.Error()
		return
	}

	info.InputDevices = len(devices)
	for _, d := range devices {
		if !d.Readable {
			continue
		}
		info.ReadableDevices++
		if d.Touchpad {
			info.Touchpads = append(info.Touchpads, d.Path)
		}
	}
}

func doctorHints(info *DoctorInfo) []string {
	var hints []string

	if info.LibinputPath == "" {
		hints = append(hints, "libinput was not found in PATH: install libinput-tools or use --backend evdev")
	}
	if info.InputDevices > 0 && info.ReadableDevices < info.InputDevices {
		hints = append(hints, "some input devices cannot be read: add the user to the 'input' group and log in again")
	}
	if info.InputError == "" && len(info.Touchpads) == 0 {
		hints = append(hints, "no readable touchpad was found")
	}
	if info.I3Socket == "" {
		hints = append(hints, "no i3 or sway IPC socket was found: i3 actions will fail until one is available")
	}

	return hints
}

// DoctorCommand performs system diagnostics and returns information about the environment
func DoctorCommand(version string) *CommandResponse {
	info := DoctorInfo{
		SwipecliVersion: version,
		OS:              runtime.GOOS,
		OSVersion:       getOSVersion(),
		SessionType:     os.Getenv("XDG_SESSION_TYPE"),
		LibinputPath:    input.LibinputPath(),
	}

	// get libinput version if libinput is available
	if info.LibinputPath != "" {
		info.LibinputVersion = getLibinputVersion(info.LibinputPath)
	}

	checkI3(&info)
	checkInputDevices(&info)
	info.Hints = doctorHints(&info)

	return NewSuccessResponse(info)
}
