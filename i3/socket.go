package i3

import (
	"os"
	"os/exec"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
	"github.com/swipecli/swipecli/utils"
)

const socketPathAtom = "I3_SOCKET_PATH"

var ErrSocketNotFound = errors.New("window manager IPC socket not found (is i3 or sway running?)")

// DiscoverSocketPath finds the IPC socket of the running window manager:
// I3SOCK, SWAYSOCK, the I3_SOCKET_PATH property of the X11 root window,
// then `i3 --get-socketpath`.
func DiscoverSocketPath() (string, error) {
	for _, env := range []string{"I3SOCK", "SWAYSOCK"} {
		if path := os.Getenv(env); path != "" {
			utils.Verbose("Using IPC socket from $%s: %s", env, path)
			return path, nil
		}
	}

	if os.Getenv("DISPLAY") != "" {
		path, err := socketPathFromX11()
		if err == nil && path != "" {
			utils.Verbose("Using IPC socket from X11 root window: %s", path)
			return path, nil
		}
		utils.Verbose("No IPC socket on X11 root window: %v", err)
	}

	path, err := socketPathFromBinary()
	if err == nil && path != "" {
		utils.Verbose("Using IPC socket from i3 --get-socketpath: %s", path)
		return path, nil
	}

	return "", ErrSocketNotFound
}

// socketPathFromX11 reads the root window property i3 publishes at startup
func socketPathFromX11() (string, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return "", errors.Wrap(err, "failed to connect to X server")
	}
	defer conn.Close()

	root := xproto.Setup(conn).DefaultScreen(conn).Root

	atom, err := xproto.InternAtom(conn, true, uint16(len(socketPathAtom)), socketPathAtom).Reply()
	if err != nil {
		return "", errors.Wrap(err, "failed to intern atom")
	}
	if atom.Atom == xproto.AtomNone {
		return "", errors.Errorf("atom %s does not exist", socketPathAtom)
	}

	prop, err := xproto.GetProperty(conn, false, root, atom.Atom, xproto.GetPropertyTypeAny, 0, 1024).Reply()
	if err != nil {
		return "", errors.Wrap(err, "failed to read root window property")
	}

	return strings.TrimRight(string(prop.Value), "\x00"), nil
}

func socketPathFromBinary() (string, error) {
	binary, err := exec.LookPath("i3")
	if err != nil {
		return "", err
	}

	output, err := exec.Command(binary, "--get-socketpath").Output()
	if err != nil {
		return "", errors.Wrap(err, "i3 --get-socketpath failed")
	}

	return strings.TrimSpace(string(output)), nil
}
