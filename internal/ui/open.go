package ui

import (
	"errors"
	"os/exec"
	"runtime"
)

var (
	lookPath = exec.LookPath
	startCmd = func(name string, args ...string) error {
		return exec.Command(name, args...).Start()
	}
)

// ErrNoOpener is returned when no browser launcher is installed.
var ErrNoOpener = errors.New("no opener available")

// OpenURL launches the platform browser for raw without waiting for it.
func OpenURL(raw string) error {
	switch runtime.GOOS {
	case "darwin":
		if path, err := lookPath("open"); err == nil {
			return startCmd(path, raw)
		}
	case "windows":
		return startCmd("rundll32", "url.dll,FileProtocolHandler", raw)
	default:
		if path, err := lookPath("xdg-open"); err == nil {
			return startCmd(path, raw)
		}
		if path, err := lookPath("open"); err == nil {
			return startCmd(path, raw)
		}
	}
	return ErrNoOpener
}
