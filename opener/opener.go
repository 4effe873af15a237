// Package opener hands a file to the host's default application.
package opener

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener launches files with the platform launcher.
type Opener struct {
	// GOOS selects the launcher; empty means runtime.GOOS.
	GOOS string
	run  func(*exec.Cmd) error
}

// New returns an Opener for the running platform.
func New() *Opener {
	return &Opener{}
}

// Command returns the launcher invocation for path.
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	goos := o.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	switch goos {
	case "darwin":
		return exec.Command("open", path), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", path), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path), nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", goos)
	}
}

// Open launches path and waits for the launcher (not the application) to
// exit.
func (o *Opener) Open(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	run := o.run
	if run == nil {
		run = (*exec.Cmd).Run
	}
	if err := run(cmd); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}
