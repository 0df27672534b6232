//go:build linux

package clip

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
)

// targetTool enumerates and reads arbitrary clipboard targets through an
// external helper. golang.design/x/clipboard only exposes text and PNG.
type targetTool interface {
	name() string
	list() ([]string, error)
	read(target string) ([]byte, error)
}

// lookupTargetTool picks wl-paste on Wayland sessions and xclip otherwise,
// falling back to whichever is installed.
func lookupTargetTool() targetTool {
	candidates := []targetTool{xclipTool{}, wlPasteTool{}}
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		candidates = []targetTool{wlPasteTool{}, xclipTool{}}
	}
	for _, t := range candidates {
		if _, err := exec.LookPath(t.name()); err == nil {
			return t
		}
	}
	return nil
}

type wlPasteTool struct{}

func (wlPasteTool) name() string { return "wl-paste" }

func (t wlPasteTool) list() ([]string, error) {
	out, err := run(t.name(), "--list-types")
	if err != nil {
		return nil, err
	}
	return parseTargetList(out), nil
}

func (t wlPasteTool) read(target string) ([]byte, error) {
	return run(t.name(), "--no-newline", "--type", target)
}

type xclipTool struct{}

func (xclipTool) name() string { return "xclip" }

func (t xclipTool) list() ([]string, error) {
	out, err := run(t.name(), "-selection", "clipboard", "-t", "TARGETS", "-o")
	if err != nil {
		return nil, err
	}
	return parseTargetList(out), nil
}

func (t xclipTool) read(target string) ([]byte, error) {
	return run(t.name(), "-selection", "clipboard", "-t", target, "-o")
}

func run(name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
