// Package ipc locates and opens the local Unix socket on which a running
// clipkeep watch daemon serves its status. The status command probes it to
// tell whether a daemon is running.
package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const socketName = "clipkeep.sock"

// SocketPath returns the platform-appropriate path for the IPC socket:
// $CLIPKEEP_SOCKET if set, else $XDG_RUNTIME_DIR/clipkeep.sock, else
// $TMPDIR/clipkeep.sock.
func SocketPath() string {
	if s := os.Getenv("CLIPKEEP_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, socketName)
	}
	return filepath.Join(os.TempDir(), socketName)
}

// IsRunning reports whether a daemon appears to be listening on the IPC
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := net.DialTimeout("unix", SocketPath(), time.Second)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on the IPC socket path, readable and writable
// by the owner only. A stale socket file from a crashed run is removed
// first; a live one is an error.
func Listen() (net.Listener, error) {
	path := SocketPath()
	if IsRunning() {
		return nil, fmt.Errorf("another clipkeep daemon is listening on %s", path)
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	// Windows has no mode bits on sockets; access follows the directory ACL.
	if runtime.GOOS != "windows" {
		if err := os.Chmod(path, 0o600); err != nil {
			_ = ln.Close()
			return nil, fmt.Errorf("chmod %s: %w", path, err)
		}
	}
	return ln, nil
}
