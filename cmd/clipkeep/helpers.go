package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.klb.dev/clipkeep/internal/ipc"
)

// defaultDir is $TMPDIR/clipboard_manager.
func defaultDir() string {
	return filepath.Join(os.TempDir(), "clipboard_manager")
}

// dialIPC returns a *grpc.ClientConn connected to the local IPC Unix socket.
// No auth: ipc.Listen restricts the socket to its owner.
func dialIPC() (*grpc.ClientConn, error) {
	return grpc.NewClient(
		"unix://"+ipc.SocketPath(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
}

func fmtAge(t, now time.Time) string {
	age := now.Sub(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	if age < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	}
	return t.Format("2006-01-02 15:04")
}
