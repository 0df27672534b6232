package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/artifact"
	"go.klb.dev/clipkeep/internal/capture"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/ipc"
	"go.klb.dev/clipkeep/internal/monitor"
	"go.klb.dev/clipkeep/internal/statussvc"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the clipboard monitor",
		Long: `Watches the system clipboard and saves each change to --dir.

Text wins over an image, an image over HTML, HTML over a URL list. Text and
HTML equal to the last saved value are skipped. Whenever a --marker format is
on the clipboard the change is ignored entirely.

Files are named clip_<seq>_<yyyy-MM-dd_hh-mm-ss-zzz>_<kind>.<ext>; every
event also gets a *_formats.txt record.

Precedence (lowest → highest): defaults → config file → CLIPKEEP_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runWatch(cmd.Context(), v) },
	}

	addWatchFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runWatch(parent context.Context, v *viper.Viper) error {
	setupLogging(v)
	s := settingsFrom(v)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := clip.New(s.PollInterval)
	defer backend.Close()

	w := artifact.New(afero.NewOsFs(), s.Dir)
	if err := w.EnsureDir(); err != nil {
		// Writes will fail and be logged per event; keep watching.
		slog.Warn("cannot create output directory", "dir", s.Dir, "err", err)
	}

	slog.Info("clipkeep starting",
		"version", Version,
		"backend", backend.Name(),
		"dir", s.Dir,
		"markers", s.Markers,
		"dedup_images", s.DedupImages,
	)

	m := monitor.New(backend, monitor.Config{
		BackendName:    backend.Name(),
		Dir:            w.Dir(),
		CaptureInitial: s.CaptureInitial,
	})
	m.Bind(capture.New(backend, w,
		capture.WithMarkers(s.Markers...),
		capture.WithDedupImages(s.DedupImages),
		capture.WithObserver(m.Observe),
	))

	if !s.NoStatus {
		wait := serveStatus(ctx, m)
		defer wait()
	}

	return m.Run(ctx)
}

// serveStatus starts the status service on the IPC socket. The returned func
// blocks until the service has shut down after ctx is cancelled.
func serveStatus(ctx context.Context, p statussvc.Provider) func() {
	ln, err := ipc.Listen()
	if err != nil {
		slog.Warn("status socket unavailable", "err", err)
		return func() {}
	}
	slog.Info("status socket listening", "path", ipc.SocketPath())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := statussvc.Serve(ctx, ln, statussvc.New(p)); err != nil {
			slog.Warn("status service stopped", "err", err)
		}
	}()
	return func() {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			slog.Warn("status service did not stop in time")
		}
	}
}
