// Package monitor drives a capture.Classifier from a clipboard change channel.
package monitor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.klb.dev/clipkeep/internal/capture"
)

// Notifier delivers a signal after each clipboard mutation. clip.Backend
// implements it.
type Notifier interface {
	Watch() <-chan struct{}
}

// Handler is called once per change signal. *capture.Classifier implements it.
type Handler interface {
	OnClipboardChanged()
}

// Status is a point-in-time view of the monitor's counters.
type Status struct {
	Backend      string
	Dir          string
	StartedAt    time.Time
	Events       uint64
	Saved        uint64
	Skipped      uint64
	Failed       uint64
	LastSequence uint64
	LastArtifact string
}

// Monitor runs the change loop. Handler calls happen on the Run goroutine
// only, one at a time, in signal order.
type Monitor struct {
	notifier       Notifier
	handler        Handler
	backendName    string
	dir            string
	captureInitial bool
	startedAt      time.Time

	events       atomic.Uint64
	saved        atomic.Uint64
	skipped      atomic.Uint64
	failed       atomic.Uint64
	lastSequence atomic.Uint64
	lastArtifact atomic.Value // string
}

// Config describes what a Monitor reports about itself.
type Config struct {
	BackendName string
	Dir         string

	// CaptureInitial handles the clipboard once before waiting for the
	// first change, so content copied before startup is kept.
	CaptureInitial bool
}

// New creates a monitor. Call Bind before Run.
func New(n Notifier, cfg Config) *Monitor {
	m := &Monitor{
		notifier:       n,
		backendName:    cfg.BackendName,
		dir:            cfg.Dir,
		captureInitial: cfg.CaptureInitial,
		startedAt:      time.Now(),
	}
	m.lastArtifact.Store("")
	return m
}

// Bind sets the handler. It is separate from New so the handler can be built
// with Observe as its observer.
func (m *Monitor) Bind(h Handler) { m.handler = h }

// Observe records a classifier result in the counters. Pass it to
// capture.WithObserver.
func (m *Monitor) Observe(r capture.Result) {
	m.events.Add(1)
	switch r.Outcome {
	case capture.OutcomeSaved:
		m.saved.Add(1)
	case capture.OutcomeFailed:
		m.failed.Add(1)
	default:
		m.skipped.Add(1)
		return
	}
	m.lastSequence.Store(r.Sequence)
	m.lastArtifact.Store(r.Path)
}

// Run blocks, handling change signals until ctx is cancelled. An in-flight
// handler call always completes.
func (m *Monitor) Run(ctx context.Context) error {
	slog.Info("clipboard monitor started", "backend", m.backendName, "dir", m.dir)
	defer slog.Info("clipboard monitor stopped")

	if m.captureInitial {
		m.handler.OnClipboardChanged()
	}

	changes := m.notifier.Watch()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			// A cancelled context wins over a pending signal.
			if ctx.Err() != nil {
				return nil
			}
			m.handler.OnClipboardChanged()
		}
	}
}

// Status implements statussvc.Provider. It is safe to call from any goroutine.
func (m *Monitor) Status() Status {
	return Status{
		Backend:      m.backendName,
		Dir:          m.dir,
		StartedAt:    m.startedAt,
		Events:       m.events.Load(),
		Saved:        m.saved.Load(),
		Skipped:      m.skipped.Load(),
		Failed:       m.failed.Load(),
		LastSequence: m.lastSequence.Load(),
		LastArtifact: m.lastArtifact.Load().(string),
	}
}
