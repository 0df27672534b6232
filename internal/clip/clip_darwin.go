//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
//
// NSInteger clipkeep_changeCount() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
import "C"

import (
	"log/slog"
	"time"

	"golang.design/x/clipboard"
)

// DefaultPollInterval is how often changeCount is sampled.
const DefaultPollInterval = 100 * time.Millisecond

type darwinBackend struct {
	lastChange C.NSInteger
	interval   time.Duration
	watchCh    chan struct{}
	done       chan struct{}
}

// New returns the macOS clipboard backend. The pasteboard changeCount is
// cheap to sample, so polling it stands in for a change notification.
func New(pollInterval time.Duration) Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return newHeadless()
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	b := &darwinBackend{
		lastChange: C.clipkeep_changeCount(),
		interval:   pollInterval,
		watchCh:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go b.poll()
	return b
}

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

func (b *darwinBackend) poll() {
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			cc := C.clipkeep_changeCount()
			if cc != b.lastChange {
				b.lastChange = cc
				select {
				case b.watchCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (b *darwinBackend) Read() (*Snapshot, error) {
	return synthesize(clipboard.Read(clipboard.FmtText), clipboard.Read(clipboard.FmtImage)), nil
}

func (b *darwinBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *darwinBackend) Close()                 { close(b.done) }
