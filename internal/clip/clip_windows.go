//go:build windows

package clip

// #cgo LDFLAGS: -luser32
//
// #include <windows.h>
//
// static LRESULT CALLBACK clipkeep_wnd_proc(HWND hwnd, UINT msg, WPARAM wp, LPARAM lp) {
//     if (msg == WM_CLIPBOARDUPDATE) {
//         PostMessage(hwnd, WM_USER + 1, 0, 0);
//         return 0;
//     }
//     return DefWindowProc(hwnd, msg, wp, lp);
// }
//
// static HWND clipkeep_listen() {
//     WNDCLASS wc = {0};
//     wc.lpfnWndProc   = clipkeep_wnd_proc;
//     wc.hInstance     = GetModuleHandle(NULL);
//     wc.lpszClassName = "ClipkeepListener";
//     RegisterClass(&wc);
//     HWND hwnd = CreateWindowEx(0, "ClipkeepListener", NULL, 0,
//         0, 0, 0, 0, HWND_MESSAGE, NULL, GetModuleHandle(NULL), NULL);
//     AddClipboardFormatListener(hwnd);
//     return hwnd;
// }
//
// static int clipkeep_drain(HWND hwnd) {
//     MSG msg;
//     int changed = 0;
//     while (PeekMessage(&msg, hwnd, 0, 0, PM_REMOVE)) {
//         if (msg.message == WM_USER + 1) { changed = 1; }
//         TranslateMessage(&msg);
//         DispatchMessage(&msg);
//     }
//     return changed;
// }
//
// static void clipkeep_unlisten(HWND hwnd) {
//     RemoveClipboardFormatListener(hwnd);
//     DestroyWindow(hwnd);
// }
import "C"

import (
	"log/slog"
	"runtime"
	"time"

	"golang.design/x/clipboard"
)

// DefaultPollInterval is how often the listener window's queue is drained.
const DefaultPollInterval = 50 * time.Millisecond

type windowsBackend struct {
	interval time.Duration
	watchCh  chan struct{}
	done     chan struct{}
}

// New returns the Windows clipboard backend using AddClipboardFormatListener.
func New(pollInterval time.Duration) Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return newHeadless()
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	b := &windowsBackend{
		interval: pollInterval,
		watchCh:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go b.pump()
	return b
}

func (b *windowsBackend) Name() string { return "Windows Clipboard" }

// pump owns the message-only window. Window messages are delivered to the
// creating thread, so the goroutine stays locked to it.
func (b *windowsBackend) pump() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hwnd := C.clipkeep_listen()
	defer C.clipkeep_unlisten(hwnd)

	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			if C.clipkeep_drain(hwnd) != 0 {
				select {
				case b.watchCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (b *windowsBackend) Read() (*Snapshot, error) {
	return synthesize(clipboard.Read(clipboard.FmtText), clipboard.Read(clipboard.FmtImage)), nil
}

func (b *windowsBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *windowsBackend) Close()                 { close(b.done) }
