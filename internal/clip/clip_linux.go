//go:build linux

package clip

import (
	"bytes"
	"log/slog"
	"strconv"
	"time"

	"golang.design/x/clipboard"
)

// DefaultPollInterval is used when New is given a zero interval.
const DefaultPollInterval = 250 * time.Millisecond

type linuxBackend struct {
	watchCh   chan struct{}
	done      chan struct{}
	interval  time.Duration
	targets   targetTool // nil when neither wl-paste nor xclip is installed
	readText  func() []byte
	readImage func() []byte
	last      []byte
}

// New returns the Linux clipboard backend, or a headless no-op backend if
// the display environment is unavailable (e.g. a headless server without X11
// or Wayland). clipboard.Init is called here rather than in init() so that
// CLI sub-commands (status, config) don't trigger the warning.
func New(pollInterval time.Duration) Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return newHeadless()
	}
	b := newLinuxBackend(pollInterval, lookupTargetTool(),
		func() []byte { return clipboard.Read(clipboard.FmtText) },
		func() []byte { return clipboard.Read(clipboard.FmtImage) },
	)
	if b.targets == nil {
		slog.Info("wl-paste/xclip not found, format list will be synthesized")
	}
	go b.poll()
	return b
}

// newLinuxBackend records the current clipboard as the baseline, so content
// present at startup is not reported as a change.
func newLinuxBackend(pollInterval time.Duration, targets targetTool, readText, readImage func() []byte) *linuxBackend {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	b := &linuxBackend{
		watchCh:   make(chan struct{}, 1),
		done:      make(chan struct{}),
		interval:  pollInterval,
		targets:   targets,
		readText:  readText,
		readImage: readImage,
	}
	b.last = b.sample()
	return b
}

func (b *linuxBackend) Name() string {
	if b.targets != nil {
		return "Linux clipboard (poll, " + b.targets.name() + ")"
	}
	return "Linux clipboard (poll)"
}

func (b *linuxBackend) poll() {
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			if b.changed() {
				select {
				case b.watchCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

// changed samples the clipboard and reports whether it differs from the
// previous sample.
func (b *linuxBackend) changed() bool {
	cur := b.sample()
	if bytes.Equal(cur, b.last) {
		return false
	}
	b.last = cur
	return true
}

// sample returns a fingerprint of everything the classifier looks at: text,
// image, and with a target tool the target list plus the HTML and uri-list
// payloads. Absent and empty values fingerprint differently.
func (b *linuxBackend) sample() []byte {
	var buf bytes.Buffer
	field := func(tag string, data []byte) {
		buf.WriteString(tag)
		if data == nil {
			buf.WriteString(":-\n")
			return
		}
		buf.WriteString(":" + strconv.Itoa(len(data)) + ":")
		buf.Write(data)
		buf.WriteByte('\n')
	}
	field("text", b.readText())
	field("image", b.readImage())
	if b.targets == nil {
		return buf.Bytes()
	}

	names, err := b.targets.list()
	if err != nil {
		return buf.Bytes()
	}
	for _, name := range names {
		field("target", []byte(name))
		if name != MIMEHTML && name != MIMEURIList {
			continue
		}
		data, err := b.targets.read(name)
		if err != nil {
			continue
		}
		if data == nil {
			data = []byte{}
		}
		field(name, data)
	}
	return buf.Bytes()
}

func (b *linuxBackend) Read() (*Snapshot, error) {
	text := b.readText()
	img := b.readImage()
	if b.targets == nil {
		return synthesize(text, img), nil
	}

	names, err := b.targets.list()
	if err != nil {
		slog.Debug("listing clipboard targets failed", "tool", b.targets.name(), "err", err)
		return synthesize(text, img), nil
	}

	s := &Snapshot{Text: text, Image: img}
	for _, name := range names {
		data, err := b.targets.read(name)
		if err != nil {
			slog.Debug("reading clipboard target failed", "target", name, "err", err)
			continue
		}
		if data == nil {
			data = []byte{}
		}
		s.Formats = append(s.Formats, Format{Name: name, Size: len(data)})
		switch name {
		case MIMEHTML:
			s.HTML = data
		case MIMEURIList:
			s.URLs = ParseURIList(data)
		}
	}
	if s.Empty() {
		return nil, nil
	}
	return s, nil
}

func (b *linuxBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *linuxBackend) Close()                 { close(b.done) }
