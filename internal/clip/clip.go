// Package clip provides a read-only view of the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go   — macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go  — Windows via golang.design/x/clipboard + AddClipboardFormatListener
//	clip_linux.go    — Linux via golang.design/x/clipboard, polling, plus
//	                   wl-paste/xclip for HTML, URI lists and the format list
//	clip_other.go    — headless / container stub
package clip

import (
	"bufio"
	"bytes"
	"strings"
)

// Common MIME names reported in Snapshot.Formats.
const (
	MIMEText    = "text/plain"
	MIMETextUTF = "text/plain;charset=utf-8"
	MIMEHTML    = "text/html"
	MIMEURIList = "text/uri-list"
	MIMEPNG     = "image/png"
)

// Format is one representation the clipboard exposes, with its payload size.
type Format struct {
	Name string
	Size int
}

// Snapshot is the full set of representations the clipboard exposes at one
// instant. A nil field means the representation is absent; a non-nil empty
// slice means it is present but empty.
type Snapshot struct {
	Text  []byte
	HTML  []byte
	Image []byte // encoded (PNG, BMP, TIFF, ...); decoding is left to the caller
	URLs  []string

	// Formats lists every representation in the order the clipboard
	// reported them.
	Formats []Format
}

func (s *Snapshot) HasText() bool  { return s.Text != nil }
func (s *Snapshot) HasHTML() bool  { return s.HTML != nil }
func (s *Snapshot) HasImage() bool { return s.Image != nil }
func (s *Snapshot) HasURLs() bool  { return s.URLs != nil }

// Empty reports whether the snapshot carries nothing at all.
func (s *Snapshot) Empty() bool {
	return !s.HasText() && !s.HasHTML() && !s.HasImage() && !s.HasURLs() && len(s.Formats) == 0
}

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard contents.
	// Returns nil, nil if the clipboard is empty.
	Read() (*Snapshot, error)

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. The channel is never closed. Signals coalesce: a burst of
	// changes may be delivered as one. The caller should call Read() when it
	// receives from the channel.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// ParseURIList parses a text/uri-list payload (RFC 2483): one URI per line,
// CRLF or LF terminated, lines starting with '#' are comments.
func ParseURIList(data []byte) []string {
	urls := []string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}

// synthesize builds a Snapshot from the two representations every backend can
// read, when the platform offers no way to enumerate the real format list.
func synthesize(text, img []byte) *Snapshot {
	if text == nil && img == nil {
		return nil
	}
	s := &Snapshot{Text: text, Image: img}
	if text != nil {
		s.Formats = append(s.Formats, Format{Name: MIMETextUTF, Size: len(text)})
	}
	if img != nil {
		s.Formats = append(s.Formats, Format{Name: MIMEPNG, Size: len(img)})
	}
	return s
}
