package artifact

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"go.klb.dev/clipkeep/internal/clip"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Writer creates artifact files in a single directory. It never reads,
// rewrites or removes existing artifacts.
type Writer struct {
	fs  afero.Fs
	dir string
}

// New returns a Writer rooted at dir on fs.
func New(fs afero.Fs, dir string) *Writer {
	return &Writer{fs: fs, dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// EnsureDir creates the output directory and any missing parents.
func (w *Writer) EnsureDir() error {
	if err := w.fs.MkdirAll(w.dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", w.dir, err)
	}
	return nil
}

// WriteText writes text verbatim to the text artifact.
func (w *Writer) WriteText(seq uint64, ts time.Time, text string) (string, error) {
	return w.write(seq, ts, KindText, []byte(text))
}

// WriteHTML writes html verbatim to the html artifact.
func (w *Writer) WriteHTML(seq uint64, ts time.Time, html string) (string, error) {
	return w.write(seq, ts, KindHTML, []byte(html))
}

// WriteURLs writes one URL per line in input order. Each URL is written in
// its canonical form; strings that do not parse are written as given.
func (w *Writer) WriteURLs(seq uint64, ts time.Time, urls []string) (string, error) {
	var b strings.Builder
	for _, raw := range urls {
		if u, err := url.Parse(raw); err == nil {
			b.WriteString(u.String())
		} else {
			b.WriteString(raw)
		}
		b.WriteByte('\n')
	}
	return w.write(seq, ts, KindURLs, []byte(b.String()))
}

// WriteImage encodes img as PNG.
func (w *Writer) WriteImage(seq uint64, ts time.Time, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return w.write(seq, ts, KindImage, buf.Bytes())
}

// WriteMetadata writes the format listing and detection flags for an event.
func (w *Writer) WriteMetadata(seq uint64, ts time.Time, formats []clip.Format, flags Flags) (string, error) {
	return w.write(seq, ts, KindFormats, EncodeMetadata(seq, ts, formats, flags))
}

func (w *Writer) write(seq uint64, ts time.Time, kind Kind, data []byte) (string, error) {
	path := filepath.Join(w.dir, Name(seq, ts, kind))
	if err := afero.WriteFile(w.fs, path, data, filePerm); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
