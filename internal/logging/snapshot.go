package logging

import (
	"context"
	"log/slog"

	"go.klb.dev/clipkeep/internal/clip"
)

const previewLen = 120

// LogSnapshot logs the format list of s at DEBUG, with a text preview of up
// to 120 characters. It is a no-op unless DEBUG is enabled.
func LogSnapshot(event string, s *clip.Snapshot) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	names := make([]string, len(s.Formats))
	for i, f := range s.Formats {
		names[i] = f.Name
	}
	attrs := []any{"formats", names}
	if s.HasText() {
		attrs = append(attrs, "preview", Preview(string(s.Text)))
	}
	if s.HasImage() {
		attrs = append(attrs, "image_bytes", len(s.Image))
	}
	if s.HasURLs() {
		attrs = append(attrs, "urls", len(s.URLs))
	}
	slog.Debug(event, attrs...)
}

// Preview truncates text to 120 runes, marking the cut with an ellipsis.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLen {
		return text
	}
	return string(r[:previewLen]) + "…"
}
