// Package artifact persists classified clipboard events as files.
//
// Every event produces a content file and a metadata file that share the
// same name prefix:
//
//	clip_000042_2024-05-01_13-07-59-123_text.txt
//	clip_000042_2024-05-01_13-07-59-123_formats.txt
//
// The zero-padded sequence number comes first so that lexical order of the
// directory listing is capture order.
package artifact

import (
	"fmt"
	"time"

	"go.klb.dev/clipkeep/internal/clip"
)

// Kind is the content-kind suffix of an artifact name.
type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindHTML    Kind = "html"
	KindURLs    Kind = "urls"
	KindFormats Kind = "formats"
)

// Ext returns the file extension used for k.
func (k Kind) Ext() string {
	switch k {
	case KindImage:
		return "png"
	case KindHTML:
		return "html"
	default:
		return "txt"
	}
}

const timestampLayout = "2006-01-02_15-04-05"

// Timestamp formats ts as yyyy-MM-dd_hh-mm-ss-zzz (24-hour clock, local
// fields of ts, milliseconds). Go layouts only allow '.' or ',' before
// fractional seconds, hence the separate millisecond suffix.
func Timestamp(ts time.Time) string {
	return fmt.Sprintf("%s-%03d", ts.Format(timestampLayout), ts.Nanosecond()/int(time.Millisecond))
}

// Name returns the artifact file name for (seq, ts, kind).
func Name(seq uint64, ts time.Time, kind Kind) string {
	return fmt.Sprintf("clip_%06d_%s_%s.%s", seq, Timestamp(ts), kind, kind.Ext())
}

// Flags records which representations a snapshot exposed, independent of
// which one was persisted.
type Flags struct {
	HasText  bool
	HasHTML  bool
	HasImage bool
	HasURLs  bool
}

// FlagsOf derives Flags from s.
func FlagsOf(s *clip.Snapshot) Flags {
	return Flags{
		HasText:  s.HasText(),
		HasHTML:  s.HasHTML(),
		HasImage: s.HasImage(),
		HasURLs:  s.HasURLs(),
	}
}
