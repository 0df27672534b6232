package artifact

import (
	"fmt"
	"strings"
	"time"

	"go.klb.dev/clipkeep/internal/clip"
)

// EncodeMetadata renders the human-readable metadata record:
//
//	Clipboard Entry #7
//	Timestamp: 2024-05-01_13-07-59-123
//	Available formats:
//	  - text/plain (5 bytes)
//
//	Has text: Yes
//	Has HTML: No
//	Has image: No
//	Has URLs: No
func EncodeMetadata(seq uint64, ts time.Time, formats []clip.Format, flags Flags) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Clipboard Entry #%d\n", seq)
	fmt.Fprintf(&b, "Timestamp: %s\n", Timestamp(ts))
	b.WriteString("Available formats:\n")
	for _, f := range formats {
		fmt.Fprintf(&b, "  - %s (%d bytes)\n", f.Name, f.Size)
	}
	fmt.Fprintf(&b, "\nHas text: %s\n", yesNo(flags.HasText))
	fmt.Fprintf(&b, "Has HTML: %s\n", yesNo(flags.HasHTML))
	fmt.Fprintf(&b, "Has image: %s\n", yesNo(flags.HasImage))
	fmt.Fprintf(&b, "Has URLs: %s\n", yesNo(flags.HasURLs))
	return []byte(b.String())
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
