package capture

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"image"
	"image/draw"

	// Decoders for the image payloads clipboards commonly carry.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go.klb.dev/clipkeep/internal/artifact"
	"go.klb.dev/clipkeep/internal/clip"
)

// Candidate is the single representation chosen for persistence.
type Candidate struct {
	Kind  artifact.Kind
	Text  string
	HTML  string
	Image image.Image
	URLs  []string

	imageSum [sha256.Size]byte // set by DedupImageRule only
}

// Rule selects a candidate of one kind from a snapshot, given the state left
// by earlier events. Select must not mutate st.
type Rule struct {
	Kind   artifact.Kind
	Select func(s *clip.Snapshot, st *State) (Candidate, bool)
}

var (
	// TextRule picks non-empty text that differs from the last saved text.
	TextRule = Rule{Kind: artifact.KindText, Select: selectText}

	// ImageRule picks any decodable image. Repeated identical images are
	// saved every time.
	ImageRule = Rule{Kind: artifact.KindImage, Select: selectImage}

	// DedupImageRule is ImageRule plus a pixel-hash comparison against the
	// last saved image.
	DedupImageRule = Rule{Kind: artifact.KindImage, Select: selectImageDedup}

	// HTMLRule picks non-empty HTML that differs from the last saved HTML.
	HTMLRule = Rule{Kind: artifact.KindHTML, Select: selectHTML}

	// URLsRule picks any non-empty URL list.
	URLsRule = Rule{Kind: artifact.KindURLs, Select: selectURLs}
)

// DefaultRules returns the priority order text > image > HTML > URLs.
// Text wins because most copies that carry a text form are meant as text; an
// image is unambiguous; HTML and URL lists usually accompany text.
func DefaultRules() []Rule {
	return []Rule{TextRule, ImageRule, HTMLRule, URLsRule}
}

func selectText(s *clip.Snapshot, st *State) (Candidate, bool) {
	if len(s.Text) == 0 {
		return Candidate{}, false
	}
	text := string(s.Text)
	if text == st.LastText {
		return Candidate{}, false
	}
	return Candidate{Kind: artifact.KindText, Text: text}, true
}

func selectImage(s *clip.Snapshot, _ *State) (Candidate, bool) {
	img, ok := decodeImage(s.Image)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Kind: artifact.KindImage, Image: img}, true
}

func selectImageDedup(s *clip.Snapshot, st *State) (Candidate, bool) {
	c, ok := selectImage(s, st)
	if !ok {
		return Candidate{}, false
	}
	c.imageSum = pixelSum(c.Image)
	if st.haveImageSum && c.imageSum == st.LastImageSum {
		return Candidate{}, false
	}
	return c, true
}

func selectHTML(s *clip.Snapshot, st *State) (Candidate, bool) {
	if len(s.HTML) == 0 {
		return Candidate{}, false
	}
	html := string(s.HTML)
	if html == st.LastHTML {
		return Candidate{}, false
	}
	return Candidate{Kind: artifact.KindHTML, HTML: html}, true
}

func selectURLs(s *clip.Snapshot, _ *State) (Candidate, bool) {
	if len(s.URLs) == 0 {
		return Candidate{}, false
	}
	return Candidate{Kind: artifact.KindURLs, URLs: s.URLs}, true
}

// decodeImage reports false for absent, undecodable and zero-sized images.
func decodeImage(data []byte) (image.Image, bool) {
	if len(data) == 0 {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil || img == nil || img.Bounds().Empty() {
		return nil, false
	}
	return img, true
}

// pixelSum hashes the image's size and NRGBA pixels, so the same picture
// delivered in different encodings compares equal.
func pixelSum(img image.Image) [sha256.Size]byte {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	h := sha256.New()
	var dims []byte
	dims = binary.BigEndian.AppendUint32(dims, uint32(b.Dx()))
	dims = binary.BigEndian.AppendUint32(dims, uint32(b.Dy()))
	h.Write(dims)
	h.Write(nrgba.Pix)

	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
