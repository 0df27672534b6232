// Package capture decides which clipboard changes are worth keeping and
// hands the chosen representation to an artifact sink.
package capture

import (
	"crypto/sha256"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"go.klb.dev/clipkeep/internal/artifact"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/logging"
)

// DefaultMarkers are clipboard formats that GUI toolkits publish for their own
// bookkeeping. A snapshot carrying one of them with a payload is framework
// churn, not a user copy.
var DefaultMarkers = []string{"application/x-qt-windows-mime"}

// Reader supplies the current clipboard contents. A nil snapshot means no
// data is available.
type Reader interface {
	Read() (*clip.Snapshot, error)
}

// Sink persists one event. *artifact.Writer implements it.
type Sink interface {
	WriteText(seq uint64, ts time.Time, text string) (string, error)
	WriteImage(seq uint64, ts time.Time, img image.Image) (string, error)
	WriteHTML(seq uint64, ts time.Time, html string) (string, error)
	WriteURLs(seq uint64, ts time.Time, urls []string) (string, error)
	WriteMetadata(seq uint64, ts time.Time, formats []clip.Format, flags artifact.Flags) (string, error)
}

// State is what the classifier remembers between events.
type State struct {
	LastText string
	LastHTML string

	// LastImageSum is only maintained by DedupImageRule.
	LastImageSum [sha256.Size]byte
	haveImageSum bool

	// Sequence is the number of the last persisted event. It only grows.
	Sequence uint64
}

// Outcome describes what happened to one change notification.
type Outcome string

const (
	OutcomeNoData    Outcome = "no-data"
	OutcomeMarker    Outcome = "marker"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSaved     Outcome = "saved"
	OutcomeFailed    Outcome = "failed"
)

// Result is reported to the observer after every notification.
type Result struct {
	Outcome      Outcome
	Kind         artifact.Kind
	Sequence     uint64
	Path         string
	MetadataPath string
	Err          error
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

// WithRules replaces DefaultRules. Rules are evaluated in slice order.
func WithRules(rules ...Rule) Option {
	return func(c *Classifier) { c.rules = rules }
}

// WithMarkers replaces DefaultMarkers. A format matches a marker when its
// name equals the marker or starts with marker + ";".
func WithMarkers(markers ...string) Option {
	return func(c *Classifier) { c.markers = markers }
}

// WithDedupImages swaps ImageRule for DedupImageRule in the rule table.
func WithDedupImages(on bool) Option {
	return func(c *Classifier) { c.dedupImages = on }
}

// WithObserver registers fn to be called with the Result of every
// notification, on the classifier's goroutine.
func WithObserver(fn func(Result)) Option {
	return func(c *Classifier) { c.observer = fn }
}

// Classifier turns clipboard change notifications into persisted artifacts.
//
// A Classifier is owned by a single goroutine: OnClipboardChanged must not be
// called concurrently, and State is not synchronised.
type Classifier struct {
	reader      Reader
	sink        Sink
	now         func() time.Time
	rules       []Rule
	markers     []string
	dedupImages bool
	observer    func(Result)
	state       State
}

// New returns a Classifier reading from r and persisting to sink.
func New(r Reader, sink Sink, opts ...Option) *Classifier {
	c := &Classifier{
		reader:  r,
		sink:    sink,
		now:     time.Now,
		rules:   DefaultRules(),
		markers: DefaultMarkers,
	}
	for _, o := range opts {
		o(c)
	}
	if c.dedupImages {
		rules := make([]Rule, len(c.rules))
		for i, r := range c.rules {
			if r.Kind == artifact.KindImage {
				r = DedupImageRule
			}
			rules[i] = r
		}
		c.rules = rules
	}
	return c
}

// State returns a copy of the remembered state. Call it only from the
// goroutine that owns the Classifier.
func (c *Classifier) State() State { return c.state }

// OnClipboardChanged reads the clipboard and persists at most one artifact
// (plus its metadata) for it. Failures are logged, never returned.
func (c *Classifier) OnClipboardChanged() {
	r := c.handle()
	if c.observer != nil {
		c.observer(r)
	}
}

func (c *Classifier) handle() Result {
	snap, err := c.reader.Read()
	if err != nil {
		slog.Debug("clipboard read failed", "err", err)
		return Result{Outcome: OutcomeNoData}
	}
	if snap == nil {
		return Result{Outcome: OutcomeNoData}
	}
	if name, ok := c.marker(snap.Formats); ok {
		slog.Debug("internal clipboard marker present, skipping", "format", name)
		return Result{Outcome: OutcomeMarker}
	}

	ts := c.now()
	logging.LogSnapshot("clipboard changed", snap)

	cand, ok := c.classify(snap)
	if !ok {
		return Result{Outcome: OutcomeUnchanged}
	}

	c.state.Sequence++
	seq := c.state.Sequence
	res := Result{Outcome: OutcomeSaved, Kind: cand.Kind, Sequence: seq}

	path, err := c.persist(seq, ts, cand)
	res.Path = path
	if err != nil {
		slog.Warn("saving clip failed", "seq", seq, "kind", cand.Kind, "path", path, "err", err)
		res.Outcome, res.Err = OutcomeFailed, err
	} else {
		slog.Info("saved clip", append([]any{"seq", seq, "kind", cand.Kind, "path", path}, describe(cand)...)...)
	}
	c.remember(cand)

	meta, err := c.sink.WriteMetadata(seq, ts, snap.Formats, artifact.FlagsOf(snap))
	res.MetadataPath = meta
	if err != nil {
		slog.Warn("saving clip metadata failed", "seq", seq, "path", meta, "err", err)
		if res.Err == nil {
			res.Outcome, res.Err = OutcomeFailed, err
		}
	}
	return res
}

func (c *Classifier) marker(formats []clip.Format) (string, bool) {
	for _, f := range formats {
		if f.Size == 0 {
			continue
		}
		for _, m := range c.markers {
			if f.Name == m || strings.HasPrefix(f.Name, m+";") {
				return f.Name, true
			}
		}
	}
	return "", false
}

func (c *Classifier) classify(snap *clip.Snapshot) (Candidate, bool) {
	for _, r := range c.rules {
		if cand, ok := r.Select(snap, &c.state); ok {
			return cand, true
		}
	}
	return Candidate{}, false
}

func (c *Classifier) persist(seq uint64, ts time.Time, cand Candidate) (string, error) {
	switch cand.Kind {
	case artifact.KindText:
		return c.sink.WriteText(seq, ts, cand.Text)
	case artifact.KindImage:
		return c.sink.WriteImage(seq, ts, cand.Image)
	case artifact.KindHTML:
		return c.sink.WriteHTML(seq, ts, cand.HTML)
	case artifact.KindURLs:
		return c.sink.WriteURLs(seq, ts, cand.URLs)
	default:
		return "", fmt.Errorf("no writer for kind %q", cand.Kind)
	}
}

// remember updates dedup state. It runs whether or not the write succeeded.
func (c *Classifier) remember(cand Candidate) {
	switch cand.Kind {
	case artifact.KindText:
		c.state.LastText = cand.Text
	case artifact.KindHTML:
		c.state.LastHTML = cand.HTML
	case artifact.KindImage:
		if cand.imageSum != ([sha256.Size]byte{}) {
			c.state.LastImageSum = cand.imageSum
			c.state.haveImageSum = true
		}
	}
}

func describe(cand Candidate) []any {
	switch cand.Kind {
	case artifact.KindText:
		return []any{"chars", len([]rune(cand.Text))}
	case artifact.KindHTML:
		return []any{"chars", len([]rune(cand.HTML))}
	case artifact.KindImage:
		b := cand.Image.Bounds()
		return []any{"size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy())}
	case artifact.KindURLs:
		return []any{"urls", len(cand.URLs)}
	}
	return nil
}
