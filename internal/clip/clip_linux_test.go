//go:build linux

package clip

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTargets is a targetTool over an in-memory target table.
type fakeTargets struct {
	mu      sync.Mutex
	names   []string
	data    map[string][]byte
	broken  map[string]bool
	listErr error
}

func (f *fakeTargets) name() string { return "fake" }

func (f *fakeTargets) list() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.names...), nil
}

func (f *fakeTargets) read(target string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken[target] {
		return nil, errors.New("target vanished")
	}
	return f.data[target], nil
}

func (f *fakeTargets) set(target string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[target] = data
}

// fixedRead returns a reader that always yields data.
func fixedRead(data []byte) func() []byte {
	return func() []byte { return data }
}

func TestLinuxBackend_NoSignalForContentPresentAtStartup(t *testing.T) {
	b := newLinuxBackend(time.Millisecond, nil, fixedRead([]byte("already here")), fixedRead([]byte("\x89PNG")))

	assert.False(t, b.changed())
	assert.False(t, b.changed())
}

func TestLinuxBackend_PollLoopStaysQuietWhenUnchanged(t *testing.T) {
	b := newLinuxBackend(time.Millisecond, nil, fixedRead([]byte("hello")), fixedRead(nil))
	go b.poll()
	defer b.Close()

	select {
	case <-b.Watch():
		t.Fatal("unchanged clipboard produced a change signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLinuxBackend_TextChangeSignals(t *testing.T) {
	var mu sync.Mutex
	text := []byte("one")
	readText := func() []byte {
		mu.Lock()
		defer mu.Unlock()
		return text
	}
	b := newLinuxBackend(time.Millisecond, nil, readText, fixedRead(nil))

	mu.Lock()
	text = []byte("two")
	mu.Unlock()
	assert.True(t, b.changed())
	assert.False(t, b.changed(), "a change is reported once")
}

func TestLinuxBackend_HTMLOnlyChangeSignals(t *testing.T) {
	tt := &fakeTargets{
		names: []string{MIMETextUTF, MIMEHTML},
		data: map[string][]byte{
			MIMETextUTF: []byte("same"),
			MIMEHTML:    []byte("<b>same</b>"),
		},
	}
	b := newLinuxBackend(time.Millisecond, tt, fixedRead([]byte("same")), fixedRead(nil))
	require.False(t, b.changed())

	tt.set(MIMEHTML, []byte("<i>same</i>"))
	assert.True(t, b.changed())
}

func TestLinuxBackend_URIListOnlyChangeSignals(t *testing.T) {
	tt := &fakeTargets{
		names: []string{MIMEURIList},
		data:  map[string][]byte{MIMEURIList: []byte("file:///a\n")},
	}
	b := newLinuxBackend(time.Millisecond, tt, fixedRead(nil), fixedRead(nil))
	require.False(t, b.changed())

	tt.set(MIMEURIList, []byte("file:///b\n"))
	assert.True(t, b.changed())
}

func TestLinuxBackend_EmptyDiffersFromAbsent(t *testing.T) {
	var mu sync.Mutex
	var text []byte
	readText := func() []byte {
		mu.Lock()
		defer mu.Unlock()
		return text
	}
	b := newLinuxBackend(time.Millisecond, nil, readText, fixedRead(nil))

	mu.Lock()
	text = []byte{}
	mu.Unlock()
	assert.True(t, b.changed())
}

func TestLinuxBackend_ReadAssemblesSnapshot(t *testing.T) {
	tt := &fakeTargets{
		names: []string{MIMETextUTF, MIMEHTML, "image/x-broken", MIMEURIList, "application/x-empty"},
		data: map[string][]byte{
			MIMETextUTF: []byte("hi"),
			MIMEHTML:    []byte("<p>hi</p>"),
			MIMEURIList: []byte("# comment\r\nhttps://example.com/a\r\nfile:///tmp/b\r\n"),
		},
		broken: map[string]bool{"image/x-broken": true},
	}
	b := newLinuxBackend(time.Millisecond, tt, fixedRead([]byte("hi")), fixedRead(nil))

	s, err := b.Read()
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, []Format{
		{Name: MIMETextUTF, Size: 2},
		{Name: MIMEHTML, Size: 9},
		{Name: MIMEURIList, Size: 49},
		{Name: "application/x-empty", Size: 0},
	}, s.Formats, "order kept, failed target skipped")
	assert.Equal(t, []byte("hi"), s.Text)
	assert.Equal(t, []byte("<p>hi</p>"), s.HTML)
	assert.Equal(t, []string{"https://example.com/a", "file:///tmp/b"}, s.URLs)
	assert.False(t, s.HasImage())
}

func TestLinuxBackend_ReadNilPayloadIsPresentButEmpty(t *testing.T) {
	tt := &fakeTargets{names: []string{MIMEHTML, MIMEURIList}, data: map[string][]byte{}}
	b := newLinuxBackend(time.Millisecond, tt, fixedRead(nil), fixedRead(nil))

	s, err := b.Read()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, s.HasHTML())
	assert.Empty(t, s.HTML)
	assert.True(t, s.HasURLs())
	assert.Empty(t, s.URLs)
	assert.Equal(t, []Format{{Name: MIMEHTML, Size: 0}, {Name: MIMEURIList, Size: 0}}, s.Formats)
}

func TestLinuxBackend_ReadEmptyClipboardIsNil(t *testing.T) {
	tt := &fakeTargets{data: map[string][]byte{}}
	b := newLinuxBackend(time.Millisecond, tt, fixedRead(nil), fixedRead(nil))

	s, err := b.Read()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestLinuxBackend_ReadFallsBackWhenListingFails(t *testing.T) {
	tt := &fakeTargets{listErr: errors.New("no selection owner"), data: map[string][]byte{}}
	b := newLinuxBackend(time.Millisecond, tt, fixedRead([]byte("abc")), fixedRead(nil))

	s, err := b.Read()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, []Format{{Name: MIMETextUTF, Size: 3}}, s.Formats)
	assert.Nil(t, s.HTML)
}

func TestLinuxBackend_ReadWithoutTargetTool(t *testing.T) {
	b := newLinuxBackend(time.Millisecond, nil, fixedRead(nil), fixedRead([]byte("\x89PNG")))

	s, err := b.Read()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, []Format{{Name: MIMEPNG, Size: 4}}, s.Formats)
	assert.Equal(t, "Linux clipboard (poll)", b.Name())
}
