package statussvc

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"go.klb.dev/clipkeep/internal/monitor"
)

type fixedProvider struct{ st monitor.Status }

func (p fixedProvider) Status() monitor.Status { return p.st }

func testStatus() monitor.Status {
	return monitor.Status{
		Backend:      "fake",
		Dir:          "/out",
		StartedAt:    time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
		Events:       7,
		Saved:        4,
		Skipped:      2,
		Failed:       1,
		LastSequence: 5,
		LastArtifact: "/out/clip_000005_2024-03-09_14-05-07-042_text.txt",
	}
}

func TestService_Status(t *testing.T) {
	st, err := New(fixedProvider{testStatus()}).Status(context.Background(), nil)
	require.NoError(t, err)

	m := st.AsMap()
	assert.Equal(t, "fake", m["backend"])
	assert.Equal(t, "/out", m["dir"])
	assert.Equal(t, "2024-03-09T14:05:07Z", m["started_at"])
	assert.EqualValues(t, 7, m["events"])
	assert.EqualValues(t, 4, m["saved"])
	assert.EqualValues(t, 2, m["skipped"])
	assert.EqualValues(t, 1, m["failed"])
	assert.EqualValues(t, 5, m["last_sequence"])
	assert.EqualValues(t, os.Getpid(), m["pid"])
}

func TestFetch_OverBufconn(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	Register(gs, New(fixedProvider{testStatus()}))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := Fetch(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, "fake", st.GetFields()["backend"].GetStringValue())
	assert.EqualValues(t, 4, st.GetFields()["saved"].GetNumberValue())
}

func TestGateway_StatusJSON(t *testing.T) {
	mux, err := NewGateway(New(fixedProvider{testStatus()}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StatusPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fake", body["backend"])
	assert.EqualValues(t, 5, body["last_sequence"])
}

func TestGateway_UnknownRoute(t *testing.T) {
	mux, err := NewGateway(New(fixedProvider{testStatus()}))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_GRPCAndHTTPOnOneSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "cksvc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "s.sock")

	ln, err := net.Listen("unix", path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, New(fixedProvider{testStatus()})) }()

	conn, err := grpc.NewClient("unix://"+path, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
	defer callCancel()
	st, err := Fetch(callCtx, conn)
	require.NoError(t, err)
	assert.EqualValues(t, 7, st.GetFields()["events"].GetNumberValue())

	hc := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		},
	}
	resp, err := hc.Get("http://clipkeep" + StatusPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "/out", body["dir"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
