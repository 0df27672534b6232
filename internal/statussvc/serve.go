package statussvc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
)

// StatusPath is the HTTP route of the JSON status.
const StatusPath = "/v1/status"

// NewGateway returns an HTTP mux serving GET /v1/status as JSON.
func NewGateway(s StatusServer) (*gwruntime.ServeMux, error) {
	marshaler := &gwruntime.JSONPb{
		MarshalOptions: protojson.MarshalOptions{Multiline: true, Indent: "  "},
	}
	mux := gwruntime.NewServeMux()
	err := mux.HandlePath(http.MethodGet, StatusPath, func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		st, err := s.Status(r.Context(), &emptypb.Empty{})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body, err := marshaler.Marshal(st)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", marshaler.ContentType(st))
		_, _ = w.Write(body)
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", StatusPath, err)
	}
	return mux, nil
}

// Serve multiplexes gRPC and HTTP/1 on ln until ctx is cancelled. ln is
// closed on return.
func Serve(ctx context.Context, ln net.Listener, s StatusServer) error {
	mux, err := NewGateway(s)
	if err != nil {
		_ = ln.Close()
		return err
	}

	m := cmux.New(ln)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.HTTP1Fast())

	gs := grpc.NewServer()
	Register(gs, s)
	hs := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := gs.Serve(grpcL); err != nil && ctx.Err() == nil {
			slog.Debug("status grpc server stopped", "err", err)
		}
	}()
	go func() {
		if err := hs.Serve(httpL); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
			slog.Debug("status http server stopped", "err", err)
		}
	}()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		gs.Stop()
		_ = hs.Close()
		_ = ln.Close()
	}()

	if err := m.Serve(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("status listener: %w", err)
	}
	return nil
}
