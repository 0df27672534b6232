// Package statussvc serves a running daemon's counters over the IPC socket,
// both as gRPC (clipkeep.v1.Monitor/Status) and as JSON at GET /v1/status.
//
// The service is registered by hand with well-known protobuf types
// (google.protobuf.Empty in, google.protobuf.Struct out), so no generated
// stubs are needed.
package statussvc

import (
	"context"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/clipkeep/internal/monitor"
)

const (
	ServiceName  = "clipkeep.v1.Monitor"
	StatusMethod = "/" + ServiceName + "/Status"
)

// Provider supplies the counters. *monitor.Monitor implements it.
type Provider interface {
	Status() monitor.Status
}

// StatusServer is the server API for the clipkeep.v1.Monitor service.
type StatusServer interface {
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// Service implements StatusServer.
type Service struct {
	p   Provider
	pid int
}

// New returns a Service backed by p.
func New(p Provider) *Service {
	return &Service{p: p, pid: os.Getpid()}
}

// Status implements StatusServer.
func (s *Service) Status(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.p.Status()
	out, err := structpb.NewStruct(map[string]any{
		"backend":       st.Backend,
		"dir":           st.Dir,
		"pid":           s.pid,
		"started_at":    st.StartedAt.UTC().Format(time.RFC3339),
		"events":        st.Events,
		"saved":         st.Saved,
		"skipped":       st.Skipped,
		"failed":        st.Failed,
		"last_sequence": st.LastSequence,
		"last_artifact": st.LastArtifact,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return out, nil
}

// Register adds the service to gs.
func Register(gs *grpc.Server, s StatusServer) {
	gs.RegisterService(&serviceDesc, s)
}

// Fetch calls Status on conn.
func Fetch(ctx context.Context, conn grpc.ClientConnInterface) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, StatusMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatusServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Status", Handler: statusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clipkeep/v1/monitor.proto",
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatusServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: StatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatusServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
