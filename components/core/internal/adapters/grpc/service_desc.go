package grpc

import (
	"context"

	"google.golang.org/grpc"

	// Blank-imported for its init() registering the "proto" JSON codec this
	// service's wire messages are marshaled with.
	_ "github.com/elder-platform/elder/common/mgrpc"
	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
	"github.com/elder-platform/elder/components/core/internal/services/command"
	"github.com/elder-platform/elder/components/core/internal/services/query"
)

// Server implements the ApiSurface RPC catalog (spec §6) over the same
// command.UseCase/query.UseCase pair the HTTP ApiSurface drives, dispatched
// through a per-resource registry instead of a second copy of the business
// logic.
type Server struct {
	registry   map[string]resourceOps
	query      *query.UseCase
	jwt        *httputils.JWTMiddleware
	identities identityFinder
}

// NewServer builds a Server wired to cmd/qry and authenticating bearer
// credentials the same way jwt.Protect() does for the Fiber router.
func NewServer(cmd *command.UseCase, qry *query.UseCase, jwt *httputils.JWTMiddleware, identities identity.Repository) *Server {
	return &Server{
		registry:   buildRegistry(cmd, qry),
		query:      qry,
		jwt:        jwt,
		identities: identities,
	}
}

// Register attaches the ApiSurface service to gs. Unlike the teacher's HTTP
// router there is no protoc-generated _grpc.pb.go to register against, so
// the grpc.ServiceDesc is hand-built from the gRPC method catalog named in
// spec §6, with every request/response decoded by the "proto"-named JSON
// codec in common/mgrpc/codec.go.
func Register(gs *grpc.Server, srv *Server) {
	gs.RegisterService(&apiSurfaceServiceDesc, srv)
}

const apiSurfaceServiceName = "elder.core.v1.ApiSurface"

var apiSurfaceServiceDesc = grpc.ServiceDesc{
	ServiceName: apiSurfaceServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "List", Handler: listHandler},
		{MethodName: "Get", Handler: getHandler},
		{MethodName: "Create", Handler: createHandler},
		{MethodName: "Update", Handler: updateHandler},
		{MethodName: "Delete", Handler: deleteHandler},
		{MethodName: "GraphAnalyze", Handler: graphAnalyzeHandler},
		{MethodName: "GraphPath", Handler: graphPathHandler},
		{MethodName: "GraphImpact", Handler: graphImpactHandler},
		{MethodName: "HealthCheck", Handler: healthCheckHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "elder/core/v1/api_surface.proto",
}

func decodeRequest(dec func(any) error) (*Request, error) {
	in := new(Request)
	if err := dec(in); err != nil {
		return nil, err
	}

	return in, nil
}

func listHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in, err := decodeRequest(dec)
	if err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(*Server).List(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + apiSurfaceServiceName + "/List"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).List(ctx, req.(*Request))
	}

	return interceptor(ctx, in, info, handler)
}

func getHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in, err := decodeRequest(dec)
	if err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(*Server).Get(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + apiSurfaceServiceName + "/Get"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).Get(ctx, req.(*Request))
	}

	return interceptor(ctx, in, info, handler)
}

func createHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in, err := decodeRequest(dec)
	if err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(*Server).Create(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + apiSurfaceServiceName + "/Create"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).Create(ctx, req.(*Request))
	}

	return interceptor(ctx, in, info, handler)
}

func updateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in, err := decodeRequest(dec)
	if err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(*Server).Update(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + apiSurfaceServiceName + "/Update"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).Update(ctx, req.(*Request))
	}

	return interceptor(ctx, in, info, handler)
}

func deleteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in, err := decodeRequest(dec)
	if err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(*Server).Delete(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + apiSurfaceServiceName + "/Delete"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).Delete(ctx, req.(*Request))
	}

	return interceptor(ctx, in, info, handler)
}

func graphAnalyzeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in, err := decodeRequest(dec)
	if err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(*Server).GraphAnalyze(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + apiSurfaceServiceName + "/GraphAnalyze"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).GraphAnalyze(ctx, req.(*Request))
	}

	return interceptor(ctx, in, info, handler)
}

func graphPathHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in, err := decodeRequest(dec)
	if err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(*Server).GraphPath(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + apiSurfaceServiceName + "/GraphPath"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).GraphPath(ctx, req.(*Request))
	}

	return interceptor(ctx, in, info, handler)
}

func graphImpactHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in, err := decodeRequest(dec)
	if err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(*Server).GraphImpact(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + apiSurfaceServiceName + "/GraphImpact"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).GraphImpact(ctx, req.(*Request))
	}

	return interceptor(ctx, in, info, handler)
}

func healthCheckHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HealthCheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(*Server).HealthCheck(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + apiSurfaceServiceName + "/HealthCheck"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).HealthCheck(ctx, req.(*HealthCheckRequest))
	}

	return interceptor(ctx, in, info, handler)
}
