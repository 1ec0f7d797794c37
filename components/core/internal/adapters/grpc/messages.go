// Package grpc exposes the same command/query UseCase layer the HTTP
// ApiSurface drives, over a hand-built grpc.ServiceDesc instead of a
// protoc-generated one. The RPC method catalog (spec §6) is specified by
// its method names and message shapes, not a compiled .proto contract, so
// the wire messages here are plain Go structs marshaled by the "proto"
// JSON codec registered in common/mgrpc/codec.go — the same codec the
// mgrpc client dialer expects, and the same request/response shapes the
// REST handlers already use under encoding/json.
package grpc

import "encoding/json"

// Request is the generic envelope every RPC but HealthCheck accepts.
// Resource names the target collection ("tenant", "organization", ...);
// ID selects a single item for Get/Update/Delete; Body carries the
// Create/Update payload as the same CreateInput/UpdateInput JSON the REST
// handlers decode.
type Request struct {
	Resource string            `json:"resource"`
	TenantID string            `json:"tenantId,omitempty"`
	ID       string            `json:"id,omitempty"`
	Page     int               `json:"page,omitempty"`
	PerPage  int               `json:"perPage,omitempty"`
	Filter   map[string]string `json:"filter,omitempty"`
	Body     json.RawMessage   `json:"body,omitempty"`
}

// Response is the generic envelope every RPC but HealthCheck returns. Item
// carries a single resource, Items a page of them; Total/Page/PerPage
// mirror httputils.Pagination for list calls.
type Response struct {
	Item    json.RawMessage   `json:"item,omitempty"`
	Items   []json.RawMessage `json:"items,omitempty"`
	Total   int64             `json:"total,omitempty"`
	Page    int               `json:"page,omitempty"`
	PerPage int               `json:"perPage,omitempty"`
}

// HealthCheckRequest is empty; the RPC reports liveness unconditionally,
// mirroring the unauthenticated /healthz route.
type HealthCheckRequest struct{}

// HealthCheckResponse carries Status "ok"; the REST /healthz route
// (httputils.Ping) answers with the plain-text body "healthy" instead.
type HealthCheckResponse struct {
	Status string `json:"status"`
}
