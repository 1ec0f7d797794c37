package grpc

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
	"github.com/elder-platform/elder/components/core/internal/graph"
)

// villageIDResource is the one resource name that bypasses authenticate:
// Village-ID resolution is the RPC analogue of the unauthenticated
// /lookup/{village_id} route (spec §6), since it reveals no more than the
// directory mapping a caller could already guess the id encodes.
const villageIDResource = "village_id"

func marshal(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	return raw, nil
}

func (s *Server) ops(resource string) (resourceOps, bool) {
	ops, ok := s.registry[resource]
	return ops, ok
}

// List serves the Get-collection verb for every resource routes.go wires
// a list endpoint for.
func (s *Server) List(ctx context.Context, req *Request) (*Response, error) {
	ops, ok := s.ops(req.Resource)
	if !ok || ops.list == nil {
		return nil, status.Errorf(codes.Unimplemented, "resource %q has no list verb", req.Resource)
	}

	principal, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	result, err := ops.list(ctx, principal, *req)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]json.RawMessage, len(result.items))

	for i, it := range result.items {
		raw, err := marshal(it)
		if err != nil {
			return nil, err
		}

		items[i] = raw
	}

	page, perPage := pageParams(*req)

	return &Response{Items: items, Total: result.total, Page: page, PerPage: perPage}, nil
}

// Get serves the single-item read verb, and the one unauthenticated
// exception (village_id lookup).
func (s *Server) Get(ctx context.Context, req *Request) (*Response, error) {
	if req.Resource == villageIDResource {
		resolution, err := s.query.ResolveVillageID(ctx, req.ID)
		if err != nil {
			return nil, toStatus(err)
		}

		item, err := marshal(resolution)
		if err != nil {
			return nil, err
		}

		return &Response{Item: item}, nil
	}

	ops, ok := s.ops(req.Resource)
	if !ok || ops.get == nil {
		return nil, status.Errorf(codes.Unimplemented, "resource %q has no get verb", req.Resource)
	}

	principal, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	out, err := ops.get(ctx, principal, *req)
	if err != nil {
		return nil, toStatus(err)
	}

	item, err := marshal(out)
	if err != nil {
		return nil, err
	}

	return &Response{Item: item}, nil
}

// Create serves the insert verb.
func (s *Server) Create(ctx context.Context, req *Request) (*Response, error) {
	ops, ok := s.ops(req.Resource)
	if !ok || ops.create == nil {
		return nil, status.Errorf(codes.Unimplemented, "resource %q has no create verb", req.Resource)
	}

	principal, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	out, err := ops.create(ctx, principal, *req)
	if err != nil {
		return nil, toStatus(err)
	}

	item, err := marshal(out)
	if err != nil {
		return nil, err
	}

	return &Response{Item: item}, nil
}

// Update serves the CAS update verb.
func (s *Server) Update(ctx context.Context, req *Request) (*Response, error) {
	ops, ok := s.ops(req.Resource)
	if !ok || ops.update == nil {
		return nil, status.Errorf(codes.Unimplemented, "resource %q has no update verb", req.Resource)
	}

	principal, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	out, err := ops.update(ctx, principal, *req)
	if err != nil {
		return nil, toStatus(err)
	}

	item, err := marshal(out)
	if err != nil {
		return nil, err
	}

	return &Response{Item: item}, nil
}

// Delete serves the removal verb.
func (s *Server) Delete(ctx context.Context, req *Request) (*Response, error) {
	ops, ok := s.ops(req.Resource)
	if !ok || ops.delete == nil {
		return nil, status.Errorf(codes.Unimplemented, "resource %q has no delete verb", req.Resource)
	}

	principal, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	if err := ops.delete(ctx, principal, *req); err != nil {
		return nil, toStatus(err)
	}

	return &Response{}, nil
}

// GraphAnalyze computes graph-wide metrics over req.Filter["scope"] (a
// comma-separated entity-id list; the whole tenant when omitted), the RPC
// analogue of GET /v1/tenants/{tenant_id}/graph/analyze.
func (s *Server) GraphAnalyze(ctx context.Context, req *Request) (*Response, error) {
	principal, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var scope []string
	if raw := req.Filter["scope"]; raw != "" {
		scope = strings.Split(raw, ",")
	}

	analysis, err := s.query.Analyze(ctx, principal, req.TenantID, scope)
	if err != nil {
		return nil, toStatus(err)
	}

	item, err := marshal(analysis)
	if err != nil {
		return nil, err
	}

	return &Response{Item: item}, nil
}

// GraphPath finds the shortest dependency path between req.Filter["source"]
// and req.Filter["target"], optionally restricted to req.Filter["edge_type"].
func (s *Server) GraphPath(ctx context.Context, req *Request) (*Response, error) {
	principal, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	edgeType := dependency.Type(req.Filter["edge_type"])

	path, err := s.query.Path(ctx, principal, req.TenantID, req.Filter["source"], req.Filter["target"], edgeType)
	if err != nil {
		return nil, toStatus(err)
	}

	item, err := marshal(path)
	if err != nil {
		return nil, err
	}

	return &Response{Item: item}, nil
}

// GraphImpact runs a depth-capped traversal from req.ID over the dependency
// graph, the RPC analogue of GET .../entities/{id}/impact.
func (s *Server) GraphImpact(ctx context.Context, req *Request) (*Response, error) {
	principal, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	direction := graph.DirectionDownstream

	switch strings.ToLower(req.Filter["direction"]) {
	case "upstream":
		direction = graph.DirectionUpstream
	case "both":
		direction = graph.DirectionBoth
	}

	maxDepth := 0
	if raw := req.Filter["max_depth"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			maxDepth = n
		}
	}

	impact, err := s.query.Impact(ctx, principal, req.TenantID, req.ID, direction, maxDepth)
	if err != nil {
		return nil, toStatus(err)
	}

	item, err := marshal(impact)
	if err != nil {
		return nil, err
	}

	return &Response{Item: item}, nil
}

// HealthCheck reports liveness unconditionally, the RPC analogue of the
// unauthenticated GET /healthz route.
func (s *Server) HealthCheck(ctx context.Context, req *HealthCheckRequest) (*HealthCheckResponse, error) {
	return &HealthCheckResponse{Status: "ok"}, nil
}
