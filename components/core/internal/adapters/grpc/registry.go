package grpc

import (
	"context"
	"encoding/json"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/audit"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
	"github.com/elder-platform/elder/components/core/internal/domain/entity"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
	"github.com/elder-platform/elder/components/core/internal/domain/issue"
	"github.com/elder-platform/elder/components/core/internal/domain/organization"
	"github.com/elder-platform/elder/components/core/internal/domain/resourcerole"
	"github.com/elder-platform/elder/components/core/internal/domain/tenant"
	"github.com/elder-platform/elder/components/core/internal/services/command"
	"github.com/elder-platform/elder/components/core/internal/services/query"
)

// listResult is what every listFunc returns before it's re-marshaled into
// a Response; items are marshaled individually so Response.Items stays a
// slice of json.RawMessage regardless of the concrete element type.
type listResult struct {
	items []any
	total int64
}

type (
	listFunc   func(ctx context.Context, p authz.Principal, req Request) (listResult, error)
	getFunc    func(ctx context.Context, p authz.Principal, req Request) (any, error)
	createFunc func(ctx context.Context, p authz.Principal, req Request) (any, error)
	updateFunc func(ctx context.Context, p authz.Principal, req Request) (any, error)
	deleteFunc func(ctx context.Context, p authz.Principal, req Request) error
)

// resourceOps is the set of generic verbs wired for one resource; a nil
// field means that verb is Unimplemented for this resource, matching
// routes.go exactly (tenants have no Delete, dependencies have no Update,
// identities have no Delete, resource roles have no Get/Update, issues
// have no Delete).
type resourceOps struct {
	list   listFunc
	get    getFunc
	create createFunc
	update updateFunc
	delete deleteFunc
}

const defaultPerPage = 50

func pageParams(req Request) (int, int) {
	page, perPage := req.Page, req.PerPage
	if page <= 0 {
		page = 1
	}

	if perPage <= 0 {
		perPage = defaultPerPage
	}

	return page, perPage
}

func toAnySlice[T any](items []T) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}

	return out
}

// buildRegistry wires one resourceOps entry per resource name the generic
// RPC catalog serves, in exactly the shape routes.go exposes over REST
// (spec §6). Groups and on-call are bespoke multi-step workflows with no
// REST CRUD equivalent, so they are deliberately absent here and answer
// Unimplemented through the same nil-field path as a missing verb.
func buildRegistry(cmd *command.UseCase, qry *query.UseCase) map[string]resourceOps {
	return map[string]resourceOps{
		"tenant": {
			create: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in tenant.CreateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.CreateTenant(ctx, p, in)
			},
			get: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				return qry.GetTenant(ctx, p, req.ID)
			},
			list: func(ctx context.Context, p authz.Principal, req Request) (listResult, error) {
				page, perPage := pageParams(req)

				items, total, err := qry.ListTenants(ctx, p, page, perPage)
				if err != nil {
					return listResult{}, err
				}

				return listResult{items: toAnySlice(items), total: total}, nil
			},
			update: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in tenant.UpdateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.UpdateTenant(ctx, p, req.ID, in)
			},
		},
		"organization": {
			create: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in organization.CreateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.CreateOrganization(ctx, p, req.TenantID, in)
			},
			get: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				return qry.GetOrganization(ctx, p, req.TenantID, req.ID)
			},
			list: func(ctx context.Context, p authz.Principal, req Request) (listResult, error) {
				page, perPage := pageParams(req)

				items, total, err := qry.ListOrganizations(ctx, p, req.TenantID, page, perPage)
				if err != nil {
					return listResult{}, err
				}

				return listResult{items: toAnySlice(items), total: total}, nil
			},
			update: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in organization.UpdateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.UpdateOrganization(ctx, p, req.TenantID, req.ID, in)
			},
			delete: func(ctx context.Context, p authz.Principal, req Request) error {
				return cmd.DeleteOrganization(ctx, p, req.TenantID, req.ID)
			},
		},
		"entity": {
			create: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in entity.CreateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.CreateEntity(ctx, p, req.TenantID, in)
			},
			get: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				return qry.GetEntity(ctx, p, req.TenantID, req.ID)
			},
			list: func(ctx context.Context, p authz.Principal, req Request) (listResult, error) {
				page, perPage := pageParams(req)

				filter := entity.Filter{
					OrganizationID: req.Filter["organization_id"],
					EntityType:     entity.Type(req.Filter["entity_type"]),
					Tag:            req.Filter["tag"],
				}

				items, total, err := qry.ListEntities(ctx, p, req.TenantID, filter, page, perPage)
				if err != nil {
					return listResult{}, err
				}

				return listResult{items: toAnySlice(items), total: total}, nil
			},
			update: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in entity.UpdateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.UpdateEntity(ctx, p, req.TenantID, req.ID, in)
			},
			delete: func(ctx context.Context, p authz.Principal, req Request) error {
				return cmd.DeleteEntity(ctx, p, req.TenantID, req.ID)
			},
		},
		"dependency": {
			create: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in dependency.CreateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.CreateDependency(ctx, p, req.TenantID, in)
			},
			get: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				return qry.GetDependency(ctx, p, req.TenantID, req.ID)
			},
			list: func(ctx context.Context, p authz.Principal, req Request) (listResult, error) {
				items, err := qry.ListDependencies(ctx, p, req.TenantID)
				if err != nil {
					return listResult{}, err
				}

				return listResult{items: toAnySlice(items), total: int64(len(items))}, nil
			},
			delete: func(ctx context.Context, p authz.Principal, req Request) error {
				return cmd.DeleteDependency(ctx, p, req.TenantID, req.ID)
			},
		},
		"identity": {
			create: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in identity.CreateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.CreateIdentity(ctx, p, req.TenantID, in)
			},
			get: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				return qry.GetIdentity(ctx, p, req.TenantID, req.ID)
			},
			list: func(ctx context.Context, p authz.Principal, req Request) (listResult, error) {
				page, perPage := pageParams(req)

				items, total, err := qry.ListIdentities(ctx, p, req.TenantID, page, perPage)
				if err != nil {
					return listResult{}, err
				}

				return listResult{items: toAnySlice(items), total: total}, nil
			},
			update: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in identity.UpdateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.UpdateIdentity(ctx, p, req.TenantID, req.ID, in)
			},
		},
		"resource_role": {
			create: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in resourcerole.CreateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.GrantResourceRole(ctx, p, req.TenantID, in)
			},
			list: func(ctx context.Context, p authz.Principal, req Request) (listResult, error) {
				if identityID := req.Filter["identity_id"]; identityID != "" {
					items, err := qry.ListResourceRolesByIdentity(ctx, p, req.TenantID, identityID)
					if err != nil {
						return listResult{}, err
					}

					return listResult{items: toAnySlice(items), total: int64(len(items))}, nil
				}

				scopeType := resourcerole.ScopeType(req.Filter["scope_type"])
				scopeID := req.Filter["scope_id"]

				items, err := qry.ListResourceRolesByScope(ctx, p, req.TenantID, scopeType, scopeID)
				if err != nil {
					return listResult{}, err
				}

				return listResult{items: toAnySlice(items), total: int64(len(items))}, nil
			},
			delete: func(ctx context.Context, p authz.Principal, req Request) error {
				return cmd.RevokeResourceRole(ctx, p, req.TenantID, req.ID)
			},
		},
		"issue": {
			create: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in issue.CreateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.CreateIssue(ctx, p, req.TenantID, in)
			},
			get: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				return qry.GetIssue(ctx, p, req.TenantID, req.ID)
			},
			list: func(ctx context.Context, p authz.Principal, req Request) (listResult, error) {
				page, perPage := pageParams(req)

				status := issue.Status(req.Filter["status"])
				assigneeID := req.Filter["assignee_id"]

				items, total, err := qry.ListIssues(ctx, p, req.TenantID, status, assigneeID, page, perPage)
				if err != nil {
					return listResult{}, err
				}

				return listResult{items: toAnySlice(items), total: total}, nil
			},
			update: func(ctx context.Context, p authz.Principal, req Request) (any, error) {
				var in issue.UpdateInput
				if err := json.Unmarshal(req.Body, &in); err != nil {
					return nil, common.ValidationError{Title: "Malformed Body", Message: err.Error()}
				}

				return cmd.UpdateIssue(ctx, p, req.TenantID, req.ID, in)
			},
		},
		"audit": {
			list: func(ctx context.Context, p authz.Principal, req Request) (listResult, error) {
				page, perPage := pageParams(req)

				filter := audit.Filter{
					TenantID:     req.TenantID,
					PrincipalID:  req.Filter["principal_id"],
					ResourceType: req.Filter["resource_type"],
					ResourceID:   req.Filter["resource_id"],
					Action:       req.Filter["action"],
				}

				items, total, err := qry.ListAuditRecords(ctx, p, filter, page, perPage)
				if err != nil {
					return listResult{}, err
				}

				return listResult{items: toAnySlice(items), total: total}, nil
			},
		},
	}
}
