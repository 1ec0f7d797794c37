// Package command implements every mutating operation exposed by
// ApiSurface, each routed through Pipeline.Mutate so validation,
// authorization, the transactional write, audit, and cache invalidation
// run in the fixed sequence spec §4.7 requires.
package command

import (
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/audit"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/dependency"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/entity"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/group"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/identity"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/issue"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/oncall"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/organization"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/resourcerole"
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/tenant"
	"github.com/elder-platform/elder/components/core/internal/graph"
	"github.com/elder-platform/elder/components/core/internal/groupworkflow"
	"github.com/elder-platform/elder/components/core/internal/idallocator"
	"github.com/elder-platform/elder/components/core/internal/oncallresolver"
	"github.com/elder-platform/elder/components/core/internal/pipeline"
)

// UseCase aggregates the repositories, domain engines, and Pipeline every
// mutating handler needs.
type UseCase struct {
	// Pipeline runs the fixed validate/authorize/mutate/audit/invalidate
	// sequence every command below hands a MutationRequest to.
	Pipeline *pipeline.Pipeline

	// IDs mints and resolves Village-IDs (spec §4.2).
	IDs *idallocator.Allocator

	// Graph serves cached per-tenant dependency-graph snapshots and is
	// invalidated whenever a command changes organization or entity
	// topology.
	Graph *graph.Engine

	// OnCall runs rotation/shift/override resolution reads that accompany
	// on-call writes (e.g. validating an override window before insert).
	OnCall *oncallresolver.Resolver

	// Groups runs the access-request state machine (spec §4.6).
	Groups *groupworkflow.Workflow

	TenantRepo       *tenant.Repository
	OrganizationRepo *organization.Repository
	EntityRepo       *entity.Repository
	DependencyRepo   *dependency.Repository
	IdentityRepo     *identity.Repository
	ResourceRoleRepo *resourcerole.Repository
	IssueRepo        *issue.Repository
	OnCallRepo       *oncall.Repository
	GroupRepo        *group.Repository
	AuditRepo        *audit.Repository
}
