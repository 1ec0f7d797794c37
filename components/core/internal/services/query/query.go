// Package query implements every read-only operation exposed by
// ApiSurface, each routed through Pipeline.Query so schema validation and
// authorization run the same way a mutation would, without opening a
// Store transaction.
package query

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
	"github.com/elder-platform/elder/components/core/internal/adapters/postgres/villageid"
	"github.com/elder-platform/elder/components/core/internal/graph"
	"github.com/elder-platform/elder/components/core/internal/idallocator"
	"github.com/elder-platform/elder/components/core/internal/oncallresolver"
	"github.com/elder-platform/elder/components/core/internal/pipeline"
)

// UseCase aggregates the repositories, domain engines, and Pipeline every
// read handler needs.
type UseCase struct {
	Pipeline *pipeline.Pipeline
	IDs      *idallocator.Allocator
	Graph    *graph.Engine
	OnCall   *oncallresolver.Resolver

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
	VillageIDRepo    *villageid.Repository
}
