package in

import (
	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/common/mlog"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
	"github.com/elder-platform/elder/components/core/internal/domain/entity"
	"github.com/elder-platform/elder/components/core/internal/domain/group"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
	"github.com/elder-platform/elder/components/core/internal/domain/issue"
	"github.com/elder-platform/elder/components/core/internal/domain/oncall"
	"github.com/elder-platform/elder/components/core/internal/domain/organization"
	"github.com/elder-platform/elder/components/core/internal/domain/resourcerole"
	"github.com/elder-platform/elder/components/core/internal/domain/tenant"
)

// NewRouter registers every REST resource named in spec §6 against h,
// wiring the shared middleware stack (telemetry, CORS, correlation id,
// logging, JWT/API-key auth) the way the teacher's component routers do.
func NewRouter(lg mlog.Logger, tl *httputils.TelemetryMiddleware, jwt *httputils.JWTMiddleware, h *Handler) *fiber.App {
	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return httputils.WithError(c, err)
		},
	})

	f.Use(tl.WithTelemetry())
	f.Use(httputils.WithCORS())
	f.Use(httputils.WithCorrelationID())
	f.Use(httputils.WithHTTPLogging(httputils.WithCustomLogger(lg)))

	// Unauthenticated endpoints (spec §6).
	f.Get("/healthz", Healthz)
	f.Get("/v1/lookup/:village_id", h.LookupVillageID)
	f.Get("/r/:village_id", h.RedirectVillageID)

	v1 := f.Group("/v1", jwt.Protect())

	tenants := v1.Group("/tenants")
	tenants.Post("", httputils.WithBody(new(tenant.CreateInput), h.CreateTenant))
	tenants.Get("", h.ListTenants)
	tenants.Get("/:id", h.GetTenant)
	tenants.Patch("/:id", httputils.WithBody(new(tenant.UpdateInput), h.UpdateTenant))

	tenantScoped := tenants.Group("/:tenant_id")

	orgs := tenantScoped.Group("/organizations")
	orgs.Post("", httputils.WithBody(new(organization.CreateInput), h.CreateOrganization))
	orgs.Get("", h.ListOrganizations)
	orgs.Get("/:id", h.GetOrganization)
	orgs.Patch("/:id", httputils.WithBody(new(organization.UpdateInput), h.UpdateOrganization))
	orgs.Delete("/:id", h.DeleteOrganization)
	orgs.Get("/:id/children", h.Children)
	orgs.Get("/:id/hierarchy", h.Hierarchy)

	entities := tenantScoped.Group("/entities")
	entities.Post("", httputils.WithBody(new(entity.CreateInput), h.CreateEntity))
	entities.Get("", h.ListEntities)
	entities.Get("/:id", h.GetEntity)
	entities.Patch("/:id", httputils.WithBody(new(entity.UpdateInput), h.UpdateEntity))
	entities.Delete("/:id", h.DeleteEntity)
	entities.Get("/:id/impact", h.Impact)

	deps := tenantScoped.Group("/dependencies")
	deps.Post("", httputils.WithBody(new(dependency.CreateInput), h.CreateDependency))
	deps.Get("", h.ListDependencies)
	deps.Get("/:id", h.GetDependency)
	deps.Delete("/:id", h.DeleteDependency)

	idents := tenantScoped.Group("/identities")
	idents.Post("", httputils.WithBody(new(identity.CreateInput), h.CreateIdentity))
	idents.Get("", h.ListIdentities)
	idents.Get("/:id", h.GetIdentity)
	idents.Patch("/:id", httputils.WithBody(new(identity.UpdateInput), h.UpdateIdentity))

	roles := tenantScoped.Group("/resource-roles")
	roles.Post("", httputils.WithBody(new(resourcerole.CreateInput), h.GrantResourceRole))
	roles.Get("", h.ListResourceRoles)
	roles.Delete("/:id", h.RevokeResourceRole)

	issues := tenantScoped.Group("/issues")
	issues.Post("", httputils.WithBody(new(issue.CreateInput), h.CreateIssue))
	issues.Get("", h.ListIssues)
	issues.Get("/:id", h.GetIssue)
	issues.Patch("/:id", httputils.WithBody(new(issue.UpdateInput), h.UpdateIssue))
	issues.Post("/:id/comments", httputils.WithBody(new(commentInput), h.AddIssueComment))
	issues.Get("/:id/comments", h.ListIssueComments)

	onCall := tenantScoped.Group("/on-call")
	onCall.Post("/rotations", httputils.WithBody(new(oncall.CreateRotationInput), h.CreateRotation))
	onCall.Post("/rotations/:rotation_id/shifts", httputils.WithBody(new(oncall.CreateShiftInput), h.AddShift))
	onCall.Get("/:scope_type/:scope_id/rotations", h.ListRotations)
	onCall.Get("/:scope_type/:scope_id/current", h.CurrentOnCall)
	onCall.Get("/:scope_type/:scope_id/segments", h.WhoIsOnCallBetween)
	onCall.Post("/:scope_type/:scope_id/overrides", httputils.WithBody(new(oncall.CreateOverrideInput), h.CreateOverride))

	groups := tenantScoped.Group("/groups")
	groups.Post("", httputils.WithBody(new(group.CreateGroupInput), h.CreateGroup))
	groups.Get("/:group_id", h.GetGroup)
	groups.Get("/:group_id/members", h.ListGroupMembers)
	groups.Post("/:group_id/requests", httputils.WithBody(new(group.CreateAccessRequestInput), h.RequestMembership))
	groups.Get("/:group_id/requests/:request_id", h.GetAccessRequest)
	groups.Get("/:group_id/requests/:request_id/decisions", h.ListAccessRequestDecisions)
	groups.Post("/:group_id/requests/:request_id/decide", httputils.WithBody(new(group.DecideInput), h.DecideMembership))
	groups.Post("/:group_id/requests/:request_id/expire", h.ExpireMembership)

	audit := tenantScoped.Group("/audit-logs")
	audit.Get("", h.ListAuditRecords)

	graphGroup := tenantScoped.Group("/graph")
	graphGroup.Get("/path", h.Path)
	graphGroup.Get("/analyze", h.Analyze)
	graphGroup.Get("/network-topology", h.NetworkTopology)

	v1.Post("/audit-logs/purge", httputils.WithBody(new(purgeInput), h.PurgeAuditLog))

	return f
}
