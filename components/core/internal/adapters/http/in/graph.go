package in

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
	"github.com/elder-platform/elder/components/core/internal/graph"
)

func parseMaxDepth(c *fiber.Ctx, def int) int {
	raw := c.Query("max_depth")
	if raw == "" {
		return def
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}

	return n
}

// Children returns an organization's descendants, direct or full subtree
// with ?recursive=true.
//
//	@Summary	List Organization Children
//	@Tags		Graph
//	@Router		/v1/tenants/{tenant_id}/organizations/{id}/children [get]
func (h *Handler) Children(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	items, err := h.Query.Children(ctx, principal, c.Params("tenant_id"), c.Params("id"), c.QueryBool("recursive"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(items)
}

// Hierarchy returns the root-first path from the tenant's root to an
// organization, including the organization itself.
//
//	@Summary	Get Organization Hierarchy
//	@Tags		Graph
//	@Router		/v1/tenants/{tenant_id}/organizations/{id}/hierarchy [get]
func (h *Handler) Hierarchy(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	items, err := h.Query.Hierarchy(ctx, principal, c.Params("tenant_id"), c.Params("id"), parseMaxDepth(c, 0))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(items)
}

// Impact runs a depth-capped traversal from an entity over the dependency
// graph, in ?direction (downstream, upstream, both; default downstream).
//
//	@Summary	Get Entity Impact
//	@Tags		Graph
//	@Router		/v1/tenants/{tenant_id}/entities/{id}/impact [get]
func (h *Handler) Impact(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	direction := graph.DirectionDownstream

	switch strings.ToLower(c.Query("direction")) {
	case "upstream":
		direction = graph.DirectionUpstream
	case "both":
		direction = graph.DirectionBoth
	}

	items, err := h.Query.Impact(ctx, principal, c.Params("tenant_id"), c.Params("id"), direction, parseMaxDepth(c, 0))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(items)
}

// Path finds the shortest dependency path between two entities, optionally
// restricted to one ?edge_type.
//
//	@Summary	Find Dependency Path
//	@Tags		Graph
//	@Router		/v1/tenants/{tenant_id}/graph/path [get]
func (h *Handler) Path(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	edgeType := dependency.Type(c.Query("edge_type"))

	items, err := h.Query.Path(ctx, principal, c.Params("tenant_id"), c.Query("source"), c.Query("target"), edgeType)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(items)
}

// Analyze computes graph-wide metrics over ?scope (a comma-separated
// entity-id list; the whole tenant when omitted).
//
//	@Summary	Analyze Dependency Graph
//	@Tags		Graph
//	@Router		/v1/tenants/{tenant_id}/graph/analyze [get]
func (h *Handler) Analyze(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	var scope []string
	if raw := c.Query("scope"); raw != "" {
		scope = strings.Split(raw, ",")
	}

	analysis, err := h.Query.Analyze(ctx, principal, c.Params("tenant_id"), scope)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(analysis)
}

// NetworkTopology restricts the graph view to ?entity_ids (comma-separated)
// and their network dependencies.
//
//	@Summary	Get Network Topology
//	@Tags		Graph
//	@Router		/v1/tenants/{tenant_id}/graph/network-topology [get]
func (h *Handler) NetworkTopology(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	var entityIDs []string
	if raw := c.Query("entity_ids"); raw != "" {
		entityIDs = strings.Split(raw, ",")
	}

	topology, err := h.Query.NetworkTopology(ctx, principal, c.Params("tenant_id"), entityIDs)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(topology)
}
