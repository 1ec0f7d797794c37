package in

import (
	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/group"
)

// CreateGroup provisions a new membership group.
//
//	@Summary	Create a Group
//	@Tags		Groups
//	@Router		/v1/tenants/{tenant_id}/groups [post]
func (h *Handler) CreateGroup(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	g, err := h.Command.CreateGroup(ctx, principal, c.Params("tenant_id"), *p.(*group.CreateGroupInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(g)
}

// RequestMembership submits a pending access request against a group.
//
//	@Summary	Request Group Membership
//	@Tags		Groups
//	@Router		/v1/tenants/{tenant_id}/groups/{group_id}/requests [post]
func (h *Handler) RequestMembership(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	tenantID := c.Params("tenant_id")

	g, err := h.Command.GroupRepo.FindGroup(ctx, tenantID, c.Params("group_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	req, err := h.Command.RequestMembership(ctx, principal, tenantID, g, *p.(*group.CreateAccessRequestInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(req)
}

// DecideMembership records an owner's vote on a pending access request.
//
//	@Summary	Decide a Group Access Request
//	@Tags		Groups
//	@Router		/v1/tenants/{tenant_id}/groups/{group_id}/requests/{request_id}/decide [post]
func (h *Handler) DecideMembership(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	tenantID := c.Params("tenant_id")

	g, err := h.Command.GroupRepo.FindGroup(ctx, tenantID, c.Params("group_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	accessReq, err := h.Command.GroupRepo.FindAccessRequest(ctx, tenantID, c.Params("request_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	updated, err := h.Command.DecideMembership(ctx, principal, tenantID, g, accessReq, *p.(*group.DecideInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(updated)
}

// ExpireMembership transitions an access request to Expired.
//
//	@Summary	Expire a Group Access Request
//	@Tags		Groups
//	@Router		/v1/tenants/{tenant_id}/groups/{group_id}/requests/{request_id}/expire [post]
func (h *Handler) ExpireMembership(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	tenantID := c.Params("tenant_id")

	g, err := h.Command.GroupRepo.FindGroup(ctx, tenantID, c.Params("group_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	accessReq, err := h.Command.GroupRepo.FindAccessRequest(ctx, tenantID, c.Params("request_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	updated, err := h.Command.ExpireMembership(ctx, principal, tenantID, g, accessReq)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(updated)
}

// GetGroup retrieves a single group by id.
//
//	@Summary	Get a Group
//	@Tags		Groups
//	@Router		/v1/tenants/{tenant_id}/groups/{group_id} [get]
func (h *Handler) GetGroup(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	g, err := h.Query.GetGroup(ctx, principal, c.Params("tenant_id"), c.Params("group_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(g)
}

// GetAccessRequest retrieves a single access request by id.
//
//	@Summary	Get a Group Access Request
//	@Tags		Groups
//	@Router		/v1/tenants/{tenant_id}/groups/{group_id}/requests/{request_id} [get]
func (h *Handler) GetAccessRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	req, err := h.Query.GetAccessRequest(ctx, principal, c.Params("tenant_id"), c.Params("request_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(req)
}

// ListGroupMembers returns a group's current members.
//
//	@Summary	List Group Members
//	@Tags		Groups
//	@Router		/v1/tenants/{tenant_id}/groups/{group_id}/members [get]
func (h *Handler) ListGroupMembers(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	items, err := h.Query.ListGroupMembers(ctx, principal, c.Params("tenant_id"), c.Params("group_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(items)
}

// ListAccessRequestDecisions returns every owner decision recorded against a request.
//
//	@Summary	List Group Access Request Decisions
//	@Tags		Groups
//	@Router		/v1/tenants/{tenant_id}/groups/{group_id}/requests/{request_id}/decisions [get]
func (h *Handler) ListAccessRequestDecisions(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	items, err := h.Query.ListAccessRequestDecisions(ctx, principal, c.Params("tenant_id"), c.Params("request_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(items)
}
