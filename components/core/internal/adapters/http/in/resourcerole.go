package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/elder-platform/elder/common"
	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/resourcerole"
)

// GrantResourceRole attaches a role grant to an identity at a scope.
//
//	@Summary	Grant a Resource Role
//	@Tags		ResourceRoles
//	@Router		/v1/tenants/{tenant_id}/resource-roles [post]
func (h *Handler) GrantResourceRole(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	r, err := h.Command.GrantResourceRole(ctx, principal, c.Params("tenant_id"), *p.(*resourcerole.CreateInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(r)
}

// RevokeResourceRole removes a role grant.
//
//	@Summary	Revoke a Resource Role
//	@Tags		ResourceRoles
//	@Router		/v1/tenants/{tenant_id}/resource-roles/{id} [delete]
func (h *Handler) RevokeResourceRole(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	if err := h.Command.RevokeResourceRole(ctx, principal, c.Params("tenant_id"), c.Params("id")); err != nil {
		return httputils.WithError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListResourceRoles returns every grant held by ?identity_id or attached to
// ?scope_type and ?scope_id.
//
//	@Summary	List Resource Roles
//	@Tags		ResourceRoles
//	@Router		/v1/tenants/{tenant_id}/resource-roles [get]
func (h *Handler) ListResourceRoles(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	tenantID := c.Params("tenant_id")

	if identityID := c.Query("identity_id"); identityID != "" {
		items, err := h.Query.ListResourceRolesByIdentity(ctx, principal, tenantID, identityID)
		if err != nil {
			return httputils.WithError(c, err)
		}

		return c.JSON(items)
	}

	scopeType := resourcerole.ScopeType(c.Query("scope_type"))
	scopeID := c.Query("scope_id")

	if scopeType == "" || scopeID == "" {
		return httputils.WithError(c, common.ValidationError{
			Title:   "Invalid Query Parameters",
			Message: "either identity_id, or both scope_type and scope_id, must be set",
		})
	}

	items, err := h.Query.ListResourceRolesByScope(ctx, principal, tenantID, scopeType, scopeID)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(items)
}
