package in

import (
	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/organization"
)

// CreateOrganization creates a new organization tree node.
//
//	@Summary	Create an Organization
//	@Tags		Organizations
//	@Accept		json
//	@Produce	json
//	@Param		organization	body	organization.CreateInput	true	"Organization Input"
//	@Success	201
//	@Router		/v1/tenants/{tenant_id}/organizations [post]
func (h *Handler) CreateOrganization(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	tenantID := c.Params("tenant_id")
	payload := p.(*organization.CreateInput)

	org, err := h.Command.CreateOrganization(ctx, principal, tenantID, *payload)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(org)
}

// UpdateOrganization applies a CAS update, optionally reparenting the node.
//
//	@Summary	Update an Organization
//	@Tags		Organizations
//	@Router		/v1/tenants/{tenant_id}/organizations/{id} [patch]
func (h *Handler) UpdateOrganization(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	tenantID := c.Params("tenant_id")
	id := c.Params("id")
	payload := p.(*organization.UpdateInput)

	org, err := h.Command.UpdateOrganization(ctx, principal, tenantID, id, *payload)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(org)
}

// DeleteOrganization removes a childless organization node.
//
//	@Summary	Delete an Organization
//	@Tags		Organizations
//	@Router		/v1/tenants/{tenant_id}/organizations/{id} [delete]
func (h *Handler) DeleteOrganization(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	if err := h.Command.DeleteOrganization(ctx, principal, c.Params("tenant_id"), c.Params("id")); err != nil {
		return httputils.WithError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetOrganization retrieves a single organization by id.
//
//	@Summary	Get an Organization
//	@Tags		Organizations
//	@Router		/v1/tenants/{tenant_id}/organizations/{id} [get]
func (h *Handler) GetOrganization(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	org, err := h.Query.GetOrganization(ctx, principal, c.Params("tenant_id"), c.Params("id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(org)
}

// ListOrganizations returns a page of tenantID's organizations, or
// parentID's direct children when ?parent_id is set.
//
//	@Summary	List Organizations
//	@Tags		Organizations
//	@Router		/v1/tenants/{tenant_id}/organizations [get]
func (h *Handler) ListOrganizations(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	tenantID := c.Params("tenant_id")

	if parentID := c.Query("parent_id"); parentID != "" || c.QueryBool("roots_only") {
		var parent *string
		if parentID != "" {
			parent = &parentID
		}

		items, err := h.Query.ListOrganizationsByParent(ctx, principal, tenantID, parent)
		if err != nil {
			return httputils.WithError(c, err)
		}

		return c.JSON(items)
	}

	params, err := httputils.ParsePageParams(c)
	if err != nil {
		return httputils.WithError(c, err)
	}

	items, total, err := h.Query.ListOrganizations(ctx, principal, tenantID, params.Page, params.PerPage)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(httputils.NewPagination(items, int(total), params.Page, params.PerPage))
}
