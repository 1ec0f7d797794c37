package in

import (
	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/entity"
)

// CreateEntity mints a Village-ID and inserts a new inventory object.
//
//	@Summary	Create an Entity
//	@Tags		Entities
//	@Router		/v1/tenants/{tenant_id}/entities [post]
func (h *Handler) CreateEntity(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	e, err := h.Command.CreateEntity(ctx, principal, c.Params("tenant_id"), *p.(*entity.CreateInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(e)
}

// UpdateEntity applies a CAS update to an entity's mutable fields.
//
//	@Summary	Update an Entity
//	@Tags		Entities
//	@Router		/v1/tenants/{tenant_id}/entities/{id} [patch]
func (h *Handler) UpdateEntity(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	e, err := h.Command.UpdateEntity(ctx, principal, c.Params("tenant_id"), c.Params("id"), *p.(*entity.UpdateInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(e)
}

// DeleteEntity soft-deletes an entity.
//
//	@Summary	Delete an Entity
//	@Tags		Entities
//	@Router		/v1/tenants/{tenant_id}/entities/{id} [delete]
func (h *Handler) DeleteEntity(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	if err := h.Command.DeleteEntity(ctx, principal, c.Params("tenant_id"), c.Params("id")); err != nil {
		return httputils.WithError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetEntity retrieves a single entity by id.
//
//	@Summary	Get an Entity
//	@Tags		Entities
//	@Router		/v1/tenants/{tenant_id}/entities/{id} [get]
func (h *Handler) GetEntity(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	e, err := h.Query.GetEntity(ctx, principal, c.Params("tenant_id"), c.Params("id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(e)
}

// ListEntities returns a page of tenantID's entities, filtered by
// ?organization_id, ?entity_type, and ?tag.
//
//	@Summary	List Entities
//	@Tags		Entities
//	@Router		/v1/tenants/{tenant_id}/entities [get]
func (h *Handler) ListEntities(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	params, err := httputils.ParsePageParams(c)
	if err != nil {
		return httputils.WithError(c, err)
	}

	filter := entity.Filter{
		OrganizationID: c.Query("organization_id"),
		EntityType:     entity.Type(c.Query("entity_type")),
		Tag:            c.Query("tag"),
	}

	items, total, err := h.Query.ListEntities(ctx, principal, c.Params("tenant_id"), filter, params.Page, params.PerPage)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(httputils.NewPagination(items, int(total), params.Page, params.PerPage))
}
