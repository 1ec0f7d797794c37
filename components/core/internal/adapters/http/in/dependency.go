package in

import (
	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
)

// CreateDependency adds a directed edge between two entities.
//
//	@Summary	Create a Dependency
//	@Tags		Dependencies
//	@Router		/v1/tenants/{tenant_id}/dependencies [post]
func (h *Handler) CreateDependency(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	d, err := h.Command.CreateDependency(ctx, principal, c.Params("tenant_id"), *p.(*dependency.CreateInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(d)
}

// DeleteDependency removes a dependency edge.
//
//	@Summary	Delete a Dependency
//	@Tags		Dependencies
//	@Router		/v1/tenants/{tenant_id}/dependencies/{id} [delete]
func (h *Handler) DeleteDependency(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	if err := h.Command.DeleteDependency(ctx, principal, c.Params("tenant_id"), c.Params("id")); err != nil {
		return httputils.WithError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetDependency retrieves a single dependency edge by id.
//
//	@Summary	Get a Dependency
//	@Tags		Dependencies
//	@Router		/v1/tenants/{tenant_id}/dependencies/{id} [get]
func (h *Handler) GetDependency(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	d, err := h.Query.GetDependency(ctx, principal, c.Params("tenant_id"), c.Params("id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(d)
}

// ListDependencies returns every dependency edge in the tenant.
//
//	@Summary	List Dependencies
//	@Tags		Dependencies
//	@Router		/v1/tenants/{tenant_id}/dependencies [get]
func (h *Handler) ListDependencies(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	items, err := h.Query.ListDependencies(ctx, principal, c.Params("tenant_id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(items)
}
