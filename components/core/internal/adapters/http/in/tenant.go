package in

import (
	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/tenant"
)

// CreateTenant provisions a new tenant and mints its village code.
//
//	@Summary	Create a Tenant
//	@Tags		Tenants
//	@Router		/v1/tenants [post]
func (h *Handler) CreateTenant(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	t, err := h.Command.CreateTenant(ctx, principal, *p.(*tenant.CreateInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(t)
}

// UpdateTenant applies a CAS update to a tenant's name/active flag.
//
//	@Summary	Update a Tenant
//	@Tags		Tenants
//	@Router		/v1/tenants/{id} [patch]
func (h *Handler) UpdateTenant(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	t, err := h.Command.UpdateTenant(ctx, principal, c.Params("id"), *p.(*tenant.UpdateInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(t)
}

// GetTenant retrieves a single tenant by id.
//
//	@Summary	Get a Tenant
//	@Tags		Tenants
//	@Router		/v1/tenants/{id} [get]
func (h *Handler) GetTenant(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	t, err := h.Query.GetTenant(ctx, principal, c.Params("id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(t)
}

// ListTenants returns a page of every tenant in the portal.
//
//	@Summary	List Tenants
//	@Tags		Tenants
//	@Router		/v1/tenants [get]
func (h *Handler) ListTenants(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	params, err := httputils.ParsePageParams(c)
	if err != nil {
		return httputils.WithError(c, err)
	}

	items, total, err := h.Query.ListTenants(ctx, principal, params.Page, params.PerPage)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(httputils.NewPagination(items, int(total), params.Page, params.PerPage))
}
