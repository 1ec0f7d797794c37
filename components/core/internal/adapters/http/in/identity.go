package in

import (
	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/identity"
)

// CreateIdentity mints a Village-ID and provisions a new principal.
//
//	@Summary	Create an Identity
//	@Tags		Identities
//	@Router		/v1/tenants/{tenant_id}/identities [post]
func (h *Handler) CreateIdentity(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	i, err := h.Command.CreateIdentity(ctx, principal, c.Params("tenant_id"), *p.(*identity.CreateInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(i)
}

// UpdateIdentity applies a CAS update to an identity's role/active/MFA flags.
//
//	@Summary	Update an Identity
//	@Tags		Identities
//	@Router		/v1/tenants/{tenant_id}/identities/{id} [patch]
func (h *Handler) UpdateIdentity(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	i, err := h.Command.UpdateIdentity(ctx, principal, c.Params("tenant_id"), c.Params("id"), *p.(*identity.UpdateInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(i)
}

// GetIdentity retrieves a single identity by id.
//
//	@Summary	Get an Identity
//	@Tags		Identities
//	@Router		/v1/tenants/{tenant_id}/identities/{id} [get]
func (h *Handler) GetIdentity(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	i, err := h.Query.GetIdentity(ctx, principal, c.Params("tenant_id"), c.Params("id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(i)
}

// ListIdentities returns a page of tenantID's identities, or a single
// identity resolved by ?username.
//
//	@Summary	List Identities
//	@Tags		Identities
//	@Router		/v1/tenants/{tenant_id}/identities [get]
func (h *Handler) ListIdentities(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	tenantID := c.Params("tenant_id")

	if username := c.Query("username"); username != "" {
		i, err := h.Query.FindIdentityByUsername(ctx, principal, tenantID, username)
		if err != nil {
			return httputils.WithError(c, err)
		}

		return c.JSON(i)
	}

	params, err := httputils.ParsePageParams(c)
	if err != nil {
		return httputils.WithError(c, err)
	}

	items, total, err := h.Query.ListIdentities(ctx, principal, tenantID, params.Page, params.PerPage)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(httputils.NewPagination(items, int(total), params.Page, params.PerPage))
}
