package in

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/elder-platform/elder/common"
	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/audit"
)

// ListAuditRecords returns a page of audit records for the tenant, filtered
// by ?principal_id, ?resource_type, ?resource_id, ?action, ?from, ?to.
//
//	@Summary	List Audit Records
//	@Tags		Audit
//	@Router		/v1/tenants/{tenant_id}/audit-logs [get]
func (h *Handler) ListAuditRecords(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	params, err := httputils.ParsePageParams(c)
	if err != nil {
		return httputils.WithError(c, err)
	}

	filter := audit.Filter{
		TenantID:     c.Params("tenant_id"),
		PrincipalID:  c.Query("principal_id"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Action:       c.Query("action"),
	}

	if from := c.Query("from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return httputils.WithError(c, common.ValidationError{Title: "Invalid Parameter", Message: "from must be RFC3339", Err: err})
		}

		filter.From = parsed
	}

	if to := c.Query("to"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return httputils.WithError(c, common.ValidationError{Title: "Invalid Parameter", Message: "to must be RFC3339", Err: err})
		}

		filter.To = parsed
	}

	items, total, err := h.Query.ListAuditRecords(ctx, principal, filter, params.Page, params.PerPage)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(httputils.NewPagination(items, int(total), params.Page, params.PerPage))
}

// purgeInput is the payload accepted by the audit-purge endpoint.
type purgeInput struct {
	OlderThan time.Time `json:"olderThan" validate:"required"`
}

// PurgeAuditLog deletes audit records older than a given instant, reserved
// for admins (spec §4.8).
//
//	@Summary	Purge Audit Log
//	@Tags		Audit
//	@Router		/v1/audit-logs/purge [post]
func (h *Handler) PurgeAuditLog(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	purged, err := h.Command.PurgeAuditLog(ctx, principal, p.(*purgeInput).OlderThan)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(fiber.Map{"purged": purged})
}
