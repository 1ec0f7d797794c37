package in

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/elder-platform/elder/common"
	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/oncall"
)

// CreateRotation registers a new on-call rotation for a scope.
//
//	@Summary	Create an On-Call Rotation
//	@Tags		OnCall
//	@Router		/v1/tenants/{tenant_id}/on-call/rotations [post]
func (h *Handler) CreateRotation(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	r, err := h.Command.CreateRotation(ctx, principal, c.Params("tenant_id"), *p.(*oncall.CreateRotationInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(r)
}

// AddShift appends an explicit shift to a rotation.
//
//	@Summary	Add an On-Call Shift
//	@Tags		OnCall
//	@Router		/v1/tenants/{tenant_id}/on-call/rotations/{rotation_id}/shifts [post]
func (h *Handler) AddShift(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	s, err := h.Command.AddShift(ctx, principal, c.Params("tenant_id"), c.Params("rotation_id"), *p.(*oncall.CreateShiftInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(s)
}

// CreateOverride installs a temporary override for a scope.
//
//	@Summary	Create an On-Call Override
//	@Tags		OnCall
//	@Router		/v1/tenants/{tenant_id}/on-call/{scope_type}/{scope_id}/overrides [post]
func (h *Handler) CreateOverride(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	scopeType := oncall.ScopeType(c.Params("scope_type"))
	scopeID := c.Params("scope_id")

	o, err := h.Command.CreateOverride(ctx, principal, c.Params("tenant_id"), *p.(*oncall.CreateOverrideInput), scopeType, scopeID)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(o)
}

// CurrentOnCall resolves who is on call for a scope right now, or at ?at.
//
//	@Summary	Get Current On-Call
//	@Tags		OnCall
//	@Router		/v1/tenants/{tenant_id}/on-call/{scope_type}/{scope_id}/current [get]
func (h *Handler) CurrentOnCall(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	instant := time.Now()

	if at := c.Query("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return httputils.WithError(c, common.ValidationError{Title: "Invalid Parameter", Message: "at must be RFC3339", Err: err})
		}

		instant = parsed
	}

	scopeType := oncall.ScopeType(c.Params("scope_type"))
	scopeID := c.Params("scope_id")

	current, err := h.Query.CurrentOnCall(ctx, principal, c.Params("tenant_id"), scopeType, scopeID, instant)
	if err != nil {
		return httputils.WithError(c, err)
	}

	if current == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "no one is on call for this scope at this instant"})
	}

	return c.JSON(current)
}

// WhoIsOnCallBetween partitions [from, to) into on-call segments for a scope.
//
//	@Summary	List On-Call Segments
//	@Tags		OnCall
//	@Router		/v1/tenants/{tenant_id}/on-call/{scope_type}/{scope_id}/segments [get]
func (h *Handler) WhoIsOnCallBetween(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return httputils.WithError(c, common.ValidationError{Title: "Invalid Parameter", Message: "from must be RFC3339", Err: err})
	}

	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return httputils.WithError(c, common.ValidationError{Title: "Invalid Parameter", Message: "to must be RFC3339", Err: err})
	}

	scopeType := oncall.ScopeType(c.Params("scope_type"))
	scopeID := c.Params("scope_id")

	segments, err := h.Query.WhoIsOnCallBetween(ctx, principal, c.Params("tenant_id"), scopeType, scopeID, from, to)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(segments)
}

// ListRotations returns a scope's configured rotations.
//
//	@Summary	List On-Call Rotations
//	@Tags		OnCall
//	@Router		/v1/tenants/{tenant_id}/on-call/{scope_type}/{scope_id}/rotations [get]
func (h *Handler) ListRotations(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	scopeType := oncall.ScopeType(c.Params("scope_type"))
	scopeID := c.Params("scope_id")

	items, err := h.Query.ListRotations(ctx, principal, c.Params("tenant_id"), scopeType, scopeID)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(items)
}
