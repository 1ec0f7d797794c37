package in

import (
	"github.com/gofiber/fiber/v2"

	httputils "github.com/elder-platform/elder/common/net/http"
	"github.com/elder-platform/elder/components/core/internal/domain/issue"
)

// CreateIssue inserts a new tracked item.
//
//	@Summary	Create an Issue
//	@Tags		Issues
//	@Router		/v1/tenants/{tenant_id}/issues [post]
func (h *Handler) CreateIssue(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	i, err := h.Command.CreateIssue(ctx, principal, c.Params("tenant_id"), *p.(*issue.CreateInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(i)
}

// UpdateIssue applies a CAS update to an issue's mutable fields.
//
//	@Summary	Update an Issue
//	@Tags		Issues
//	@Router		/v1/tenants/{tenant_id}/issues/{id} [patch]
func (h *Handler) UpdateIssue(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	i, err := h.Command.UpdateIssue(ctx, principal, c.Params("tenant_id"), c.Params("id"), *p.(*issue.UpdateInput))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(i)
}

// commentInput is the payload accepted by the add-comment endpoint.
type commentInput struct {
	Body string `json:"body" validate:"required,max=8192"`
}

// AddIssueComment appends a comment to an issue, authored by the caller.
//
//	@Summary	Comment on an Issue
//	@Tags		Issues
//	@Router		/v1/tenants/{tenant_id}/issues/{id}/comments [post]
func (h *Handler) AddIssueComment(p any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	body := p.(*commentInput).Body

	comment, err := h.Command.AddIssueComment(ctx, principal, c.Params("tenant_id"), c.Params("id"), principal.IdentityID, body)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetIssue retrieves a single issue by id.
//
//	@Summary	Get an Issue
//	@Tags		Issues
//	@Router		/v1/tenants/{tenant_id}/issues/{id} [get]
func (h *Handler) GetIssue(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	i, err := h.Query.GetIssue(ctx, principal, c.Params("tenant_id"), c.Params("id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(i)
}

// ListIssues returns a page of tenantID's issues, filtered by ?status and
// ?assignee_id.
//
//	@Summary	List Issues
//	@Tags		Issues
//	@Router		/v1/tenants/{tenant_id}/issues [get]
func (h *Handler) ListIssues(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	params, err := httputils.ParsePageParams(c)
	if err != nil {
		return httputils.WithError(c, err)
	}

	status := issue.Status(c.Query("status"))
	assigneeID := c.Query("assignee_id")

	items, total, err := h.Query.ListIssues(ctx, principal, c.Params("tenant_id"), status, assigneeID, params.Page, params.PerPage)
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(httputils.NewPagination(items, int(total), params.Page, params.PerPage))
}

// ListIssueComments returns an issue's comments in insertion order.
//
//	@Summary	List Issue Comments
//	@Tags		Issues
//	@Router		/v1/tenants/{tenant_id}/issues/{id}/comments [get]
func (h *Handler) ListIssueComments(c *fiber.Ctx) error {
	ctx := c.UserContext()

	principal, err := principalFrom(ctx, h.Command.IdentityRepo)
	if err != nil {
		return httputils.WithError(c, err)
	}

	items, err := h.Query.ListIssueComments(ctx, principal, c.Params("tenant_id"), c.Params("id"))
	if err != nil {
		return httputils.WithError(c, err)
	}

	return c.JSON(items)
}
