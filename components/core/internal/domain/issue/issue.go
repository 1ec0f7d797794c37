// Package issue models tracked items, optionally linked to entities and
// labeled, with append-only comments.
package issue

import (
	"context"
	"time"
)

// Status is an Issue's lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusReopened   Status = "reopened"
)

// Issue is a tracked item, optionally scoped to an organization.
type Issue struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	OrganizationID *string   `json:"organizationId"`
	Title          string    `json:"title"`
	Status         Status    `json:"status"`
	Priority       int       `json:"priority"`
	Severity       int       `json:"severity"`
	AssigneeID     *string   `json:"assigneeId"`
	IsIncident     bool      `json:"isIncident"`
	Labels         []string  `json:"labels,omitempty"`
	LinkedEntities []string  `json:"linkedEntities,omitempty"`
	Revision       int64     `json:"revision"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Comment is an append-only child of an Issue.
type Comment struct {
	ID         string    `json:"id"`
	IssueID    string    `json:"issueId"`
	AuthorID   string    `json:"authorId"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateInput is the payload accepted by the issue creation endpoint.
type CreateInput struct {
	OrganizationID *string  `json:"organizationId" validate:"omitempty,uuid"`
	Title          string   `json:"title" validate:"required,max=512"`
	Priority       int      `json:"priority" validate:"min=0,max=5"`
	Severity       int      `json:"severity" validate:"min=0,max=5"`
	AssigneeID     *string  `json:"assigneeId" validate:"omitempty,uuid"`
	IsIncident     bool     `json:"isIncident"`
	Labels         []string `json:"labels" validate:"omitempty,dive,max=64"`
	LinkedEntities []string `json:"linkedEntities" validate:"omitempty,dive,uuid"`
}

// UpdateInput is the payload accepted by the issue update endpoint.
type UpdateInput struct {
	Status     *Status  `json:"status" validate:"omitempty,oneof=open in_progress resolved closed reopened"`
	Priority   *int     `json:"priority" validate:"omitempty,min=0,max=5"`
	Severity   *int     `json:"severity" validate:"omitempty,min=0,max=5"`
	AssigneeID *string  `json:"assigneeId" validate:"omitempty,uuid"`
	Labels     []string `json:"labels" validate:"omitempty,dive,max=64"`
	Revision   int64    `json:"revision" validate:"required"`
}

// Repository persists Issue rows and their comments.
//
//go:generate mockgen --destination=../../gen/mock/issue/issue_mock.go --package=mock . Repository
type Repository interface {
	Create(ctx context.Context, i *Issue) (*Issue, error)
	Find(ctx context.Context, tenantID, id string) (*Issue, error)
	FindAll(ctx context.Context, tenantID string, status Status, assigneeID string, page, perPage int) ([]*Issue, int64, error)
	UpdateIfRevision(ctx context.Context, tenantID, id string, revision int64, i *Issue) (*Issue, error)
	AddComment(ctx context.Context, c *Comment) (*Comment, error)
	ListComments(ctx context.Context, issueID string) ([]*Comment, error)
}
