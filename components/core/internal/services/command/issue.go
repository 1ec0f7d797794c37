package command

import (
	"context"
	"time"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/issue"
)

// CreateIssue inserts a new tracked item.
func (uc *UseCase) CreateIssue(ctx context.Context, p authz.Principal, tenantID string, in issue.CreateInput) (*issue.Issue, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "issue"}
	if in.OrganizationID != nil {
		res.OrganizationID = *in.OrganizationID
	}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionIssueWrite, res, in, "Issue", func(ctx context.Context) (before, after any, err error) {
		i := &issue.Issue{
			TenantID:       tenantID,
			OrganizationID: in.OrganizationID,
			Title:          in.Title,
			Status:         issue.StatusOpen,
			Priority:       in.Priority,
			Severity:       in.Severity,
			AssigneeID:     in.AssigneeID,
			IsIncident:     in.IsIncident,
			Labels:         in.Labels,
			LinkedEntities: in.LinkedEntities,
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}

		created, err := uc.IssueRepo.Create(ctx, i)
		if err != nil {
			return nil, nil, err
		}

		createdID = created.ID

		return nil, created, nil
	})
	req.AuditID = func() string { return createdID }

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*issue.Issue), nil
}

// UpdateIssue applies a CAS update to an issue's mutable fields.
func (uc *UseCase) UpdateIssue(ctx context.Context, p authz.Principal, tenantID, id string, in issue.UpdateInput) (*issue.Issue, error) {
	current, err := uc.IssueRepo.Find(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	res := authz.Resource{TenantID: tenantID, ResourceID: id, ResourceType: "issue"}
	if current.OrganizationID != nil {
		res.OrganizationID = *current.OrganizationID
	}

	req := mutationRequest(tenantID, p, constant.ActionIssueWrite, res, in, "Issue", func(ctx context.Context) (before, after any, err error) {
		updated := *current

		if in.Status != nil {
			updated.Status = *in.Status
		}

		if in.Priority != nil {
			updated.Priority = *in.Priority
		}

		if in.Severity != nil {
			updated.Severity = *in.Severity
		}

		if in.AssigneeID != nil {
			updated.AssigneeID = in.AssigneeID
		}

		if in.Labels != nil {
			updated.Labels = in.Labels
		}

		after2, err := uc.IssueRepo.UpdateIfRevision(ctx, tenantID, id, in.Revision, &updated)
		if err != nil {
			return nil, nil, err
		}

		return current, after2, nil
	})
	req.AuditID = func() string { return id }

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*issue.Issue), nil
}

// AddIssueComment appends a comment to an issue.
func (uc *UseCase) AddIssueComment(ctx context.Context, p authz.Principal, tenantID, issueID, authorID, body string) (*issue.Comment, error) {
	current, err := uc.IssueRepo.Find(ctx, tenantID, issueID)
	if err != nil {
		return nil, err
	}

	res := authz.Resource{TenantID: tenantID, ResourceID: issueID, ResourceType: "issue"}
	if current.OrganizationID != nil {
		res.OrganizationID = *current.OrganizationID
	}

	var createdID string

	req := mutationRequest(tenantID, p, constant.ActionIssueWrite, res, nil, "IssueComment", func(ctx context.Context) (before, after any, err error) {
		c := &issue.Comment{
			IssueID:   issueID,
			AuthorID:  authorID,
			Body:      body,
			CreatedAt: time.Now(),
		}

		created, err := uc.IssueRepo.AddComment(ctx, c)
		if err != nil {
			return nil, nil, err
		}

		createdID = created.ID

		return nil, created, nil
	})
	req.AuditID = func() string { return createdID }

	out, err := uc.Pipeline.Mutate(ctx, req)
	if err != nil {
		return nil, err
	}

	return out.(*issue.Comment), nil
}
