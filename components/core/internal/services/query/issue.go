package query

import (
	"context"

	"github.com/elder-platform/elder/common/constant"
	"github.com/elder-platform/elder/components/core/internal/authz"
	"github.com/elder-platform/elder/components/core/internal/domain/issue"
)

// GetIssue fetches a single issue by internal id.
func (uc *UseCase) GetIssue(ctx context.Context, p authz.Principal, tenantID, id string) (*issue.Issue, error) {
	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionIssueRead,
		authz.Resource{TenantID: tenantID, ResourceID: id, ResourceType: "issue"}, nil,
		func(ctx context.Context) (any, error) {
			return uc.IssueRepo.Find(ctx, tenantID, id)
		})
	if err != nil {
		return nil, err
	}

	return out.(*issue.Issue), nil
}

// ListIssues returns a page of tenantID's issues filtered by status and
// assignee (zero values skip the filter).
func (uc *UseCase) ListIssues(ctx context.Context, p authz.Principal, tenantID string, status issue.Status, assigneeID string, page, perPage int) ([]*issue.Issue, int64, error) {
	res := authz.Resource{TenantID: tenantID, ResourceType: "issue"}

	type result struct {
		items []*issue.Issue
		total int64
	}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionIssueRead, res, nil, func(ctx context.Context) (any, error) {
		items, total, err := uc.IssueRepo.FindAll(ctx, tenantID, status, assigneeID, page, perPage)
		if err != nil {
			return nil, err
		}

		return result{items: items, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	r := out.(result)

	return r.items, r.total, nil
}

// ListIssueComments returns issueID's comments in insertion order.
func (uc *UseCase) ListIssueComments(ctx context.Context, p authz.Principal, tenantID, issueID string) ([]*issue.Comment, error) {
	res := authz.Resource{TenantID: tenantID, ResourceID: issueID, ResourceType: "issue"}

	out, err := uc.Pipeline.Query(ctx, tenantID, p, constant.ActionIssueRead, res, nil, func(ctx context.Context) (any, error) {
		return uc.IssueRepo.ListComments(ctx, issueID)
	})
	if err != nil {
		return nil, err
	}

	return out.([]*issue.Comment), nil
}
