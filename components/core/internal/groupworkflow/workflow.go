// Package groupworkflow runs the access-request state machine that
// aggregates owner decisions into Approved/Denied per a group's approval
// mode (spec §4.6).
package groupworkflow

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/common/mrabbitmq"
	"github.com/elder-platform/elder/components/core/internal/domain/group"
)

const groupSyncExchange = "elder.group.sync"

// Workflow runs state transitions for group access requests.
type Workflow struct {
	Repo      group.Repository
	RabbitMQ  *mrabbitmq.RabbitMQConnection
}

// New builds a Workflow backed by repo. rabbit may be nil; sync publish is
// skipped for groups with SyncEnabled=false regardless.
func New(repo group.Repository, rabbit *mrabbitmq.RabbitMQConnection) *Workflow {
	return &Workflow{Repo: repo, RabbitMQ: rabbit}
}

// Request submits a new access request in Pending state.
func (w *Workflow) Request(ctx context.Context, tenantID string, g *group.Group, in group.CreateAccessRequestInput) (*group.AccessRequest, error) {
	req := &group.AccessRequest{
		TenantID:    tenantID,
		GroupID:     g.ID,
		RequesterID: in.RequesterID,
		Reason:      in.Reason,
		State:       group.RequestPending,
	}

	created, err := w.Repo.CreateAccessRequest(ctx, req)
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	return created, nil
}

// Decide records owner's vote on req and applies the aggregation rule for
// g's approval mode, transitioning req's state when the rule resolves
// (spec §4.6). Decisions on an already-resolved request are still
// recorded (spec example 6: "O3's later approval is accepted but state
// unchanged") but never re-trigger a transition.
func (w *Workflow) Decide(ctx context.Context, g *group.Group, req *group.AccessRequest, in group.DecideInput) (*group.AccessRequest, error) {
	if _, err := w.Repo.RecordDecision(ctx, &group.Decision{
		RequestID: req.ID,
		OwnerID:   in.OwnerID,
		Approve:   in.Approve,
		DecidedAt: time.Now(),
	}); err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if req.State != group.RequestPending {
		return req, nil
	}

	owners, err := w.Repo.Owners(ctx, g.ID)
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	decisions, err := w.Repo.Decisions(ctx, req.ID)
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	outcome := aggregate(g, owners, decisions)
	if outcome == group.RequestPending {
		return req, nil
	}

	updated, err := w.Repo.UpdateRequestState(ctx, req.ID, req.Revision, outcome)
	if err != nil {
		return nil, err
	}

	if outcome == group.RequestApproved {
		if _, err := w.Repo.AddMember(ctx, &group.Member{GroupID: g.ID, IdentityID: req.RequesterID, ExpiresAt: req.ExpiresAt}); err != nil {
			return nil, common.InternalServerError{Err: err}
		}

		if err := w.publishSync(ctx, g); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

// Expire transitions req to Expired, removing any membership row it
// granted (spec §4.6 "on Expired, the membership is removed").
func (w *Workflow) Expire(ctx context.Context, g *group.Group, req *group.AccessRequest) (*group.AccessRequest, error) {
	updated, err := w.Repo.UpdateRequestState(ctx, req.ID, req.Revision, group.RequestExpired)
	if err != nil {
		return nil, err
	}

	if req.State == group.RequestApproved {
		if err := w.Repo.RemoveMember(ctx, g.ID, req.RequesterID); err != nil {
			return nil, common.InternalServerError{Err: err}
		}
	}

	return updated, nil
}

// aggregate applies g's ApprovalMode over decisions restricted to current
// owners, returning the resolved RequestState, or RequestPending if the
// rule has not yet resolved (spec §4.6).
func aggregate(g *group.Group, owners []string, decisions []*group.Decision) group.RequestState {
	ownerSet := make(map[string]bool, len(owners))
	for _, o := range owners {
		ownerSet[o] = true
	}

	approved := map[string]bool{}
	denied := false

	for _, d := range decisions {
		if !ownerSet[d.OwnerID] {
			continue
		}

		if d.Approve {
			approved[d.OwnerID] = true
		} else {
			denied = true
		}
	}

	switch g.ApprovalMode {
	case group.ApprovalAny:
		if len(approved) > 0 {
			return group.RequestApproved
		}

		if denied {
			return group.RequestDenied
		}
	case group.ApprovalAll:
		if denied {
			return group.RequestDenied
		}

		if len(owners) > 0 && len(approved) == len(owners) {
			return group.RequestApproved
		}
	case group.ApprovalThreshold:
		if len(approved) >= g.ApprovalThreshold {
			return group.RequestApproved
		}

		deniedCount := 0

		for _, d := range decisions {
			if ownerSet[d.OwnerID] && !d.Approve {
				deniedCount++
			}
		}

		remainingPossible := len(owners) - deniedCount - len(approved)
		if deniedCount > 0 && len(approved)+remainingPossible < g.ApprovalThreshold {
			return group.RequestDenied
		}
	}

	return group.RequestPending
}

// publishSync emits GroupSyncRequested for sync_enabled, non-internal
// groups, at-least-once after the owning state transition commits (spec
// §4.6).
func (w *Workflow) publishSync(ctx context.Context, g *group.Group) error {
	if !g.SyncEnabled || g.Provider == group.ProviderInternal || w.RabbitMQ == nil {
		return nil
	}

	ch, err := w.RabbitMQ.GetChannel(ctx)
	if err != nil {
		return common.TransientError{
			Kind:    common.TransientStorageUnavailable,
			Title:   "Group Sync Publish Failed",
			Message: "failed to connect to rabbitmq",
			Err:     err,
		}
	}

	if ch == nil {
		return nil
	}

	body := []byte(`{"group_id":"` + g.ID + `","tenant_id":"` + g.TenantID + `","provider":"` + string(g.Provider) + `"}`)

	err = ch.PublishWithContext(ctx, groupSyncExchange, "group.sync.requested", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return common.TransientError{
			Kind:    common.TransientStorageUnavailable,
			Title:   "Group Sync Publish Failed",
			Message: "failed to publish GroupSyncRequested",
			Err:     err,
		}
	}

	return nil
}
