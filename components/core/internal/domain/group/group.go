// Package group models membership groups, their pending access requests,
// and the approval records that drive the GroupWorkflow state machine.
package group

import (
	"context"
	"time"
)

// ApprovalMode selects how owner decisions aggregate into an outcome.
type ApprovalMode string

const (
	ApprovalAny       ApprovalMode = "any"
	ApprovalAll       ApprovalMode = "all"
	ApprovalThreshold ApprovalMode = "threshold"
)

// Provider names the identity source a Group is linked to.
type Provider string

const (
	ProviderInternal Provider = "internal"
	ProviderLDAP     Provider = "ldap"
	ProviderOkta     Provider = "okta"
)

// Group is a membership group with configurable approval aggregation.
type Group struct {
	ID                string       `json:"id"`
	TenantID          string       `json:"tenantId"`
	Name              string       `json:"name"`
	OwnerIdentityID   string       `json:"ownerIdentityId"`
	ApprovalMode      ApprovalMode `json:"approvalMode"`
	ApprovalThreshold int          `json:"approvalThreshold"`
	Provider          Provider     `json:"provider"`
	SyncEnabled       bool         `json:"syncEnabled"`
	Revision          int64        `json:"revision"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// Member is a resolved membership row, created when an AccessRequest is approved.
type Member struct {
	GroupID    string     `json:"groupId"`
	IdentityID string     `json:"identityId"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// RequestState is an AccessRequest's lifecycle state.
type RequestState string

const (
	RequestPending  RequestState = "pending"
	RequestApproved RequestState = "approved"
	RequestDenied   RequestState = "denied"
	RequestExpired  RequestState = "expired"
	RequestRevoked  RequestState = "revoked"
)

// Decision is one owner's vote on an AccessRequest.
type Decision struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"requestId"`
	OwnerID     string    `json:"ownerId"`
	Approve     bool      `json:"approve"`
	DecidedAt   time.Time `json:"decidedAt"`
}

// AccessRequest is a pending or resolved membership request.
type AccessRequest struct {
	ID            string       `json:"id"`
	TenantID      string       `json:"tenantId"`
	GroupID       string       `json:"groupId"`
	RequesterID   string       `json:"requesterId"`
	Reason        string       `json:"reason"`
	State         RequestState `json:"state"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
	Revision      int64        `json:"revision"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// CreateGroupInput is the payload accepted by the group creation endpoint.
type CreateGroupInput struct {
	Name              string       `json:"name" validate:"required,max=256"`
	OwnerIdentityID   string       `json:"ownerIdentityId" validate:"required,uuid"`
	ApprovalMode      ApprovalMode `json:"approvalMode" validate:"required,oneof=any all threshold"`
	ApprovalThreshold int          `json:"approvalThreshold" validate:"required_if=ApprovalMode threshold,min=1"`
	Provider          Provider     `json:"provider" validate:"required,oneof=internal ldap okta"`
	SyncEnabled       bool         `json:"syncEnabled"`
}

// CreateAccessRequestInput is the payload accepted by the access-request endpoint.
type CreateAccessRequestInput struct {
	RequesterID string `json:"requesterId" validate:"required,uuid"`
	Reason      string `json:"reason" validate:"max=1024"`
}

// DecideInput is the payload accepted by the approve/deny endpoint.
type DecideInput struct {
	OwnerID string `json:"ownerId" validate:"required,uuid"`
	Approve bool   `json:"approve"`
}

// Repository persists groups, owners, members, requests, and decisions.
//
//go:generate mockgen --destination=../../gen/mock/group/group_mock.go --package=mock . Repository
type Repository interface {
	CreateGroup(ctx context.Context, g *Group) (*Group, error)
	FindGroup(ctx context.Context, tenantID, id string) (*Group, error)
	Owners(ctx context.Context, groupID string) ([]string, error)

	CreateAccessRequest(ctx context.Context, r *AccessRequest) (*AccessRequest, error)
	FindAccessRequest(ctx context.Context, tenantID, id string) (*AccessRequest, error)
	UpdateRequestState(ctx context.Context, id string, revision int64, state RequestState) (*AccessRequest, error)

	RecordDecision(ctx context.Context, d *Decision) (*Decision, error)
	Decisions(ctx context.Context, requestID string) ([]*Decision, error)

	AddMember(ctx context.Context, m *Member) (*Member, error)
	RemoveMember(ctx context.Context, groupID, identityID string) error
	Members(ctx context.Context, groupID string) ([]*Member, error)
	IsMember(ctx context.Context, groupID, identityID string) (bool, error)
}
