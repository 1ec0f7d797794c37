package groupworkflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elder-platform/elder/components/core/internal/domain/group"
)

// fakeGroupRepo is a hand-rolled in-memory group.Repository; no generated
// mock exists under components/core despite the //go:generate directive.
type fakeGroupRepo struct {
	owners    map[string][]string
	decisions map[string][]*group.Decision
	requests  map[string]*group.AccessRequest
	members   map[string]map[string]*group.Member
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		owners:    map[string][]string{},
		decisions: map[string][]*group.Decision{},
		requests:  map[string]*group.AccessRequest{},
		members:   map[string]map[string]*group.Member{},
	}
}

func (f *fakeGroupRepo) CreateGroup(ctx context.Context, g *group.Group) (*group.Group, error) {
	return g, nil
}
func (f *fakeGroupRepo) FindGroup(ctx context.Context, tenantID, id string) (*group.Group, error) {
	return nil, nil
}
func (f *fakeGroupRepo) Owners(ctx context.Context, groupID string) ([]string, error) {
	return f.owners[groupID], nil
}

func (f *fakeGroupRepo) CreateAccessRequest(ctx context.Context, r *group.AccessRequest) (*group.AccessRequest, error) {
	if r.ID == "" {
		r.ID = "req-1"
	}

	cp := *r
	f.requests[r.ID] = &cp

	return &cp, nil
}

func (f *fakeGroupRepo) FindAccessRequest(ctx context.Context, tenantID, id string) (*group.AccessRequest, error) {
	return f.requests[id], nil
}

func (f *fakeGroupRepo) UpdateRequestState(ctx context.Context, id string, revision int64, state group.RequestState) (*group.AccessRequest, error) {
	req := f.requests[id]
	req.State = state

	return req, nil
}

func (f *fakeGroupRepo) RecordDecision(ctx context.Context, d *group.Decision) (*group.Decision, error) {
	f.decisions[d.RequestID] = append(f.decisions[d.RequestID], d)
	return d, nil
}

func (f *fakeGroupRepo) Decisions(ctx context.Context, requestID string) ([]*group.Decision, error) {
	return f.decisions[requestID], nil
}

func (f *fakeGroupRepo) AddMember(ctx context.Context, m *group.Member) (*group.Member, error) {
	if f.members[m.GroupID] == nil {
		f.members[m.GroupID] = map[string]*group.Member{}
	}

	f.members[m.GroupID][m.IdentityID] = m

	return m, nil
}

func (f *fakeGroupRepo) RemoveMember(ctx context.Context, groupID, identityID string) error {
	delete(f.members[groupID], identityID)
	return nil
}

func (f *fakeGroupRepo) Members(ctx context.Context, groupID string) ([]*group.Member, error) {
	var out []*group.Member
	for _, m := range f.members[groupID] {
		out = append(out, m)
	}

	return out, nil
}

func (f *fakeGroupRepo) IsMember(ctx context.Context, groupID, identityID string) (bool, error) {
	_, ok := f.members[groupID][identityID]
	return ok, nil
}

func TestAggregate_Any(t *testing.T) {
	g := &group.Group{ApprovalMode: group.ApprovalAny}
	owners := []string{"o1", "o2", "o3"}

	assert.Equal(t, group.RequestPending, aggregate(g, owners, nil))

	decisions := []*group.Decision{{OwnerID: "o2", Approve: true}}
	assert.Equal(t, group.RequestApproved, aggregate(g, owners, decisions))

	decisions = []*group.Decision{{OwnerID: "o1", Approve: false}}
	assert.Equal(t, group.RequestDenied, aggregate(g, owners, decisions))
}

func TestAggregate_All(t *testing.T) {
	g := &group.Group{ApprovalMode: group.ApprovalAll}
	owners := []string{"o1", "o2"}

	partial := []*group.Decision{{OwnerID: "o1", Approve: true}}
	assert.Equal(t, group.RequestPending, aggregate(g, owners, partial))

	complete := []*group.Decision{{OwnerID: "o1", Approve: true}, {OwnerID: "o2", Approve: true}}
	assert.Equal(t, group.RequestApproved, aggregate(g, owners, complete))

	oneDenies := []*group.Decision{{OwnerID: "o1", Approve: true}, {OwnerID: "o2", Approve: false}}
	assert.Equal(t, group.RequestDenied, aggregate(g, owners, oneDenies))
}

func TestAggregate_Threshold(t *testing.T) {
	g := &group.Group{ApprovalMode: group.ApprovalThreshold, ApprovalThreshold: 2}
	owners := []string{"o1", "o2", "o3"}

	single := []*group.Decision{{OwnerID: "o1", Approve: true}}
	assert.Equal(t, group.RequestPending, aggregate(g, owners, single))

	met := []*group.Decision{{OwnerID: "o1", Approve: true}, {OwnerID: "o2", Approve: true}}
	assert.Equal(t, group.RequestApproved, aggregate(g, owners, met))

	// O3's later approval after threshold is already met must not matter —
	// exercised at the Workflow.Decide level in
	// TestWorkflow_Decide_LateApprovalAfterResolutionDoesNotRetransition.

	// one denial still leaves enough remaining owners to reach threshold.
	stillPossible := []*group.Decision{{OwnerID: "o1", Approve: false}}
	assert.Equal(t, group.RequestPending, aggregate(g, owners, stillPossible))

	// two denials leave only one owner left, below the threshold of 2.
	impossible := []*group.Decision{{OwnerID: "o1", Approve: false}, {OwnerID: "o2", Approve: false}}
	assert.Equal(t, group.RequestDenied, aggregate(g, owners, impossible))
}

func TestAggregate_IgnoresNonOwnerDecisions(t *testing.T) {
	g := &group.Group{ApprovalMode: group.ApprovalAny}
	owners := []string{"o1"}

	decisions := []*group.Decision{{OwnerID: "not-an-owner", Approve: true}}
	assert.Equal(t, group.RequestPending, aggregate(g, owners, decisions))
}

func TestWorkflow_Request(t *testing.T) {
	repo := newFakeGroupRepo()
	w := New(repo, nil)

	g := &group.Group{ID: "group-1"}
	req, err := w.Request(context.Background(), "tenant-1", g, group.CreateAccessRequestInput{RequesterID: "req-1", Reason: "need access"})

	require.NoError(t, err)
	assert.Equal(t, group.RequestPending, req.State)
	assert.Equal(t, "group-1", req.GroupID)
}

func TestWorkflow_Decide_ApprovesAndAddsMemberOnAnyMode(t *testing.T) {
	repo := newFakeGroupRepo()
	w := New(repo, nil)

	g := &group.Group{ID: "group-1", ApprovalMode: group.ApprovalAny}
	repo.owners["group-1"] = []string{"owner-1"}

	req, err := w.Request(context.Background(), "tenant-1", g, group.CreateAccessRequestInput{RequesterID: "alice"})
	require.NoError(t, err)

	updated, err := w.Decide(context.Background(), g, req, group.DecideInput{OwnerID: "owner-1", Approve: true})
	require.NoError(t, err)
	assert.Equal(t, group.RequestApproved, updated.State)

	isMember, err := repo.IsMember(context.Background(), "group-1", "alice")
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestWorkflow_Decide_StaysPendingUntilThresholdMet(t *testing.T) {
	repo := newFakeGroupRepo()
	w := New(repo, nil)

	g := &group.Group{ID: "group-1", ApprovalMode: group.ApprovalThreshold, ApprovalThreshold: 2}
	repo.owners["group-1"] = []string{"o1", "o2", "o3"}

	req, err := w.Request(context.Background(), "tenant-1", g, group.CreateAccessRequestInput{RequesterID: "alice"})
	require.NoError(t, err)

	updated, err := w.Decide(context.Background(), g, req, group.DecideInput{OwnerID: "o1", Approve: true})
	require.NoError(t, err)
	assert.Equal(t, group.RequestPending, updated.State)

	req.State = updated.State

	updated, err = w.Decide(context.Background(), g, req, group.DecideInput{OwnerID: "o2", Approve: true})
	require.NoError(t, err)
	assert.Equal(t, group.RequestApproved, updated.State)
}

func TestWorkflow_Decide_LateApprovalAfterResolutionDoesNotRetransition(t *testing.T) {
	repo := newFakeGroupRepo()
	w := New(repo, nil)

	g := &group.Group{ID: "group-1", ApprovalMode: group.ApprovalThreshold, ApprovalThreshold: 2}
	repo.owners["group-1"] = []string{"o1", "o2", "o3"}

	req, err := w.Request(context.Background(), "tenant-1", g, group.CreateAccessRequestInput{RequesterID: "alice"})
	require.NoError(t, err)

	_, err = w.Decide(context.Background(), g, req, group.DecideInput{OwnerID: "o1", Approve: true})
	require.NoError(t, err)

	req.State = group.RequestPending

	updated, err := w.Decide(context.Background(), g, req, group.DecideInput{OwnerID: "o2", Approve: true})
	require.NoError(t, err)
	require.Equal(t, group.RequestApproved, updated.State)

	req.State = updated.State

	// o3's later approval is recorded but the already-resolved request's
	// state does not change again.
	finalState, err := w.Decide(context.Background(), g, req, group.DecideInput{OwnerID: "o3", Approve: true})
	require.NoError(t, err)
	assert.Equal(t, group.RequestApproved, finalState.State)
	assert.Len(t, repo.decisions[req.ID], 3)
}

func TestWorkflow_Expire_RemovesMembershipWhenApproved(t *testing.T) {
	repo := newFakeGroupRepo()
	w := New(repo, nil)

	g := &group.Group{ID: "group-1", ApprovalMode: group.ApprovalAny}
	repo.owners["group-1"] = []string{"o1"}

	req, err := w.Request(context.Background(), "tenant-1", g, group.CreateAccessRequestInput{RequesterID: "alice"})
	require.NoError(t, err)

	updated, err := w.Decide(context.Background(), g, req, group.DecideInput{OwnerID: "o1", Approve: true})
	require.NoError(t, err)
	require.Equal(t, group.RequestApproved, updated.State)

	req.State = updated.State

	expired, err := w.Expire(context.Background(), g, req)
	require.NoError(t, err)
	assert.Equal(t, group.RequestExpired, expired.State)

	isMember, err := repo.IsMember(context.Background(), "group-1", "alice")
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestWorkflow_Decide_SyncSkippedWithoutRabbitMQ(t *testing.T) {
	repo := newFakeGroupRepo()
	w := New(repo, nil)

	g := &group.Group{ID: "group-1", ApprovalMode: group.ApprovalAny, SyncEnabled: true}
	repo.owners["group-1"] = []string{"o1"}

	req, err := w.Request(context.Background(), "tenant-1", g, group.CreateAccessRequestInput{RequesterID: "alice"})
	require.NoError(t, err)

	// publishSync must tolerate a nil RabbitMQ connection rather than panic.
	updated, err := w.Decide(context.Background(), g, req, group.DecideInput{OwnerID: "o1", Approve: true})
	require.NoError(t, err)
	assert.Equal(t, group.RequestApproved, updated.State)
}
