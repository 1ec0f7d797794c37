// Package oncallresolver computes the on-call identity for a scope from its
// rotations and overrides (spec §4.5).
package oncallresolver

import (
	"context"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/domain/oncall"
)

// Resolver answers current-on-call and timeline queries over a
// Repository's rotations, shifts, and overrides.
type Resolver struct {
	Repo oncall.Repository
}

// New builds a Resolver backed by repo.
func New(repo oncall.Repository) *Resolver {
	return &Resolver{Repo: repo}
}

// Current is the result of CurrentOnCall.
type Current struct {
	IdentityID string
	ShiftStart time.Time
	ShiftEnd   time.Time
	IsOverride bool
}

// CurrentOnCall resolves who is on call for scope at instant. Overrides
// whose window contains instant take priority over rotations; among
// several overrides the most recently created wins. Among rotation shifts,
// smallest rotation priority then smallest rotation id wins (spec §4.5).
func (r *Resolver) CurrentOnCall(ctx context.Context, tenantID string, scopeType oncall.ScopeType, scopeID string, instant time.Time) (*Current, error) {
	overrides, err := r.Repo.FindOverridesByScope(ctx, tenantID, scopeType, scopeID, instant, instant.Add(time.Nanosecond))
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	var best *oncall.Override

	for _, o := range overrides {
		if !windowContains(o.Start, o.End, instant) {
			continue
		}

		if best == nil || o.CreatedAt.After(best.CreatedAt) {
			best = o
		}
	}

	if best != nil {
		return &Current{IdentityID: best.IdentityID, ShiftStart: best.Start, ShiftEnd: best.End, IsOverride: true}, nil
	}

	rotations, err := r.Repo.FindRotationsByScope(ctx, tenantID, scopeType, scopeID)
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	sort.Slice(rotations, func(i, j int) bool {
		if rotations[i].Priority != rotations[j].Priority {
			return rotations[i].Priority < rotations[j].Priority
		}

		return rotations[i].ID < rotations[j].ID
	})

	for _, rot := range rotations {
		shifts, err := r.shiftsFor(ctx, rot, instant, instant.Add(time.Nanosecond))
		if err != nil {
			return nil, err
		}

		for _, sh := range shifts {
			if windowContains(sh.Start, sh.End, instant) {
				return &Current{IdentityID: sh.IdentityID, ShiftStart: sh.Start, ShiftEnd: sh.End, IsOverride: false}, nil
			}
		}
	}

	return nil, nil
}

// shiftsFor returns rot's explicit shifts overlapping [windowStart,
// windowEnd), expanding its cron template (if set) into concrete shifts
// for the same window when no explicit shift covers it.
func (r *Resolver) shiftsFor(ctx context.Context, rot *oncall.Rotation, windowStart, windowEnd time.Time) ([]*oncall.Shift, error) {
	shifts, err := r.Repo.FindShiftsByRotation(ctx, rot.ID, windowStart, windowEnd)
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	if len(shifts) > 0 || rot.CronExpr == "" {
		return shifts, nil
	}

	return expandCron(rot, windowStart, windowEnd)
}

// expandCron generates synthetic shifts from rot's cron schedule: each
// scheduled firing within the window starts a shift of rot.ShiftLength.
// Synthetic shifts carry an empty IdentityID, so an instant covered only by
// a cron-generated shift resolves to this rotation with no assignee; named
// assignees come only from explicit shifts and overrides (see SPEC_FULL.md
// §4.5).
func expandCron(rot *oncall.Rotation, windowStart, windowEnd time.Time) ([]*oncall.Shift, error) {
	schedule, err := cron.ParseStandard(rot.CronExpr)
	if err != nil {
		return nil, common.ValidationError{
			EntityType: "Rotation",
			Title:      "Invalid Cron Expression",
			Message:    "rotation cron_expr failed to parse: " + err.Error(),
		}
	}

	var out []*oncall.Shift

	cur := windowStart.Add(-rot.ShiftLength)

	for i := 0; i < 10_000; i++ {
		next := schedule.Next(cur)
		if next.IsZero() || !next.Before(windowEnd) {
			break
		}

		out = append(out, &oncall.Shift{
			RotationID: rot.ID,
			Start:      next,
			End:        next.Add(rot.ShiftLength),
		})

		cur = next
	}

	return out, nil
}

// windowContains reports whether the half-open interval [start, end)
// contains instant.
func windowContains(start, end, instant time.Time) bool {
	return !instant.Before(start) && instant.Before(end)
}

// Segment is one row of a who_is_on_call_between timeline: IdentityID is
// "" for a gap.
type Segment struct {
	From       time.Time
	To         time.Time
	IdentityID string
	IsOverride bool
}

// WhoIsOnCallBetween partitions [a, b) into a time-ordered, non-overlapping
// sequence of Segments by sweeping every override/shift boundary inside the
// window (spec §4.5). The union of returned segments always equals [a, b);
// uncovered regions are emitted as gap segments with IdentityID == "".
func (r *Resolver) WhoIsOnCallBetween(ctx context.Context, tenantID string, scopeType oncall.ScopeType, scopeID string, a, b time.Time) ([]Segment, error) {
	boundaries := map[time.Time]bool{a: true, b: true}

	overrides, err := r.Repo.FindOverridesByScope(ctx, tenantID, scopeType, scopeID, a, b)
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	rotations, err := r.Repo.FindRotationsByScope(ctx, tenantID, scopeType, scopeID)
	if err != nil {
		return nil, common.InternalServerError{Err: err}
	}

	sort.Slice(rotations, func(i, j int) bool {
		if rotations[i].Priority != rotations[j].Priority {
			return rotations[i].Priority < rotations[j].Priority
		}

		return rotations[i].ID < rotations[j].ID
	})

	var allShifts []*oncall.Shift

	for _, rot := range rotations {
		shifts, err := r.shiftsFor(ctx, rot, a, b)
		if err != nil {
			return nil, err
		}

		allShifts = append(allShifts, shifts...)
	}

	for _, o := range overrides {
		addBoundary(boundaries, o.Start, a, b)
		addBoundary(boundaries, o.End, a, b)
	}

	for _, sh := range allShifts {
		addBoundary(boundaries, sh.Start, a, b)
		addBoundary(boundaries, sh.End, a, b)
	}

	points := make([]time.Time, 0, len(boundaries))
	for t := range boundaries {
		points = append(points, t)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	var segments []Segment

	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		if !from.Before(to) {
			continue
		}

		mid := from.Add(to.Sub(from) / 2)

		var bestOverride *oncall.Override

		for _, o := range overrides {
			if windowContains(o.Start, o.End, mid) && (bestOverride == nil || o.CreatedAt.After(bestOverride.CreatedAt)) {
				bestOverride = o
			}
		}

		if bestOverride != nil {
			segments = append(segments, Segment{From: from, To: to, IdentityID: bestOverride.IdentityID, IsOverride: true})
			continue
		}

		identityID := ""

		for _, sh := range allShifts {
			if windowContains(sh.Start, sh.End, mid) {
				identityID = sh.IdentityID
				break
			}
		}

		segments = append(segments, Segment{From: from, To: to, IdentityID: identityID})
	}

	return segments, nil
}

func addBoundary(set map[time.Time]bool, t, a, b time.Time) {
	if t.Before(a) || t.After(b) {
		return
	}

	set[t] = true
}
