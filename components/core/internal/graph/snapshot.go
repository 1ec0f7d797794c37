// Package graph maintains in-memory views over the per-tenant organization
// tree and entity dependency graph: traversal, analytics, and cycle checks
// (spec §4.4).
package graph

import (
	"context"
	"sort"

	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
	"github.com/elder-platform/elder/components/core/internal/domain/entity"
	"github.com/elder-platform/elder/components/core/internal/domain/organization"
)

// Edge is one dependency edge as held in the in-memory adjacency view.
type Edge struct {
	Target string
	Type   dependency.Type
}

// Snapshot is a consistent, point-in-time adjacency view for one tenant:
// the organization tree plus the entity dependency multigraph. It is
// rebuilt as a whole delta so half-applied mutations are never visible
// (spec §4.4 State).
type Snapshot struct {
	TenantID string

	// org tree
	orgParent   map[string]string   // org id -> parent id ("" for root)
	orgChildren map[string][]string // org id -> child ids
	orgName     map[string]string   // org id -> name, for (name, id) tie-break

	// entity dependency graph
	adjacency     map[string][]Edge // entity id -> outgoing edges (all types)
	hardAdjacency map[string][]Edge // entity id -> outgoing edges (hard subgraph only)
	reverseHard   map[string][]Edge // entity id -> incoming hard edges
	entityOrg     map[string]string // entity id -> organization id
}

// Builder assembles Snapshots from Store, used by the tenant-scoped cache
// in cache.go on first query or after invalidation.
type Builder struct {
	Orgs         organization.Repository
	Entities     entity.Repository
	Dependencies dependency.Repository
}

// Build loads every organization and dependency edge for tenantID and
// assembles a consistent Snapshot.
func (b *Builder) Build(ctx context.Context, tenantID string) (*Snapshot, error) {
	s := &Snapshot{
		TenantID:      tenantID,
		orgParent:     map[string]string{},
		orgChildren:   map[string][]string{},
		orgName:       map[string]string{},
		adjacency:     map[string][]Edge{},
		hardAdjacency: map[string][]Edge{},
		reverseHard:   map[string][]Edge{},
		entityOrg:     map[string]string{},
	}

	orgs, err := b.Orgs.FindByParent(ctx, tenantID, nil)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}

	var walk func(parent *string) error
	walk = func(parent *string) error {
		children, err := b.Orgs.FindByParent(ctx, tenantID, parent)
		if err != nil {
			return err
		}

		for _, o := range children {
			if seen[o.ID] {
				continue // defensive: a malformed tree must not loop the builder
			}

			seen[o.ID] = true

			parentID := ""
			if o.ParentID != nil {
				parentID = *o.ParentID
			}

			s.orgParent[o.ID] = parentID
			s.orgName[o.ID] = o.Name
			s.orgChildren[parentID] = append(s.orgChildren[parentID], o.ID)

			if err := walk(&o.ID); err != nil {
				return err
			}
		}

		return nil
	}

	for _, root := range orgs {
		parentID := ""
		if root.ParentID != nil {
			parentID = *root.ParentID
		}

		if seen[root.ID] {
			continue
		}

		seen[root.ID] = true
		s.orgParent[root.ID] = parentID
		s.orgName[root.ID] = root.Name
		s.orgChildren[parentID] = append(s.orgChildren[parentID], root.ID)

		if err := walk(&root.ID); err != nil {
			return nil, err
		}
	}

	deps, err := b.Dependencies.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	for _, d := range deps {
		s.adjacency[d.SourceEntityID] = append(s.adjacency[d.SourceEntityID], Edge{Target: d.TargetEntityID, Type: d.DependencyType})

		if d.DependencyType.IsHard() {
			s.hardAdjacency[d.SourceEntityID] = append(s.hardAdjacency[d.SourceEntityID], Edge{Target: d.TargetEntityID, Type: d.DependencyType})
			s.reverseHard[d.TargetEntityID] = append(s.reverseHard[d.TargetEntityID], Edge{Target: d.SourceEntityID, Type: d.DependencyType})
		}
	}

	for _, adj := range [](map[string][]Edge){s.adjacency, s.hardAdjacency, s.reverseHard} {
		for k := range adj {
			sort.Slice(adj[k], func(i, j int) bool { return adj[k][i].Target < adj[k][j].Target })
		}
	}

	for parentID := range s.orgChildren {
		children := s.orgChildren[parentID]
		sort.Slice(children, func(i, j int) bool {
			if s.orgName[children[i]] != s.orgName[children[j]] {
				return s.orgName[children[i]] < s.orgName[children[j]]
			}

			return children[i] < children[j]
		})
	}

	return s, nil
}
