package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
)

// newTestSnapshot builds a Snapshot by hand, bypassing Builder: the fields
// are unexported but this file lives in package graph, so literal
// construction is the simplest way to pin an exact adjacency shape for each
// test instead of faking organization.Repository/entity.Repository/
// dependency.Repository just to exercise Builder.Build.
func newTestSnapshot() *Snapshot {
	return &Snapshot{
		TenantID:      "tenant-1",
		orgParent:     map[string]string{},
		orgChildren:   map[string][]string{},
		orgName:       map[string]string{},
		adjacency:     map[string][]Edge{},
		hardAdjacency: map[string][]Edge{},
		reverseHard:   map[string][]Edge{},
		entityOrg:     map[string]string{},
	}
}

func (s *Snapshot) addEdge(src, dst string, depType dependency.Type) {
	s.adjacency[src] = append(s.adjacency[src], Edge{Target: dst, Type: depType})

	if depType.IsHard() {
		s.hardAdjacency[src] = append(s.hardAdjacency[src], Edge{Target: dst, Type: depType})
		s.reverseHard[dst] = append(s.reverseHard[dst], Edge{Target: src, Type: depType})
	}
}

func (s *Snapshot) addOrg(id, name, parent string) {
	s.orgParent[id] = parent
	s.orgName[id] = name
	s.orgChildren[parent] = append(s.orgChildren[parent], id)
}

func TestSnapshot_AddEdgeCheck_DetectsCycle(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)
	s.addEdge("B", "C", dependency.TypeRuntime)

	err := s.AddEdgeCheck(context.Background(), "C", "A", dependency.TypeRuntime)

	require.Error(t, err)

	conflict, ok := err.(common.EntityConflictError)
	require.True(t, ok, "expected common.EntityConflictError, got %T", err)
	assert.Equal(t, common.ConflictCycle, conflict.Reason)
	assert.Equal(t, []string{"C", "A", "B", "C"}, conflict.Path)
}

func TestSnapshot_AddEdgeCheck_SelfDependency(t *testing.T) {
	s := newTestSnapshot()

	err := s.AddEdgeCheck(context.Background(), "A", "A", dependency.TypeRuntime)

	require.Error(t, err)
	conflict, ok := err.(common.EntityConflictError)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "A"}, conflict.Path)
}

func TestSnapshot_AddEdgeCheck_SoftTypeNeverConflicts(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)
	s.addEdge("B", "C", dependency.TypeRuntime)

	// related is not a hard type, so it's exempt from the cycle check even
	// though A->C would close one in the hard subgraph.
	assert.NoError(t, s.AddEdgeCheck(context.Background(), "C", "A", dependency.TypeRelated))
}

func TestSnapshot_AddEdgeCheck_NoCycle(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)

	assert.NoError(t, s.AddEdgeCheck(context.Background(), "A", "C", dependency.TypeRuntime))
}

func TestSnapshot_Impact_DepthCapped(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)
	s.addEdge("B", "C", dependency.TypeRuntime)
	s.addEdge("C", "D", dependency.TypeRuntime)

	nodes, err := s.Impact(context.Background(), "A", DirectionDownstream, 2)
	require.NoError(t, err)

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.EntityID
	}

	assert.Equal(t, []string{"A", "B", "C"}, ids)
}

func TestSnapshot_Impact_ZeroDepthReturnsSourceOnly(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)

	nodes, err := s.Impact(context.Background(), "A", DirectionDownstream, 0)
	require.NoError(t, err)
	assert.Equal(t, []ImpactNode{{EntityID: "A", Depth: 0}}, nodes)
}

func TestSnapshot_Impact_Upstream(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)
	s.addEdge("B", "C", dependency.TypeRuntime)

	nodes, err := s.Impact(context.Background(), "C", DirectionUpstream, 5)
	require.NoError(t, err)

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.EntityID
	}

	assert.Equal(t, []string{"C", "B", "A"}, ids)
}

func TestSnapshot_Impact_Both(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)
	s.addEdge("C", "B", dependency.TypeRuntime)

	nodes, err := s.Impact(context.Background(), "B", DirectionBoth, 1)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, n := range nodes {
		ids[n.EntityID] = true
	}

	assert.True(t, ids["A"])
	assert.True(t, ids["C"])
	assert.Len(t, nodes, 3)
}

func TestSnapshot_Path_ShortestWithTieBreak(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "C", dependency.TypeRuntime)
	s.addEdge("A", "B", dependency.TypeRuntime)
	s.addEdge("B", "D", dependency.TypeRuntime)
	s.addEdge("C", "D", dependency.TypeRuntime)

	path, err := s.Path(context.Background(), "A", "D", nil)
	require.NoError(t, err)

	// B < C lexicographically, and both are equal-length hops to D, so the
	// BFS visits B's out-edges first and reports A->B->D.
	assert.Equal(t, []string{"A", "B", "D"}, path)
}

func TestSnapshot_Path_SameSourceTarget(t *testing.T) {
	s := newTestSnapshot()

	path, err := s.Path(context.Background(), "A", "A", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, path)
}

func TestSnapshot_Path_Unreachable(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)

	_, err := s.Path(context.Background(), "A", "Z", nil)
	require.Error(t, err)
	assert.IsType(t, common.EntityNotFoundError{}, err)
}

func TestSnapshot_Path_EdgeFilterExcludesType(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeNetwork)
	s.addEdge("A", "C", dependency.TypeRuntime)
	s.addEdge("C", "B", dependency.TypeRuntime)

	onlyRuntime := func(t dependency.Type) bool { return t == dependency.TypeRuntime }

	path, err := s.Path(context.Background(), "A", "B", onlyRuntime)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "B"}, path)
}

func TestSnapshot_Hierarchy(t *testing.T) {
	s := newTestSnapshot()
	s.addOrg("root", "Root", "")
	s.addOrg("child", "Child", "root")
	s.addOrg("grandchild", "Grandchild", "child")

	path, err := s.Hierarchy("grandchild", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "child", "grandchild"}, path)
}

func TestSnapshot_Hierarchy_UnknownOrg(t *testing.T) {
	s := newTestSnapshot()

	_, err := s.Hierarchy("missing", 0)
	require.Error(t, err)
	assert.IsType(t, common.EntityNotFoundError{}, err)
}

func TestSnapshot_Hierarchy_DepthExceeded(t *testing.T) {
	s := newTestSnapshot()
	s.addOrg("root", "Root", "")
	s.addOrg("child", "Child", "root")
	s.addOrg("grandchild", "Grandchild", "child")

	_, err := s.Hierarchy("grandchild", 1)
	require.Error(t, err)
	assert.IsType(t, common.ValidationError{}, err)
}

func TestSnapshot_AncestorIDs(t *testing.T) {
	s := newTestSnapshot()
	s.addOrg("root", "Root", "")
	s.addOrg("child", "Child", "root")

	assert.Equal(t, []string{"root"}, s.AncestorIDs("child"))
	assert.Nil(t, s.AncestorIDs("missing"))
}

func TestSnapshot_Children(t *testing.T) {
	s := newTestSnapshot()
	s.addOrg("root", "Root", "")
	s.addOrg("a", "A", "root")
	s.addOrg("b", "B", "root")
	s.addOrg("a1", "A1", "a")

	direct, err := s.Children(context.Background(), "root", false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, direct)

	recursive, err := s.Children(context.Background(), "root", true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "a1"}, recursive)
}

func TestSnapshot_Analyze(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)
	s.addEdge("B", "C", dependency.TypeRuntime)

	analysis, err := s.Analyze(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, analysis.EntityCount)
	assert.Equal(t, 2, analysis.DependencyCount)
	assert.True(t, analysis.IsAcyclic)
	assert.False(t, analysis.Approximate)
}

func TestSnapshot_Analyze_DetectsCycleInHardSubgraph(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)
	s.addEdge("B", "A", dependency.TypeRuntime)

	analysis, err := s.Analyze(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.False(t, analysis.IsAcyclic)
}

func TestSnapshot_Analyze_ScopedToSubset(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeRuntime)
	s.addEdge("B", "C", dependency.TypeRuntime)
	s.addEdge("X", "Y", dependency.TypeRuntime)

	analysis, err := s.Analyze(context.Background(), []string{"A", "B", "C"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, analysis.EntityCount)
	assert.Equal(t, 2, analysis.DependencyCount)
}

func TestSnapshot_NetworkTopology(t *testing.T) {
	s := newTestSnapshot()
	s.addEdge("A", "B", dependency.TypeNetwork)
	s.addEdge("B", "C", dependency.TypeRuntime)
	s.addEdge("A", "C", dependency.TypeNetwork)

	result := s.NetworkTopology([]string{"A", "B", "C"})

	assert.ElementsMatch(t, []string{"A", "B", "C"}, result.Nodes)
	assert.Equal(t, []NetworkEdge{
		{Source: "A", Target: "B"},
		{Source: "A", Target: "C"},
	}, result.Edges)
}
