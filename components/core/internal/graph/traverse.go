package graph

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/elder-platform/elder/common"
	"github.com/elder-platform/elder/components/core/internal/domain/dependency"
)

const defaultMaxHierarchyDepth = 64

// cancelCheckInterval is how many expanded frontier layers BFS/DFS walk
// before re-checking ctx for cancellation (spec §5: "at least every
// expanded frontier layer").
const cancelCheckInterval = 1

func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return common.CancelledError{Message: "traversal exceeded its deadline"}
	default:
		return nil
	}
}

// Children returns org's descendants in BFS order, stable tie-break by
// (name, id). If recursive is false, only direct children are returned.
func (s *Snapshot) Children(ctx context.Context, org string, recursive bool) ([]string, error) {
	if !recursive {
		out := append([]string{}, s.orgChildren[org]...)
		return out, nil
	}

	var out []string

	queue := append([]string{}, s.orgChildren[org]...)

	for len(queue) > 0 {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}

		next := queue[0]
		queue = queue[1:]
		out = append(out, next)
		queue = append(queue, s.orgChildren[next]...)
	}

	return out, nil
}

// Hierarchy returns the path from the tenant root to org, root-first.
// Denies the request with a ValidationError if depth exceeds maxDepth
// (default 64): such a tree indicates corruption (spec §4.4).
func (s *Snapshot) Hierarchy(org string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 {
		maxDepth = defaultMaxHierarchyDepth
	}

	var reversed []string

	cur := org

	for i := 0; i <= maxDepth+1; i++ {
		if _, ok := s.orgParent[cur]; !ok {
			return nil, common.EntityNotFoundError{
				EntityType: "Organization",
				Kind:       common.NotFoundResourceMissing,
				Message:    fmt.Sprintf("organization %q not found in tenant %q", cur, s.TenantID),
			}
		}

		reversed = append(reversed, cur)

		parent := s.orgParent[cur]
		if parent == "" {
			if len(reversed) > maxDepth {
				return nil, common.ValidationError{
					Title:   "Hierarchy Depth Exceeded",
					Message: fmt.Sprintf("organization tree depth exceeds max_hierarchy_depth=%d", maxDepth),
				}
			}

			out := make([]string, len(reversed))
			for j, id := range reversed {
				out[len(reversed)-1-j] = id
			}

			return out, nil
		}

		cur = parent
	}

	return nil, common.ValidationError{
		Title:   "Hierarchy Depth Exceeded",
		Message: fmt.Sprintf("organization tree depth exceeds max_hierarchy_depth=%d", maxDepth),
	}
}

// AncestorIDs implements authz.OrgHierarchy: the ancestor chain of org,
// excluding org itself.
func (s *Snapshot) AncestorIDs(org string) []string {
	path, err := s.Hierarchy(org, 0)
	if err != nil || len(path) == 0 {
		return nil
	}

	return path[:len(path)-1]
}

// AddEdgeCheck runs the incremental cycle check spec §4.4 requires before a
// hard-subgraph edge src->dst is committed: DFS from dst restricted to hard
// edges; if src is reachable, the edge would close a cycle.
func (s *Snapshot) AddEdgeCheck(ctx context.Context, src, dst string, depType dependency.Type) error {
	if !depType.IsHard() {
		return nil
	}

	if src == dst {
		return common.EntityConflictError{
			EntityType: "Dependency",
			Title:      "Self Dependency",
			Message:    "an entity cannot depend on itself",
			Reason:     common.ConflictCycle,
			Path:       []string{src, dst},
		}
	}

	visited := map[string]bool{dst: true}
	parent := map[string]string{}
	stack := []string{dst}

	for len(stack) > 0 {
		if err := checkCancel(ctx); err != nil {
			return err
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node == src {
			// raw walks parent pointers from src back to dst, i.e. the
			// existing dst->...->src path in reverse; reverse it back to
			// forward order and prefix src so Path reads as the cycle
			// actually closes: src, dst, ...,  src (new edge first).
			raw := []string{src}
			cur := src

			for cur != dst {
				cur = parent[cur]
				raw = append(raw, cur)
			}

			forward := make([]string, len(raw))
			for i, id := range raw {
				forward[len(raw)-1-i] = id
			}

			path := append([]string{src}, forward...)

			return common.EntityConflictError{
				EntityType: "Dependency",
				Title:      "Would Create Cycle",
				Message:    "adding this edge would create a cycle in the hard dependency subgraph",
				Reason:     common.ConflictCycle,
				Path:       path,
			}
		}

		for _, e := range s.hardAdjacency[node] {
			if !visited[e.Target] {
				visited[e.Target] = true
				parent[e.Target] = node
				stack = append(stack, e.Target)
			}
		}
	}

	return nil
}

// ImpactDirection selects which edge direction Impact traverses.
type ImpactDirection string

const (
	DirectionDownstream ImpactDirection = "downstream"
	DirectionUpstream   ImpactDirection = "upstream"
	DirectionBoth       ImpactDirection = "both"
)

// ImpactNode is one node in an Impact result, annotated with its
// first-reach depth and the edge label by which it was reached.
type ImpactNode struct {
	EntityID string
	Depth    int
	EdgeType dependency.Type
}

// Impact performs a depth-capped BFS from entity in direction, returning
// nodes in first-reach order (spec §4.4). max_depth=0 returns only the
// source node.
func (s *Snapshot) Impact(ctx context.Context, entityID string, direction ImpactDirection, maxDepth int) ([]ImpactNode, error) {
	if maxDepth < 0 {
		maxDepth = 16
	}

	visited := map[string]bool{entityID: true}
	out := []ImpactNode{{EntityID: entityID, Depth: 0}}

	if maxDepth == 0 {
		return out, nil
	}

	type frontierItem struct {
		id    string
		depth int
		via   dependency.Type
	}

	frontier := []frontierItem{{id: entityID, depth: 0}}

	for len(frontier) > 0 {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}

		var next []frontierItem

		for _, item := range frontier {
			if item.depth >= maxDepth {
				continue
			}

			for _, e := range s.neighbors(item.id, direction) {
				if visited[e.Target] {
					continue
				}

				visited[e.Target] = true
				out = append(out, ImpactNode{EntityID: e.Target, Depth: item.depth + 1, EdgeType: e.Type})
				next = append(next, frontierItem{id: e.Target, depth: item.depth + 1, via: e.Type})
			}
		}

		frontier = next
	}

	return out, nil
}

func (s *Snapshot) neighbors(node string, direction ImpactDirection) []Edge {
	switch direction {
	case DirectionDownstream:
		return s.adjacency[node]
	case DirectionUpstream:
		return s.reverseOf(node)
	default:
		return append(append([]Edge{}, s.adjacency[node]...), s.reverseOf(node)...)
	}
}

func (s *Snapshot) reverseOf(node string) []Edge {
	var out []Edge

	for src, edges := range s.adjacency {
		for _, e := range edges {
			if e.Target == node {
				out = append(out, Edge{Target: src, Type: e.Type})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })

	return out
}

// Path finds the shortest unweighted path from source to target under
// edgeFilter (nil accepts all edge types), ties broken by lexicographic
// sequence of node IDs (spec §4.4).
func (s *Snapshot) Path(ctx context.Context, source, target string, edgeFilter func(dependency.Type) bool) ([]string, error) {
	if source == target {
		return []string{source}, nil
	}

	if edgeFilter == nil {
		edgeFilter = func(dependency.Type) bool { return true }
	}

	visited := map[string]bool{source: true}
	parent := map[string]string{}
	queue := []string{source}

	for len(queue) > 0 {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}

		level := queue
		queue = nil

		sort.Strings(level)

		for _, node := range level {
			edges := append([]Edge{}, s.adjacency[node]...)
			sort.Slice(edges, func(i, j int) bool { return edges[i].Target < edges[j].Target })

			for _, e := range edges {
				if !edgeFilter(e.Type) || visited[e.Target] {
					continue
				}

				visited[e.Target] = true
				parent[e.Target] = node

				if e.Target == target {
					return reconstructPath(parent, source, target), nil
				}

				queue = append(queue, e.Target)
			}
		}
	}

	return nil, common.EntityNotFoundError{
		EntityType: "Entity",
		Kind:       common.NotFoundResourceMissing,
		Message:    fmt.Sprintf("no path from %q to %q under the given edge filter", source, target),
	}
}

func reconstructPath(parent map[string]string, source, target string) []string {
	var reversed []string

	cur := target
	for cur != source {
		reversed = append(reversed, cur)
		cur = parent[cur]
	}

	reversed = append(reversed, source)

	out := make([]string, len(reversed))
	for i, id := range reversed {
		out[len(reversed)-1-i] = id
	}

	return out
}

// Analysis is the result of Analyze.
type Analysis struct {
	EntityCount     int
	DependencyCount int
	Density         float64
	IsAcyclic       bool
	CriticalNodes   []CriticalNode
	Approximate     bool
}

// CriticalNode ranks a node by betweenness approximation.
type CriticalNode struct {
	EntityID string
	Score    int
}

const sampledBetweennessThreshold = 5000

// Analyze computes graph-wide metrics over the entities in scope (all
// tenant entities when scope is empty), using the hard subgraph for
// acyclicity and betweenness (spec §4.4). scope lists entity IDs to
// restrict the computation to; pass nil for the whole tenant.
func (s *Snapshot) Analyze(ctx context.Context, scope []string, sampler func(n int) int) (*Analysis, error) {
	nodes := scope
	if nodes == nil {
		nodes = s.allEntityIDs()
	}

	nodeSet := map[string]bool{}
	for _, n := range nodes {
		nodeSet[n] = true
	}

	depCount := 0
	for src, edges := range s.adjacency {
		if !nodeSet[src] {
			continue
		}

		for _, e := range edges {
			if nodeSet[e.Target] {
				depCount++
			}
		}
	}

	n := len(nodes)
	density := 0.0

	if n > 0 {
		// spec §9: density = edges/nodes^2, following the source formula
		// rather than the simple-graph E/(N*(N-1)) convention — flagged in
		// source for reconsideration, implemented as specified.
		density = float64(depCount) / float64(n*n)
	}

	acyclic, err := s.isHardAcyclic(ctx, nodeSet)
	if err != nil {
		return nil, err
	}

	sources := nodes
	approximate := false

	if n > sampledBetweennessThreshold {
		approximate = true

		sampleSize := int(math.Sqrt(float64(n)))
		if sampler != nil {
			sampleSize = sampler(n)
		}

		sources = sampleSources(nodes, sampleSize)
	}

	critical, err := s.betweenness(ctx, nodeSet, sources)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		EntityCount:     n,
		DependencyCount: depCount,
		Density:         density,
		IsAcyclic:       acyclic,
		CriticalNodes:   critical,
		Approximate:     approximate,
	}, nil
}

func (s *Snapshot) allEntityIDs() []string {
	set := map[string]bool{}

	for src, edges := range s.adjacency {
		set[src] = true

		for _, e := range edges {
			set[e.Target] = true
		}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}

	sort.Strings(out)

	return out
}

// isHardAcyclic runs a DFS-based cycle check over the hard subgraph
// restricted to nodeSet.
func (s *Snapshot) isHardAcyclic(ctx context.Context, nodeSet map[string]bool) (bool, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := map[string]int{}

	var visit func(node string) (bool, error)
	visit = func(node string) (bool, error) {
		if err := checkCancel(ctx); err != nil {
			return false, err
		}

		color[node] = gray

		for _, e := range s.hardAdjacency[node] {
			if !nodeSet[e.Target] {
				continue
			}

			switch color[e.Target] {
			case gray:
				return false, nil
			case white:
				ok, err := visit(e.Target)
				if err != nil || !ok {
					return ok, err
				}
			}
		}

		color[node] = black

		return true, nil
	}

	for node := range nodeSet {
		if color[node] == white {
			ok, err := visit(node)
			if err != nil {
				return false, err
			}

			if !ok {
				return false, nil
			}
		}
	}

	return true, nil
}

// betweenness scores each node by the count of shortest hard-subgraph
// source-to-sink paths passing through it, BFS from each of sources. For
// each (source, sink) pair one shortest path is counted: the one recorded
// by the BFS parent links; other shortest paths of equal length are not.
func (s *Snapshot) betweenness(ctx context.Context, nodeSet map[string]bool, sources []string) ([]CriticalNode, error) {
	scores := map[string]int{}

	for _, src := range sources {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}

		dist := map[string]int{src: 0}
		parent := map[string]string{}
		queue := []string{src}

		var order []string

		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			order = append(order, node)

			for _, e := range s.hardAdjacency[node] {
				if !nodeSet[e.Target] {
					continue
				}

				if _, seen := dist[e.Target]; !seen {
					dist[e.Target] = dist[node] + 1
					parent[e.Target] = node
					queue = append(queue, e.Target)
				}
			}
		}

		isSink := func(id string) bool { return len(s.hardAdjacency[id]) == 0 }

		for _, sink := range order {
			if sink == src || !isSink(sink) {
				continue
			}

			for intermediate := parent[sink]; intermediate != src; intermediate = parent[intermediate] {
				scores[intermediate]++
			}
		}
	}

	out := make([]CriticalNode, 0, len(scores))
	for id, score := range scores {
		if score > 0 {
			out = append(out, CriticalNode{EntityID: id, Score: score})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}

		return out[i].EntityID < out[j].EntityID
	})

	return out, nil
}

func sampleSources(nodes []string, sampleSize int) []string {
	if sampleSize >= len(nodes) {
		return nodes
	}

	if sampleSize <= 0 {
		return nil
	}

	stride := len(nodes) / sampleSize
	if stride == 0 {
		stride = 1
	}

	var out []string

	for i := 0; i < len(nodes) && len(out) < sampleSize; i += stride {
		out = append(out, nodes[i])
	}

	return out
}

// NetworkTopologyResult restricts Snapshot to network-type entities and
// their network-type dependencies, for visualization consumers (spec §4.4).
type NetworkTopologyResult struct {
	Nodes []string
	Edges []NetworkEdge
}

// NetworkEdge is one edge in a NetworkTopologyResult.
type NetworkEdge struct {
	Source string
	Target string
}

// NetworkTopology restricts the view to entities in entityIDs (already
// filtered by the caller to network-type, optionally including children
// orgs) and their network dependencies.
func (s *Snapshot) NetworkTopology(entityIDs []string) *NetworkTopologyResult {
	nodeSet := map[string]bool{}
	for _, id := range entityIDs {
		nodeSet[id] = true
	}

	result := &NetworkTopologyResult{Nodes: append([]string{}, entityIDs...)}

	for src, edges := range s.adjacency {
		if !nodeSet[src] {
			continue
		}

		for _, e := range edges {
			if e.Type == dependency.TypeNetwork && nodeSet[e.Target] {
				result.Edges = append(result.Edges, NetworkEdge{Source: src, Target: e.Target})
			}
		}
	}

	sort.Slice(result.Edges, func(i, j int) bool {
		if result.Edges[i].Source != result.Edges[j].Source {
			return result.Edges[i].Source < result.Edges[j].Source
		}

		return result.Edges[i].Target < result.Edges[j].Target
	})

	return result
}
