package ripple

import (
	"fmt"
	"sort"

	"github.com/jward/ripple/internal/graph"
)

// CallGraph is the Calls-only subgraph around a root entity.
type CallGraph struct {
	Root  Node
	Nodes []CallGraphNode // root first, then by (depth, file, line)
	Edges []Edge          // Calls edges between members
	Depth int             // max depth reached (may be < maxDepth if the graph is shallow)
}

// CallGraphNode is an entity in the call graph with its distance from the
// root.
type CallGraphNode struct {
	Entity Node
	Depth  int // BFS depth from root (0 = root itself)
}

// maxCallDepth caps maxDepth for the transitive call queries.
const maxCallDepth = 100

// TransitiveCallers returns every caller of h, directly or through other
// callers, up to maxDepth hops. Only Calls edges are followed. maxDepth 0
// returns the root alone; negative is an error.
func (q *QueryBuilder) TransitiveCallers(h SignatureHash, maxDepth int) (*CallGraph, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("transitive callers: maxDepth must be non-negative, got %d", maxDepth)
	}
	defer q.e.view(ClassBlastRadius, "TransitiveCallers")()
	return q.e.walkCalls(h, min(maxDepth, maxCallDepth), true)
}

// TransitiveCallees returns everything h calls, directly or indirectly, up
// to maxDepth hops.
func (q *QueryBuilder) TransitiveCallees(h SignatureHash, maxDepth int) (*CallGraph, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("transitive callees: maxDepth must be non-negative, got %d", maxDepth)
	}
	defer q.e.view(ClassBlastRadius, "TransitiveCallees")()
	return q.e.walkCalls(h, min(maxDepth, maxCallDepth), false)
}

// walkCalls runs a depth-limited BFS over Calls edges. reverse walks
// callers, otherwise callees. Caller holds the read lock.
func (e *Engine) walkCalls(root SignatureHash, maxDepth int, reverse bool) (*CallGraph, error) {
	rootNode, err := e.g.Node(root)
	if err != nil {
		return nil, err
	}
	result := &CallGraph{
		Root:  rootNode,
		Nodes: []CallGraphNode{{Entity: rootNode, Depth: 0}},
		Edges: []Edge{},
	}

	neighbors := func(h SignatureHash) []Edge {
		var edges []Edge
		if reverse {
			edges, _ = e.g.InEdges(h)
		} else {
			edges, _ = e.g.OutEdges(h)
		}
		return edges
	}

	visited := map[SignatureHash]int{root: 0}
	queue := []SignatureHash{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		depth := visited[cur]
		if depth >= maxDepth {
			continue
		}
		for _, edge := range neighbors(cur) {
			if edge.Kind != graph.Calls {
				continue
			}
			next := edge.To
			if reverse {
				next = edge.From
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = depth + 1
			result.Depth = max(result.Depth, depth+1)
			queue = append(queue, next)
		}
	}

	var members []CallGraphNode
	for h, d := range visited {
		if h == root {
			continue
		}
		n, err := e.g.Node(h)
		if err != nil {
			continue
		}
		members = append(members, CallGraphNode{Entity: n, Depth: d})
	}
	sort.Slice(members, func(a, b int) bool {
		if members[a].Depth != members[b].Depth {
			return members[a].Depth < members[b].Depth
		}
		na, nb := members[a].Entity, members[b].Entity
		if na.FilePath != nb.FilePath {
			return na.FilePath < nb.FilePath
		}
		if na.Line != nb.Line {
			return na.Line < nb.Line
		}
		return na.Signature < nb.Signature
	})
	result.Nodes = append(result.Nodes, members...)

	// Keep every Calls edge whose endpoints were both visited.
	for h := range visited {
		out, _ := e.g.OutEdges(h)
		for _, edge := range out {
			if edge.Kind != graph.Calls {
				continue
			}
			if _, ok := visited[edge.To]; ok {
				result.Edges = append(result.Edges, edge)
			}
		}
	}
	sort.Slice(result.Edges, func(a, b int) bool {
		if result.Edges[a].From != result.Edges[b].From {
			return result.Edges[a].From < result.Edges[b].From
		}
		return result.Edges[a].To < result.Edges[b].To
	})
	return result, nil
}

// HotspotResult is a heavily referenced entity with its call fan-in and
// fan-out.
type HotspotResult struct {
	Entity      EntityResult
	CallerCount int // direct Calls edges in
	CalleeCount int // direct Calls edges out
}

// Hotspots returns the topN entities with the most incoming references from
// other files. Entities nobody references are skipped.
func (q *QueryBuilder) Hotspots(topN int) ([]*HotspotResult, error) {
	if topN < 0 {
		return nil, fmt.Errorf("hotspots: topN must be non-negative, got %d", topN)
	}
	defer q.e.view(ClassListing, "Hotspots")()
	return q.e.hotspotsLocked(topN), nil
}

func (e *Engine) hotspotsLocked(topN int) []*HotspotResult {
	if topN == 0 {
		return []*HotspotResult{}
	}
	var candidates []EntityResult
	e.g.Each(func(n Node) bool {
		if in, _ := e.g.Degree(n.Hash); in > 0 {
			candidates = append(candidates, e.entityResult(n))
		}
		return true
	})
	sortEntityResults(candidates, Sort{Field: SortByExternalRefCount, Order: Desc})
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	out := make([]*HotspotResult, 0, len(candidates))
	for _, c := range candidates {
		hr := &HotspotResult{Entity: c}
		in, _ := e.g.InEdges(c.Hash)
		for _, edge := range in {
			if edge.Kind == graph.Calls {
				hr.CallerCount++
			}
		}
		outEdges, _ := e.g.OutEdges(c.Hash)
		for _, edge := range outEdges {
			if edge.Kind == graph.Calls {
				hr.CalleeCount++
			}
		}
		out = append(out, hr)
	}
	return out
}

// UnusedEntities returns entities with no incoming edge. Modules are never
// reported since nothing references them directly.
func (q *QueryBuilder) UnusedEntities(filter EntityFilter, sort Sort, page Pagination) (*PagedResult[EntityResult], error) {
	defer q.e.view(ClassListing, "UnusedEntities")()
	keep := func(n Node) bool {
		if n.Kind == graph.KindModule || !filter.matches(n) {
			return false
		}
		in, _ := q.e.g.Degree(n.Hash)
		return in == 0
	}
	return q.e.listLocked(keep, sort, page), nil
}
