package graph

import (
	"slices"
	"sort"
)

// edgeRef is one adjacency entry: the slot on the other end and the kind.
type edgeRef struct {
	peer int32
	kind EdgeKind
}

// edgeKey identifies an edge for idempotent insertion.
type edgeKey struct {
	from, to SignatureHash
	kind     EdgeKind
}

// slot is one arena cell. Dead slots sit on the free list until reused.
type slot struct {
	node  Node
	alive bool
	out   []edgeRef
	in    []edgeRef
}

// Graph is the directed relationship graph. Nodes live in a flat arena and
// every relationship is expressed as arena positions; pos resolves a hash to
// its position in O(1).
//
// Graph is not safe for concurrent use. The Engine in the root package owns
// the only instance and guards it with a single RWMutex.
type Graph struct {
	slots []slot
	free  []int32
	pos   map[SignatureHash]int32
	edges map[edgeKey]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		pos:   make(map[SignatureHash]int32),
		edges: make(map[edgeKey]struct{}),
	}
}

// UpsertNode inserts n, or replaces the record stored under n.Hash. Edges
// attached to an existing node are kept. Reports whether a node was replaced.
func (g *Graph) UpsertNode(n Node) bool {
	if i, ok := g.pos[n.Hash]; ok {
		g.slots[i].node = n
		return true
	}
	var i int32
	if k := len(g.free); k > 0 {
		i = g.free[k-1]
		g.free = g.free[:k-1]
		g.slots[i] = slot{node: n, alive: true}
	} else {
		i = int32(len(g.slots))
		g.slots = append(g.slots, slot{node: n, alive: true})
	}
	g.pos[n.Hash] = i
	return false
}

// UpsertEdge inserts the edge from -> to of the given kind. Both endpoints
// must already exist; inserting an existing triple is a no-op.
func (g *Graph) UpsertEdge(from, to SignatureHash, kind EdgeKind) error {
	fi, ok := g.pos[from]
	if !ok {
		return &NodeNotFoundError{Hash: from}
	}
	ti, ok := g.pos[to]
	if !ok {
		return &NodeNotFoundError{Hash: to}
	}
	key := edgeKey{from: from, to: to, kind: kind}
	if _, dup := g.edges[key]; dup {
		return nil
	}
	g.edges[key] = struct{}{}
	g.slots[fi].out = append(g.slots[fi].out, edgeRef{peer: ti, kind: kind})
	g.slots[ti].in = append(g.slots[ti].in, edgeRef{peer: fi, kind: kind})
	return nil
}

// Node returns the node stored under h.
func (g *Graph) Node(h SignatureHash) (Node, error) {
	i, ok := g.pos[h]
	if !ok {
		return Node{}, &NodeNotFoundError{Hash: h}
	}
	return g.slots[i].node, nil
}

// Has reports whether h is in the graph.
func (g *Graph) Has(h SignatureHash) bool {
	_, ok := g.pos[h]
	return ok
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return len(g.pos) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// HasEdge reports whether the exact triple exists.
func (g *Graph) HasEdge(from, to SignatureHash, kind EdgeKind) bool {
	_, ok := g.edges[edgeKey{from: from, to: to, kind: kind}]
	return ok
}

// OutEdges returns the edges leaving h, sorted by (kind, target hash).
func (g *Graph) OutEdges(h SignatureHash) ([]Edge, error) {
	i, ok := g.pos[h]
	if !ok {
		return nil, &NodeNotFoundError{Hash: h}
	}
	edges := make([]Edge, 0, len(g.slots[i].out))
	for _, r := range g.slots[i].out {
		edges = append(edges, Edge{From: h, To: g.slots[r.peer].node.Hash, Kind: r.kind})
	}
	sortEdges(edges)
	return edges, nil
}

// InEdges returns the edges entering h, sorted by (kind, source hash).
func (g *Graph) InEdges(h SignatureHash) ([]Edge, error) {
	i, ok := g.pos[h]
	if !ok {
		return nil, &NodeNotFoundError{Hash: h}
	}
	edges := make([]Edge, 0, len(g.slots[i].in))
	for _, r := range g.slots[i].in {
		edges = append(edges, Edge{From: g.slots[r.peer].node.Hash, To: h, Kind: r.kind})
	}
	sortEdges(edges)
	return edges, nil
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].Kind != edges[b].Kind {
			return edges[a].Kind < edges[b].Kind
		}
		if edges[a].From != edges[b].From {
			return edges[a].From < edges[b].From
		}
		return edges[a].To < edges[b].To
	})
}

// Nodes returns every live node in ascending hash order.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, 0, len(g.pos))
	for _, s := range g.slots {
		if s.alive {
			nodes = append(nodes, s.node)
		}
	}
	sort.Slice(nodes, func(a, b int) bool { return nodes[a].Hash < nodes[b].Hash })
	return nodes
}

// Each calls fn for every live node in arena order until fn returns false.
// The order is not stable across removals; sort the output if it matters.
func (g *Graph) Each(fn func(Node) bool) {
	for _, s := range g.slots {
		if s.alive && !fn(s.node) {
			return
		}
	}
}

// Degree returns the number of edges entering and leaving h. Unknown hashes
// report zero.
func (g *Graph) Degree(h SignatureHash) (in, out int) {
	i, ok := g.pos[h]
	if !ok {
		return 0, 0
	}
	return len(g.slots[i].in), len(g.slots[i].out)
}

// Edges returns every edge sorted by (from, to, kind).
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for k := range g.edges {
		edges = append(edges, Edge{From: k.from, To: k.to, Kind: k.kind})
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].From != edges[b].From {
			return edges[a].From < edges[b].From
		}
		if edges[a].To != edges[b].To {
			return edges[a].To < edges[b].To
		}
		return edges[a].Kind < edges[b].Kind
	})
	return edges
}

// RemoveNode drops h and every incident edge. Reports whether h existed.
func (g *Graph) RemoveNode(h SignatureHash) bool {
	i, ok := g.pos[h]
	if !ok {
		return false
	}
	s := &g.slots[i]
	for _, r := range s.out {
		peer := &g.slots[r.peer]
		delete(g.edges, edgeKey{from: h, to: peer.node.Hash, kind: r.kind})
		if r.peer != i {
			peer.in = removeRef(peer.in, i, r.kind)
		}
	}
	for _, r := range s.in {
		peer := &g.slots[r.peer]
		delete(g.edges, edgeKey{from: peer.node.Hash, to: h, kind: r.kind})
		if r.peer != i {
			peer.out = removeRef(peer.out, i, r.kind)
		}
	}
	g.slots[i] = slot{}
	g.free = append(g.free, i)
	delete(g.pos, h)
	return true
}

// RemoveFile drops every node defined in path. Returns the removed hashes in
// ascending order.
func (g *Graph) RemoveFile(path string) []SignatureHash {
	var doomed []SignatureHash
	for _, s := range g.slots {
		if s.alive && s.node.FilePath == path {
			doomed = append(doomed, s.node.Hash)
		}
	}
	slices.Sort(doomed)
	for _, h := range doomed {
		g.RemoveNode(h)
	}
	return doomed
}

func removeRef(refs []edgeRef, peer int32, kind EdgeKind) []edgeRef {
	for j, r := range refs {
		if r.peer == peer && r.kind == kind {
			return append(refs[:j], refs[j+1:]...)
		}
	}
	return refs
}
