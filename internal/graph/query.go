package graph

import (
	"slices"
	"sort"
	"strings"
)

// QueryEngine answers read-only questions over a Graph and its Indexes.
// It holds no state of its own; callers are responsible for locking.
type QueryEngine struct {
	g  *Graph
	ix *Indexes
}

// NewQueryEngine binds a query engine to g and ix.
func NewQueryEngine(g *Graph, ix *Indexes) *QueryEngine {
	return &QueryEngine{g: g, ix: ix}
}

// BlastMember is one entity in a blast radius. Depth is the shortest number
// of hops to the target; Via is the kind of the edge through which the
// member entered the radius.
type BlastMember struct {
	Hash  SignatureHash
	Depth int
	Via   EdgeKind
}

// precedence ranks edge kinds when several compete for one label.
func precedence(k EdgeKind) int {
	return slices.Index(edgeKindOrder, k)
}

// BlastRadius returns every node with a directed path into target, in
// ascending hash order. The target itself is included only when a cycle
// leads back to it.
func (q *QueryEngine) BlastRadius(target SignatureHash) ([]SignatureHash, error) {
	members, err := q.BlastRadiusDetailed(target)
	if err != nil {
		return nil, err
	}
	out := make([]SignatureHash, len(members))
	for i, m := range members {
		out[i] = m.Hash
	}
	return out, nil
}

// BlastRadiusDetailed runs a level-synchronous reverse BFS from target. Each
// level is settled before the next begins and competing entry edges are
// resolved by kind precedence, so depth and label do not depend on insertion
// or iteration order. Members are returned sorted by hash.
func (q *QueryEngine) BlastRadiusDetailed(target SignatureHash) ([]BlastMember, error) {
	ti, ok := q.g.pos[target]
	if !ok {
		return nil, &NodeNotFoundError{Hash: target}
	}

	visited := map[int32]struct{}{ti: {}}
	var members []BlastMember
	targetSeen := false
	frontier := []int32{ti}

	for depth := 1; len(frontier) > 0; depth++ {
		next := make(map[int32]EdgeKind)
		for _, p := range frontier {
			for _, r := range q.g.slots[p].in {
				if r.peer == ti && !targetSeen {
					if k, ok := next[ti]; !ok || precedence(r.kind) < precedence(k) {
						next[ti] = r.kind
					}
					continue
				}
				if _, seen := visited[r.peer]; seen {
					continue
				}
				if k, ok := next[r.peer]; !ok || precedence(r.kind) < precedence(k) {
					next[r.peer] = r.kind
				}
			}
		}

		frontier = frontier[:0]
		for p, kind := range next {
			members = append(members, BlastMember{Hash: q.g.slots[p].node.Hash, Depth: depth, Via: kind})
			if p == ti {
				// Already expanded at depth 0.
				targetSeen = true
				continue
			}
			visited[p] = struct{}{}
			frontier = append(frontier, p)
		}
	}

	sort.Slice(members, func(a, b int) bool { return members[a].Hash < members[b].Hash })
	return members, nil
}

// directNeighbors returns the sources of edges of the given kind entering h.
func (q *QueryEngine) directNeighbors(h SignatureHash, kind EdgeKind) ([]Node, error) {
	i, ok := q.g.pos[h]
	if !ok {
		return nil, &NodeNotFoundError{Hash: h}
	}
	var out []Node
	for _, r := range q.g.slots[i].in {
		if r.kind == kind {
			out = append(out, q.g.slots[r.peer].node)
		}
	}
	SortNodes(out)
	return out, nil
}

// FindCallers returns the direct predecessors of h linked by a Calls edge.
func (q *QueryEngine) FindCallers(h SignatureHash) ([]Node, error) {
	return q.directNeighbors(h, Calls)
}

// FindImplementors returns the entities with an Implements edge into h.
func (q *QueryEngine) FindImplementors(h SignatureHash) ([]Node, error) {
	return q.directNeighbors(h, Implements)
}

// FindUsers returns the entities with a Uses edge into h.
func (q *QueryEngine) FindUsers(h SignatureHash) ([]Node, error) {
	return q.directNeighbors(h, Uses)
}

// DetectRelationshipType labels the relationship between source and
// candidate. A direct edge candidate -> source wins, then source ->
// candidate, each checked in kind precedence order. With no direct edge the
// result is Uses; multi-hop members of a blast radius land here.
func (q *QueryEngine) DetectRelationshipType(source, candidate SignatureHash) (EdgeKind, error) {
	if !q.g.Has(source) {
		return 0, &NodeNotFoundError{Hash: source}
	}
	if !q.g.Has(candidate) {
		return 0, &NodeNotFoundError{Hash: candidate}
	}
	for _, k := range edgeKindOrder {
		if q.g.HasEdge(candidate, source, k) {
			return k, nil
		}
	}
	for _, k := range edgeKindOrder {
		if q.g.HasEdge(source, candidate, k) {
			return k, nil
		}
	}
	return Uses, nil
}

// FindByName returns every hash named name, in ascending hash order.
func (q *QueryEngine) FindByName(name string) []SignatureHash {
	return q.ix.Names.Lookup(name)
}

// SplitQualified splits "path::Name" into its parts. Unqualified names return
// an empty path.
func SplitQualified(name string) (path, base string) {
	if i := strings.LastIndex(name, "::"); i > 0 {
		return name[:i], name[i+2:]
	}
	return "", name
}

// Candidates returns the nodes matching name, ordered by (file, line,
// signature). A "path::Name" input keeps only entities defined in path.
func (q *QueryEngine) Candidates(name string) []Node {
	path, base := SplitQualified(name)
	hashes := q.ix.Names.Lookup(base)
	out := make([]Node, 0, len(hashes))
	for _, h := range hashes {
		n := q.g.slots[q.g.pos[h]].node
		if path != "" && n.FilePath != path {
			continue
		}
		out = append(out, n)
	}
	SortNodes(out)
	return out
}

// ResolveEntity maps a name to a single node. Zero matches is an
// EntityNotFoundError. With several matches the first candidate wins and the
// rest are returned as alternatives, unless strict is set, in which case an
// AmbiguousEntityError is returned.
func (q *QueryEngine) ResolveEntity(name string, strict bool) (Node, []Node, error) {
	cands := q.Candidates(name)
	switch {
	case len(cands) == 0:
		return Node{}, nil, &EntityNotFoundError{Name: name}
	case len(cands) > 1 && strict:
		locs := make([]FileLocation, len(cands))
		for i, c := range cands {
			locs[i] = FileLocation{FilePath: c.FilePath, Line: c.Line}
		}
		return Node{}, nil, &AmbiguousEntityError{Name: name, Candidates: locs}
	}
	return cands[0], cands[1:], nil
}

// EntitiesInFile returns the nodes defined in path in ascending line order,
// optionally restricted to one kind.
func (q *QueryEngine) EntitiesInFile(path string, kind *EntityKind) []Node {
	hashes := q.ix.Files.Lookup(path, kind)
	out := make([]Node, len(hashes))
	for i, h := range hashes {
		out[i] = q.g.slots[q.g.pos[h]].node
	}
	return out
}

// WhereDefined returns the location of the first candidate for name.
func (q *QueryEngine) WhereDefined(name string) (FileLocation, bool) {
	cands := q.Candidates(name)
	if len(cands) == 0 {
		return FileLocation{}, false
	}
	return FileLocation{FilePath: cands[0].FilePath, Line: cands[0].Line}, true
}

// Lookup resolves hashes to nodes, skipping any that are absent.
func (q *QueryEngine) Lookup(hashes []SignatureHash) []Node {
	out := make([]Node, 0, len(hashes))
	for _, h := range hashes {
		if i, ok := q.g.pos[h]; ok {
			out = append(out, q.g.slots[i].node)
		}
	}
	return out
}

// SortNodes orders nodes by (file, line, signature).
func SortNodes(nodes []Node) {
	sort.Slice(nodes, func(a, b int) bool {
		if nodes[a].FilePath != nodes[b].FilePath {
			return nodes[a].FilePath < nodes[b].FilePath
		}
		if nodes[a].Line != nodes[b].Line {
			return nodes[a].Line < nodes[b].Line
		}
		return nodes[a].Signature < nodes[b].Signature
	})
}
