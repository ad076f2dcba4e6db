package ripple

import (
	"sort"
	"sync"

	"github.com/jward/ripple/internal/graph"
)

// DataSource is the navigation surface consumers such as workflows and
// formatters depend on. *QueryBuilder serves it from the live graph;
// *FixtureSource serves canned data.
type DataSource interface {
	EntitiesInFile(file string, kind *EntityKind) []Node
	WhereDefined(name string) (FileLocation, bool)
	Candidates(name string) []Node
	Callers(h SignatureHash) ([]Node, error)
	Implementors(h SignatureHash) ([]Node, error)
	Users(h SignatureHash) ([]Node, error)
}

var (
	_ DataSource = (*QueryBuilder)(nil)
	_ DataSource = (*FixtureSource)(nil)
)

// FixtureSource is an in-memory DataSource with no graph behind it. Edges
// whose endpoints were never added are ignored.
type FixtureSource struct {
	mu    sync.RWMutex
	nodes map[SignatureHash]Node
	edges []Edge
}

// NewFixtureSource creates a FixtureSource holding nodes and edges.
func NewFixtureSource(nodes []Node, edges []Edge) *FixtureSource {
	f := &FixtureSource{nodes: make(map[SignatureHash]Node, len(nodes))}
	for _, n := range nodes {
		f.nodes[n.Hash] = n
	}
	f.edges = append(f.edges, edges...)
	return f
}

// Add appends nodes to the fixture, replacing any with the same hash.
func (f *FixtureSource) Add(nodes ...Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range nodes {
		f.nodes[n.Hash] = n
	}
}

// Link appends an edge to the fixture.
func (f *FixtureSource) Link(from, to SignatureHash, kind EdgeKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges = append(f.edges, Edge{From: from, To: to, Kind: kind})
}

// EntitiesInFile returns the fixture nodes in file in line order,
// optionally restricted to one kind.
func (f *FixtureSource) EntitiesInFile(file string, kind *EntityKind) []Node {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := []Node{}
	for _, n := range f.nodes {
		if n.FilePath != file || (kind != nil && n.Kind != *kind) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Hash < out[j].Hash
	})
	return out
}

// WhereDefined returns the location of the first candidate for name.
func (f *FixtureSource) WhereDefined(name string) (FileLocation, bool) {
	c := f.Candidates(name)
	if len(c) == 0 {
		return FileLocation{}, false
	}
	return FileLocation{FilePath: c[0].FilePath, Line: c[0].Line}, true
}

// Candidates returns the nodes named name in (file, line, signature) order.
// "path::Name" restricts the match to one file.
func (f *FixtureSource) Candidates(name string) []Node {
	file, base := graph.SplitQualified(name)
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := []Node{}
	for _, n := range f.nodes {
		if n.Name == base && (file == "" || n.FilePath == file) {
			out = append(out, n)
		}
	}
	graph.SortNodes(out)
	return out
}

// Callers returns the nodes with a Calls edge into h.
func (f *FixtureSource) Callers(h SignatureHash) ([]Node, error) {
	return f.sources(h, Calls)
}

// Implementors returns the nodes with an Implements edge into h.
func (f *FixtureSource) Implementors(h SignatureHash) ([]Node, error) {
	return f.sources(h, Implements)
}

// Users returns the nodes with a Uses edge into h.
func (f *FixtureSource) Users(h SignatureHash) ([]Node, error) {
	return f.sources(h, Uses)
}

func (f *FixtureSource) sources(h SignatureHash, kind EdgeKind) ([]Node, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.nodes[h]; !ok {
		return nil, &NodeNotFoundError{Hash: h}
	}
	seen := map[SignatureHash]bool{}
	out := []Node{}
	for _, e := range f.edges {
		if e.To != h || e.Kind != kind || seen[e.From] {
			continue
		}
		if n, ok := f.nodes[e.From]; ok {
			seen[e.From] = true
			out = append(out, n)
		}
	}
	graph.SortNodes(out)
	return out, nil
}
