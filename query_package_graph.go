package ripple

import (
	"fmt"
	"path"
	"sort"
)

// DependencyGraph is the directory-to-directory dependency graph, aggregated
// from entity relationships that cross directory boundaries.
type DependencyGraph struct {
	Packages []PackageNode
	Edges    []DependencyEdge
}

// PackageNode is one source directory.
type PackageNode struct {
	Name        string // directory, "." for the root
	FileCount   int
	EntityCount int
}

// DependencyEdge means some entity in FromPackage calls, uses or implements
// an entity in ToPackage. EdgeCount is the number of entity-level edges
// behind it.
type DependencyEdge struct {
	FromPackage string
	ToPackage   string
	EdgeCount   int
}

// packageOf maps a file path to its directory.
func packageOf(file string) string {
	return path.Dir(file)
}

// PackageDependencyGraph folds the entity graph into directories. Edges
// inside one directory are not reported.
func (q *QueryBuilder) PackageDependencyGraph() (*DependencyGraph, error) {
	defer q.e.view(ClassListing, "PackageDependencyGraph")()
	return q.e.packageGraphLocked()
}

func (e *Engine) packageGraphLocked() (*DependencyGraph, error) {
	files := map[string]int{}
	entities := map[string]int{}
	for _, f := range e.ix.Files.Files() {
		pkg := packageOf(f)
		files[pkg]++
		entities[pkg] += e.ix.Files.Count(f)
	}

	type edgeKey struct{ from, to string }
	counts := map[edgeKey]int{}
	for _, edge := range e.g.Edges() {
		src, err := e.g.Node(edge.From)
		if err != nil {
			return nil, fmt.Errorf("package dependency graph: %w", err)
		}
		dst, err := e.g.Node(edge.To)
		if err != nil {
			return nil, fmt.Errorf("package dependency graph: %w", err)
		}
		from, to := packageOf(src.FilePath), packageOf(dst.FilePath)
		if from == to {
			continue
		}
		counts[edgeKey{from, to}]++
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	g := &DependencyGraph{
		Packages: make([]PackageNode, 0, len(names)),
		Edges:    make([]DependencyEdge, 0, len(counts)),
	}
	for _, name := range names {
		g.Packages = append(g.Packages, PackageNode{
			Name:        name,
			FileCount:   files[name],
			EntityCount: entities[name],
		})
	}
	for k, c := range counts {
		g.Edges = append(g.Edges, DependencyEdge{FromPackage: k.from, ToPackage: k.to, EdgeCount: c})
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].FromPackage != g.Edges[j].FromPackage {
			return g.Edges[i].FromPackage < g.Edges[j].FromPackage
		}
		return g.Edges[i].ToPackage < g.Edges[j].ToPackage
	})
	return g, nil
}

// CircularDependencies returns the directory cycles of the dependency graph,
// found with Tarjan's strongly connected components algorithm. Each cycle
// lists its directories with the first repeated at the end. An acyclic graph
// yields an empty slice.
func (q *QueryBuilder) CircularDependencies() ([][]string, error) {
	defer q.e.view(ClassListing, "CircularDependencies")()
	g, err := q.e.packageGraphLocked()
	if err != nil {
		return nil, fmt.Errorf("circular dependencies: %w", err)
	}
	return stronglyConnected(g), nil
}

func stronglyConnected(g *DependencyGraph) [][]string {
	adj := map[string][]string{}
	for _, edge := range g.Edges {
		adj[edge.FromPackage] = append(adj[edge.FromPackage], edge.ToPackage)
	}

	type state struct {
		index, lowlink int
		onStack        bool
	}
	info := map[string]*state{}
	next := 0
	var stack []string
	cycles := [][]string{}

	var visit func(v string)
	visit = func(v string) {
		s := &state{index: next, lowlink: next, onStack: true}
		info[v] = s
		next++
		stack = append(stack, v)

		for _, w := range adj[v] {
			ws, seen := info[w]
			if !seen {
				visit(w)
				s.lowlink = min(s.lowlink, info[w].lowlink)
			} else if ws.onStack {
				s.lowlink = min(s.lowlink, ws.index)
			}
		}
		if s.lowlink != s.index {
			return
		}

		var scc []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			info[w].onStack = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		// Self-edges never appear in the graph, so a cycle needs two members.
		if len(scc) < 2 {
			return
		}
		for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
			scc[i], scc[j] = scc[j], scc[i]
		}
		cycles = append(cycles, append(scc, scc[0]))
	}

	for _, p := range g.Packages {
		if _, seen := info[p.Name]; !seen {
			visit(p.Name)
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}
