package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fn(name, file string, line int) Node {
	return NewNode(KindFunction, name, "fn "+name+"()", file, line)
}

func mustEdge(t *testing.T, g *Graph, from, to Node, kind EdgeKind) {
	t.Helper()
	require.NoError(t, g.UpsertEdge(from.Hash, to.Hash, kind))
}

func TestUpsertNode_InsertThenReplace(t *testing.T) {
	t.Parallel()
	g := New()

	n := fn("main", "src/main.rs", 1)
	assert.False(t, g.UpsertNode(n))
	assert.Equal(t, 1, g.NodeCount())

	moved := n
	moved.Line = 42
	assert.True(t, g.UpsertNode(moved), "same hash must replace")
	assert.Equal(t, 1, g.NodeCount())

	got, err := g.Node(n.Hash)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Line)
}

func TestUpsertNode_ReplaceKeepsEdges(t *testing.T) {
	t.Parallel()
	g := New()
	a, b := fn("a", "a.rs", 1), fn("b", "b.rs", 1)
	g.UpsertNode(a)
	g.UpsertNode(b)
	mustEdge(t, g, a, b, Calls)

	b.Line = 7
	g.UpsertNode(b)
	assert.Equal(t, 1, g.EdgeCount())
	assert.True(t, g.HasEdge(a.Hash, b.Hash, Calls))
}

func TestUpsertEdge_MissingEndpoint(t *testing.T) {
	t.Parallel()
	g := New()
	a, ghost := fn("a", "a.rs", 1), fn("ghost", "g.rs", 1)
	g.UpsertNode(a)

	err := g.UpsertEdge(a.Hash, ghost.Hash, Calls)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNodeNotFound))
	var nf *NodeNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, ghost.Hash, nf.Hash)

	err = g.UpsertEdge(ghost.Hash, a.Hash, Uses)
	require.ErrorIs(t, err, ErrNodeNotFound)
	assert.Equal(t, 0, g.EdgeCount(), "rejected edges must not be stored")
}

func TestUpsertEdge_Idempotent(t *testing.T) {
	t.Parallel()
	g := New()
	a, b := fn("a", "a.rs", 1), fn("b", "b.rs", 1)
	g.UpsertNode(a)
	g.UpsertNode(b)

	for range 3 {
		mustEdge(t, g, a, b, Calls)
	}
	assert.Equal(t, 1, g.EdgeCount())

	// A different kind between the same pair is a distinct edge.
	mustEdge(t, g, a, b, Uses)
	assert.Equal(t, 2, g.EdgeCount())

	in, err := g.InEdges(b.Hash)
	require.NoError(t, err)
	assert.Len(t, in, 2)
}

func TestGetNode_NotFound(t *testing.T) {
	t.Parallel()
	g := New()
	_, err := g.Node(HashSignature("nothing"))
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestSelfReferentialEdge(t *testing.T) {
	t.Parallel()
	g := New()
	rec := fn("recurse", "r.rs", 1)
	g.UpsertNode(rec)
	mustEdge(t, g, rec, rec, Calls)

	out, err := g.OutEdges(rec.Hash)
	require.NoError(t, err)
	assert.Equal(t, []Edge{{From: rec.Hash, To: rec.Hash, Kind: Calls}}, out)

	assert.True(t, g.RemoveNode(rec.Hash))
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestRemoveNode_DropsIncidentEdgesAndReusesSlot(t *testing.T) {
	t.Parallel()
	g := New()
	a, b, c := fn("a", "x.rs", 1), fn("b", "x.rs", 2), fn("c", "y.rs", 1)
	for _, n := range []Node{a, b, c} {
		g.UpsertNode(n)
	}
	mustEdge(t, g, a, b, Calls)
	mustEdge(t, g, b, c, Calls)
	mustEdge(t, g, c, a, Uses)

	require.True(t, g.RemoveNode(b.Hash))
	assert.False(t, g.RemoveNode(b.Hash))
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())

	out, err := g.OutEdges(a.Hash)
	require.NoError(t, err)
	assert.Empty(t, out)

	slots := len(g.slots)
	g.UpsertNode(fn("d", "z.rs", 1))
	assert.Equal(t, slots, len(g.slots), "freed slot should be reused")
}

func TestRemoveFile(t *testing.T) {
	t.Parallel()
	g := New()
	a, b, c := fn("a", "x.rs", 1), fn("b", "x.rs", 2), fn("c", "y.rs", 1)
	for _, n := range []Node{a, b, c} {
		g.UpsertNode(n)
	}
	mustEdge(t, g, c, a, Calls)

	removed := g.RemoveFile("x.rs")
	assert.ElementsMatch(t, []SignatureHash{a.Hash, b.Hash}, removed)
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Empty(t, g.RemoveFile("missing.rs"))
}

func TestNodesAndEdges_SortedOutput(t *testing.T) {
	t.Parallel()
	g := New()
	nodes := []Node{fn("c", "c.rs", 1), fn("a", "a.rs", 1), fn("b", "b.rs", 1)}
	for _, n := range nodes {
		g.UpsertNode(n)
	}
	mustEdge(t, g, nodes[0], nodes[1], Calls)
	mustEdge(t, g, nodes[2], nodes[1], Calls)

	got := g.Nodes()
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.Less(t, uint64(got[i-1].Hash), uint64(got[i].Hash))
	}

	edges := g.Edges()
	require.Len(t, edges, 2)
	assert.Less(t, uint64(edges[0].From), uint64(edges[1].From))
}

func TestEmptyGraph(t *testing.T) {
	t.Parallel()
	g := New()
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Edges())
	_, err := g.InEdges(HashSignature("x"))
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestEachAndDegree(t *testing.T) {
	t.Parallel()
	g := New()
	a, b, c := fn("a", "x.rs", 1), fn("b", "x.rs", 2), fn("c", "x.rs", 3)
	for _, n := range []Node{a, b, c} {
		g.UpsertNode(n)
	}
	mustEdge(t, g, a, b, Calls)
	mustEdge(t, g, c, b, Uses)
	mustEdge(t, g, b, c, Calls)

	seen := 0
	g.Each(func(Node) bool { seen++; return true })
	assert.Equal(t, 3, seen)

	seen = 0
	g.Each(func(Node) bool { seen++; return false })
	assert.Equal(t, 1, seen)

	in, out := g.Degree(b.Hash)
	assert.Equal(t, 2, in)
	assert.Equal(t, 1, out)
	in, out = g.Degree(HashSignature("missing"))
	assert.Zero(t, in)
	assert.Zero(t, out)
}
