package graph

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// determinismFixture is checked in and compared on every CI platform; a hash
// or traversal that drifts between operating systems or architectures fails
// here.
type determinismFixture struct {
	Hashes []struct {
		Signature string `json:"signature"`
		Hash      string `json:"hash"`
	} `json:"hashes"`
	Graph struct {
		Nodes []struct {
			Kind      string `json:"kind"`
			Name      string `json:"name"`
			Signature string `json:"signature"`
			File      string `json:"file"`
			Line      int    `json:"line"`
		} `json:"nodes"`
		Edges []struct {
			From string `json:"from"`
			To   string `json:"to"`
			Kind string `json:"kind"`
		} `json:"edges"`
	} `json:"graph"`
	BlastRadius []struct {
		Target  string   `json:"target"`
		Members []string `json:"members"`
	} `json:"blast_radius"`
}

func loadDeterminismFixture(t *testing.T) determinismFixture {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "determinism.json"))
	require.NoError(t, err)
	var fx determinismFixture
	require.NoError(t, json.Unmarshal(data, &fx))
	return fx
}

func TestHashSignature_GoldenValues(t *testing.T) {
	t.Parallel()
	fx := loadDeterminismFixture(t)
	require.NotEmpty(t, fx.Hashes)

	for _, tc := range fx.Hashes {
		assert.Equal(t, tc.Hash, HashSignature(tc.Signature).String(), "signature %q", tc.Signature)
	}
}

func TestHashSignature_Repeatable(t *testing.T) {
	t.Parallel()
	first := HashSignature("fn main()")
	for range 1000 {
		require.Equal(t, first, HashSignature("fn main()"))
	}
	assert.NotEqual(t, first, HashSignature("fn main( )"))
}

func TestCanonicalSignature_NormalizesWhitespace(t *testing.T) {
	t.Parallel()
	a := CanonicalSignature("src/lib.rs", "pub fn  run(\n\tx: u32)")
	b := CanonicalSignature("src/lib.rs", "pub fn run( x: u32)")
	assert.Equal(t, "src/lib.rs::pub fn run( x: u32)", a)
	assert.Equal(t, HashSignature(a), HashSignature(b))
}

// buildFixtureGraph inserts the fixture in a shuffled order.
func buildFixtureGraph(t *testing.T, fx determinismFixture, seed int64) (*Graph, *QueryEngine) {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	g := New()

	nodes := fx.Graph.Nodes
	r.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
	for _, n := range nodes {
		kind, ok := ParseEntityKind(n.Kind)
		require.True(t, ok, n.Kind)
		g.UpsertNode(NewNode(kind, n.Name, n.Signature, n.File, n.Line))
	}

	edges := fx.Graph.Edges
	r.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })
	for _, e := range edges {
		kind, ok := ParseEdgeKind(e.Kind)
		require.True(t, ok, e.Kind)
		require.NoError(t, g.UpsertEdge(HashSignature(e.From), HashSignature(e.To), kind))
	}
	return g, NewQueryEngine(g, BuildIndexes(g))
}

func TestBlastRadius_GoldenAndOrderIndependent(t *testing.T) {
	t.Parallel()

	for seed := int64(1); seed <= 20; seed++ {
		fx := loadDeterminismFixture(t)
		_, q := buildFixtureGraph(t, fx, seed)

		for _, tc := range fx.BlastRadius {
			got, err := q.BlastRadius(HashSignature(tc.Target))
			require.NoError(t, err)

			var sigs []string
			for _, n := range q.Lookup(got) {
				sigs = append(sigs, n.Signature)
			}
			assert.ElementsMatch(t, tc.Members, sigs, "seed %d target %q", seed, tc.Target)
		}
	}
}

func TestBlastRadiusDetailed_StableAcrossInsertionOrders(t *testing.T) {
	t.Parallel()
	fx := loadDeterminismFixture(t)
	_, ref := buildFixtureGraph(t, fx, 0)
	want, err := ref.BlastRadiusDetailed(HashSignature("trait Database"))
	require.NoError(t, err)

	for seed := int64(1); seed <= 10; seed++ {
		fx := loadDeterminismFixture(t)
		_, q := buildFixtureGraph(t, fx, seed)
		got, err := q.BlastRadiusDetailed(HashSignature("trait Database"))
		require.NoError(t, err)
		assert.Equal(t, want, got, "seed %d", seed)
	}
}
