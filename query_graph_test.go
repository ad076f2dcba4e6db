package ripple

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callGraphNames(cg *CallGraph) []string {
	out := make([]string, len(cg.Nodes))
	for i, n := range cg.Nodes {
		out[i] = fmt.Sprintf("%s@%d", n.Entity.Name, n.Depth)
	}
	return out
}

func TestTransitiveCallers(t *testing.T) {
	p := newProject(t)
	q := p.e.Query()

	cg, err := q.TransitiveCallers(p.connect.Hash, 5)
	require.NoError(t, err)
	assert.Equal(t, "connect", cg.Root.Name)
	assert.Equal(t, []string{"connect@0", "create@1", "main@2"}, callGraphNames(cg))
	assert.Equal(t, 2, cg.Depth)
	assert.Len(t, cg.Edges, 2)

	cg, err = q.TransitiveCallers(p.connect.Hash, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"connect@0", "create@1"}, callGraphNames(cg))

	cg, err = q.TransitiveCallers(p.connect.Hash, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"connect@0"}, callGraphNames(cg))
	assert.Empty(t, cg.Edges)
}

func TestTransitiveCallers_IgnoresOtherKinds(t *testing.T) {
	p := newProject(t)

	// test_user_creation only uses UserService.
	cg, err := p.e.Query().TransitiveCallers(p.svc.Hash, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"UserService@0", "main@1"}, callGraphNames(cg))
}

func TestTransitiveCallees(t *testing.T) {
	p := newProject(t)

	cg, err := p.e.Query().TransitiveCallees(p.main.Hash, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"main@0", "UserService@1", "create@1", "connect@2"}, callGraphNames(cg))
	assert.Len(t, cg.Edges, 3)
}

func TestTransitiveCalls_Errors(t *testing.T) {
	p := newProject(t)
	q := p.e.Query()

	_, err := q.TransitiveCallers(p.main.Hash, -1)
	assert.Error(t, err)
	_, err = q.TransitiveCallees(p.main.Hash, -1)
	assert.Error(t, err)
	_, err = q.TransitiveCallees(HashSignature("missing"), 3)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestTransitiveCallers_Cycle(t *testing.T) {
	e := New()
	a := e.AddEntity(KindFunction, "a", "c.go::func a()", "c.go", 1)
	b := e.AddEntity(KindFunction, "b", "c.go::func b()", "c.go", 2)
	link(t, e, a, b, Calls)
	link(t, e, b, a, Calls)

	cg, err := e.Query().TransitiveCallers(a.Hash, maxCallDepth+50)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@0", "b@1"}, callGraphNames(cg))
	assert.Len(t, cg.Edges, 2)
}

func TestHotspots(t *testing.T) {
	p := newProject(t)
	q := p.e.Query()

	hs, err := q.Hotspots(10)
	require.NoError(t, err)
	require.Len(t, hs, 4)
	assert.Equal(t, "UserService", hs[0].Entity.Name)
	assert.Equal(t, 1, hs[0].CallerCount)
	assert.Equal(t, 0, hs[0].CalleeCount)

	hs, err = q.Hotspots(0)
	require.NoError(t, err)
	assert.Empty(t, hs)

	_, err = q.Hotspots(-1)
	assert.Error(t, err)
}

func TestUnusedEntities(t *testing.T) {
	p := newProject(t)
	p.e.AddEntity(KindModule, "services", "src/services/mod.rs::mod services", "src/services/mod.rs", 1)

	res, err := p.e.Query().UnusedEntities(EntityFilter{}, Sort{Field: SortByName}, Pagination{})
	require.NoError(t, err)
	got := make([]string, len(res.Items))
	for i, it := range res.Items {
		got[i] = it.Name
	}
	assert.Equal(t, []string{"main", "test_user_creation"}, got)
}
