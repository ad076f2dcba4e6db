package ripple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageDependencyGraph(t *testing.T) {
	p := newProject(t)

	g, err := p.e.Query().PackageDependencyGraph()
	require.NoError(t, err)
	assert.Equal(t, []PackageNode{
		{Name: "src", FileCount: 1, EntityCount: 1},
		{Name: "src/database", FileCount: 1, EntityCount: 2},
		{Name: "src/services", FileCount: 1, EntityCount: 2},
		{Name: "tests", FileCount: 1, EntityCount: 1},
	}, g.Packages)
	assert.Equal(t, []DependencyEdge{
		{FromPackage: "src", ToPackage: "src/services", EdgeCount: 2},
		{FromPackage: "src/services", ToPackage: "src/database", EdgeCount: 2},
		{FromPackage: "tests", ToPackage: "src/services", EdgeCount: 1},
	}, g.Edges)
}

func TestPackageDependencyGraph_Empty(t *testing.T) {
	g, err := New().Query().PackageDependencyGraph()
	require.NoError(t, err)
	assert.Empty(t, g.Packages)
	assert.Empty(t, g.Edges)
}

func TestCircularDependencies(t *testing.T) {
	p := newProject(t)
	q := p.e.Query()

	cycles, err := q.CircularDependencies()
	require.NoError(t, err)
	assert.NotNil(t, cycles)
	assert.Empty(t, cycles)

	link(t, p.e, p.connect, p.svc, Uses)
	cycles, err = q.CircularDependencies()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"src/services", "src/database", "src/services"}}, cycles)
}

func TestCircularDependencies_SameDirectoryIsNotACycle(t *testing.T) {
	e := New()
	a := e.AddEntity(KindFunction, "a", "pkg/a.go::func a()", "pkg/a.go", 1)
	b := e.AddEntity(KindFunction, "b", "pkg/b.go::func b()", "pkg/b.go", 1)
	link(t, e, a, b, Calls)
	link(t, e, b, a, Calls)

	cycles, err := e.Query().CircularDependencies()
	require.NoError(t, err)
	assert.Empty(t, cycles)
}
