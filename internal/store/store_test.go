package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ripple/internal/graph"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// fileSpec describes one file's extraction output for replaceFile.
type fileSpec struct {
	path     string
	entities []Entity
	refs     []Reference
}

func entity(kind graph.EntityKind, name, path, header string, line int) Entity {
	return Entity{Kind: string(kind), Name: name, Signature: graph.CanonicalSignature(path, header), Line: line}
}

func replaceFile(t *testing.T, s *Store, spec fileSpec) int64 {
	t.Helper()
	b := NewBatchedStore()
	for _, e := range spec.entities {
		_, err := b.InsertEntity(&e)
		require.NoError(t, err)
	}
	for _, r := range spec.refs {
		_, err := b.InsertReference(&r)
		require.NoError(t, err)
	}
	id, err := s.ReplaceFile(&File{
		Path: spec.path, Language: "rust", Hash: ContentHash([]byte(spec.path)), LastIndexed: time.Now(),
	}, b)
	require.NoError(t, err)
	require.Positive(t, id)
	return id
}

// seedUserService stores the classic main / UserService / Database example.
func seedUserService(t *testing.T, s *Store) {
	t.Helper()
	replaceFile(t, s, fileSpec{
		path:     "src/main.rs",
		entities: []Entity{entity(graph.KindFunction, "main", "src/main.rs", "fn main()", 1)},
		refs: []Reference{{
			FromSignature: graph.CanonicalSignature("src/main.rs", "fn main()"),
			Name:          "UserService", Kind: RefCall, Line: 2,
		}},
	})
	replaceFile(t, s, fileSpec{
		path:     "src/services/user.rs",
		entities: []Entity{entity(graph.KindStruct, "UserService", "src/services/user.rs", "struct UserService", 10)},
		refs:     []Reference{{FromName: "UserService", Name: "Database", Kind: RefImplements, Line: 14}},
	})
	replaceFile(t, s, fileSpec{
		path:     "src/database/mod.rs",
		entities: []Entity{entity(graph.KindInterface, "Database", "src/database/mod.rs", "trait Database", 5)},
	})
	replaceFile(t, s, fileSpec{
		path:     "tests/user_service_test.rs",
		entities: []Entity{entity(graph.KindFunction, "test_user_creation", "tests/user_service_test.rs", "fn test_user_creation()", 15)},
		refs: []Reference{{
			FromSignature: graph.CanonicalSignature("tests/user_service_test.rs", "fn test_user_creation()"),
			Name:          "UserService", Kind: RefType, Line: 16,
		}},
	})
}

func TestMigrate_TablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"files", "entities", "refs", "relationships"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestNewStore_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := NewStore("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestFileOperations(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	f := &File{Path: "a.go", Language: "go", Hash: "h1", LastIndexed: time.Now().Truncate(time.Second)}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	assert.Equal(t, id, f.ID)

	got, err := s.FileByPath("a.go")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "go", got.Language)

	missing, err := s.FileByPath("b.go")
	require.NoError(t, err)
	assert.Nil(t, missing)

	hash, ok, err := s.FileHash("a.go")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h1", hash)

	_, ok, err = s.FileHash("b.go")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.InsertFile(&File{Path: "a.go", Language: "go", Hash: "h2"})
	assert.Error(t, err, "path is unique")
}

func TestEntityAndReferenceOperations(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	f := &File{Path: "a.go", Language: "go", Hash: "h"}
	_, err := s.InsertFile(f)
	require.NoError(t, err)

	second := entity(graph.KindFunction, "b", "a.go", "func b()", 9)
	second.FileID = f.ID
	first := entity(graph.KindFunction, "a", "a.go", "func a()", 3)
	first.FileID = f.ID
	_, err = s.InsertEntity(&second)
	require.NoError(t, err)
	_, err = s.InsertEntity(&first)
	require.NoError(t, err)

	es, err := s.EntitiesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, es, 2)
	assert.Equal(t, "a", es[0].Name)
	assert.Equal(t, "b", es[1].Name)

	byName, err := s.EntitiesByName("b")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "a.go::func b()", byName[0].Signature)

	_, err = s.InsertReference(&Reference{FileID: f.ID, FromSignature: first.Signature, Name: "b", Kind: RefCall, Line: 4})
	require.NoError(t, err)
	refs, err := s.ReferencesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, RefCall, refs[0].Kind)
	assert.Equal(t, first.Signature, refs[0].FromSignature)
	assert.Empty(t, refs[0].FromName)
}

func TestReplaceFile_SwapsContents(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	replaceFile(t, s, fileSpec{
		path: "lib.rs",
		entities: []Entity{
			entity(graph.KindFunction, "old", "lib.rs", "fn old()", 1),
			entity(graph.KindFunction, "keep", "lib.rs", "fn keep()", 5),
		},
		refs: []Reference{{FromName: "x", Name: "y", Kind: RefType}},
	})
	id := replaceFile(t, s, fileSpec{
		path:     "lib.rs",
		entities: []Entity{entity(graph.KindFunction, "keep", "lib.rs", "fn keep()", 2)},
	})

	es, err := s.EntitiesByFile(id)
	require.NoError(t, err)
	require.Len(t, es, 1)
	assert.Equal(t, "keep", es[0].Name)
	assert.Equal(t, 2, es[0].Line)

	c, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, Counts{Files: 1, Entities: 1}, c)
}

func TestDeleteFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedUserService(t, s)

	require.NoError(t, s.DeleteFile("src/main.rs"))
	require.NoError(t, s.DeleteFile("never/indexed.rs"))

	f, err := s.FileByPath("src/main.rs")
	require.NoError(t, err)
	assert.Nil(t, f)

	c, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 3, c.Files)
	assert.Equal(t, 3, c.Entities)
	assert.Equal(t, 2, c.References)
}

func TestFiles_SortedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedUserService(t, s)

	files, err := s.Files()
	require.NoError(t, err)
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{"src/database/mod.rs", "src/main.rs", "src/services/user.rs", "tests/user_service_test.rs"}, paths)
}

func TestResolve(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedUserService(t, s)

	stats, err := s.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ResolveStats{References: 3, Relationships: 3}, stats)

	var got []graph.Edge
	require.NoError(t, s.Relationships(context.Background(), func(e graph.Edge) error {
		got = append(got, e)
		return nil
	}))
	h := func(path, header string) graph.SignatureHash {
		return graph.HashSignature(graph.CanonicalSignature(path, header))
	}
	assert.ElementsMatch(t, []graph.Edge{
		{From: h("src/main.rs", "fn main()"), To: h("src/services/user.rs", "struct UserService"), Kind: graph.Calls},
		{From: h("src/services/user.rs", "struct UserService"), To: h("src/database/mod.rs", "trait Database"), Kind: graph.Implements},
		{From: h("tests/user_service_test.rs", "fn test_user_creation()"), To: h("src/services/user.rs", "struct UserService"), Kind: graph.Uses},
	}, got)

	// A second pass rebuilds rather than accumulates.
	stats, err = s.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Relationships)
	c, err := s.Counts()
	require.NoError(t, err)
	assert.Equal(t, 3, c.Relationships)
}

func TestResolve_PrefersSameFileThenKind(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	caller := graph.CanonicalSignature("b/caller.go", "func run()")
	replaceFile(t, s, fileSpec{
		path:     "a/helpers.go",
		entities: []Entity{entity(graph.KindFunction, "helper", "a/helpers.go", "func helper()", 1)},
	})
	replaceFile(t, s, fileSpec{
		path: "b/caller.go",
		entities: []Entity{
			entity(graph.KindFunction, "run", "b/caller.go", "func run()", 1),
			entity(graph.KindFunction, "helper", "b/caller.go", "func helper()", 20),
			entity(graph.KindStruct, "Config", "b/caller.go", "type Config struct", 30),
		},
		refs: []Reference{
			{FromSignature: caller, Name: "helper", Kind: RefCall},
			{FromSignature: caller, Name: "Config", Kind: RefCall},
			{FromSignature: caller, Name: "run", Kind: RefType},
			{FromSignature: caller, Name: "missing", Kind: RefCall},
		},
	})

	stats, err := s.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.References)
	assert.Equal(t, 2, stats.Relationships)
	assert.Equal(t, 2, stats.Unresolved, "type ref to a function and a missing name")

	var to []graph.SignatureHash
	require.NoError(t, s.Relationships(context.Background(), func(e graph.Edge) error {
		assert.Equal(t, graph.Calls, e.Kind)
		to = append(to, e.To)
		return nil
	}))
	assert.ElementsMatch(t, []graph.SignatureHash{
		graph.HashSignature(graph.CanonicalSignature("b/caller.go", "func helper()")),
		graph.HashSignature(graph.CanonicalSignature("b/caller.go", "type Config struct")),
	}, to)
}

func TestResolve_SelfUseIsDropped(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	replaceFile(t, s, fileSpec{
		path:     "list.rs",
		entities: []Entity{entity(graph.KindStruct, "Node", "list.rs", "struct Node", 1)},
		refs: []Reference{{
			FromSignature: graph.CanonicalSignature("list.rs", "struct Node"),
			Name:          "Node", Kind: RefType,
		}},
	})

	stats, err := s.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ResolveStats{References: 1}, stats)
}

func TestEntities_RehashesSignatures(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedUserService(t, s)

	var nodes []graph.Node
	require.NoError(t, s.Entities(context.Background(), func(n graph.Node) error {
		nodes = append(nodes, n)
		return nil
	}))
	require.Len(t, nodes, 4)
	assert.Equal(t, "Database", nodes[0].Name)
	for _, n := range nodes {
		assert.Equal(t, graph.HashSignature(n.Signature), n.Hash)
	}
	assert.Equal(t, graph.NewNode(graph.KindFunction, "main", "src/main.rs::fn main()", "src/main.rs", 1), nodes[1])
}

func TestEntities_CallbackErrorStops(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedUserService(t, s)

	calls := 0
	err := s.Entities(context.Background(), func(graph.Node) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestAffectedFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	seedUserService(t, s)

	paths, err := s.AffectedFiles([]string{"UserService"}, "src/services/user.rs")
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.rs", "tests/user_service_test.rs"}, paths)

	paths, err = s.AffectedFiles(nil, "")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestChangedNames(t *testing.T) {
	t.Parallel()
	before := []*Entity{{Name: "a"}, {Name: "b"}, {Name: "b"}}
	after := []*Entity{{Name: "b"}, {Name: "c"}, {Name: "a"}}
	assert.Equal(t, []string{"b", "c"}, ChangedNames(before, after))
	assert.Empty(t, ChangedNames(before, before))
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ContentHash([]byte("x")), ContentHash([]byte("x")))
	assert.NotEqual(t, ContentHash([]byte("x")), ContentHash([]byte("y")))
	assert.Len(t, ContentHash(nil), 64)
}
