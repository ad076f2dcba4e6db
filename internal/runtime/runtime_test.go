package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/risor-io/risor/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/ripple"
)

// newTestEngine builds the main / UserService / Database graph.
func newTestEngine(t *testing.T) *ripple.Engine {
	t.Helper()
	e := ripple.New()
	main := e.AddEntity(ripple.KindFunction, "main", "src/main.rs::fn main()", "src/main.rs", 1)
	svc := e.AddEntity(ripple.KindStruct, "UserService", "src/services/user.rs::pub struct UserService", "src/services/user.rs", 10)
	create := e.AddEntity(ripple.KindMethod, "create", "src/services/user.rs::impl UserService pub fn create(&self)", "src/services/user.rs", 20)
	db := e.AddEntity(ripple.KindInterface, "Database", "src/database/mod.rs::pub trait Database", "src/database/mod.rs", 5)
	connect := e.AddEntity(ripple.KindFunction, "connect", "src/database/mod.rs::pub fn connect()", "src/database/mod.rs", 12)
	test := e.AddEntity(ripple.KindFunction, "test_user_creation", "tests/user_service_test.rs::fn test_user_creation()", "tests/user_service_test.rs", 15)

	for _, l := range []struct {
		from, to ripple.Node
		kind     ripple.EdgeKind
	}{
		{main, svc, ripple.Calls},
		{svc, db, ripple.Implements},
		{test, svc, ripple.Uses},
		{main, create, ripple.Calls},
		{create, connect, ripple.Calls},
	} {
		require.NoError(t, e.UpsertEdge(l.from.Hash, l.to.Hash, l.kind))
	}
	e.InvalidateIndexes()
	return e
}

// --- Query host functions ---

func TestRunSource_Find(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")

	script := `
found := find("UserService")
assert(len(found) == 1, 'expected 1 match, got {len(found)}')
svc := found[0]
assert(svc["kind"] == "struct", "unexpected kind")
assert(svc["file"] == "src/services/user.rs", "unexpected file")
assert(svc["line"] == 10, "unexpected line")
assert(len(find("Nope")) == 0, "expected no match")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_WhereDefined(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")

	script := `
loc := where_defined("connect")
assert(loc["file"] == "src/database/mod.rs", "unexpected file")
assert(loc["line"] == 12, "unexpected line")
assert(where_defined("Nope") == nil, "expected nil for unknown name")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_Neighbors(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")

	script := `
c := callers("UserService")
assert(len(c) == 1 && c[0]["name"] == "main", "expected main as the only caller")

i := implementors("Database")
assert(len(i) == 1 && i[0]["name"] == "UserService", "expected UserService to implement Database")

u := users("UserService")
assert(len(u) == 1 && u[0]["name"] == "test_user_creation", "expected the test as the only user")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_EntitiesInFile(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")

	script := `
all := entities_in_file("src/services/user.rs")
assert(len(all) == 2, 'expected 2 entities, got {len(all)}')
assert(all[0]["name"] == "UserService", "expected line order")

methods := entities_in_file("src/services/user.rs", "method")
assert(len(methods) == 1 && methods[0]["name"] == "create", "expected create")

assert(len(entities_in_file("missing.rs")) == 0, "unknown file is empty")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_EntitiesInFile_BadKind(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")
	err := rt.RunSource(context.Background(), `entities_in_file("src/main.rs", "widget")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestRunSource_BlastRadius(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")

	got, err := rt.Eval(context.Background(), `blast_radius("connect")`, nil)
	require.NoError(t, err)

	members := got.([]any)
	require.Len(t, members, 2)
	depth := map[string]int64{}
	for _, m := range members {
		entry := m.(map[string]any)
		depth[entry["name"].(string)] = entry["depth"].(int64)
		assert.Equal(t, "calls", entry["relationship"])
	}
	assert.Equal(t, map[string]int64{"create": 1, "main": 2}, depth)
}

func TestRunSource_Impact(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")

	got, err := rt.Eval(context.Background(), `impact("UserService")`, nil)
	require.NoError(t, err)

	report := got.(map[string]any)
	assert.Equal(t, "UserService", report["entity"].(map[string]any)["name"])
	assert.Equal(t, int64(2), report["total_impact_count"])
	require.Len(t, report["production_impacts"], 1)
	require.Len(t, report["test_impacts"], 1)
	assert.NotContains(t, report["entity"], "hash")
}

func TestRunSource_UnknownNameFails(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")

	for _, fn := range []string{"callers", "implementors", "users", "blast_radius", "impact"} {
		t.Run(fn, func(t *testing.T) {
			err := rt.RunSource(context.Background(), fn+`("Nope")`, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "could not find Nope")
		})
	}
}

func TestRunSource_Stats(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")

	got, err := rt.Eval(context.Background(), `stats()`, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"nodes":  int64(6),
		"edges":  int64(5),
		"files":  int64(4),
		"status": "ok",
	}, got)
}

func TestRunSource_ArgumentErrors(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")

	for _, script := range []string{`find()`, `find(1)`, `where_defined("a", "b")`, `stats(1)`} {
		t.Run(script, func(t *testing.T) {
			require.Error(t, rt.RunSource(context.Background(), script, nil))
		})
	}
}

func TestRunSource_NoEngine(t *testing.T) {
	rt := NewRuntime(nil, "")
	err := rt.RunSource(context.Background(), `find("x")`, nil)
	require.Error(t, err, "query globals need an engine")
}

func TestRunSource_LogGoesToSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt := NewRuntime(nil, "", WithRuntimeLogger(logger))

	require.NoError(t, rt.RunSource(context.Background(), `log.Warn("careful")`, nil))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "msg=careful")
	assert.Contains(t, buf.String(), "source=script")
}

func TestRunSource_ExtraGlobals(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), "")

	got, err := rt.Eval(context.Background(), `len(callers(target))`, map[string]any{"target": "create"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

// --- Script loading ---

func TestRunScript_LoadsFile(t *testing.T) {
	dir := t.TempDir()

	scriptPath := filepath.Join(dir, "test.risor")
	require.NoError(t, os.WriteFile(scriptPath, []byte(`result := 1 + 1`), 0644))

	rt := NewRuntime(nil, dir)
	require.NoError(t, rt.RunScript(context.Background(), "test.risor", nil))
}

func TestRunScript_MissingFile(t *testing.T) {
	rt := NewRuntime(nil, t.TempDir())

	err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.risor")
	content := `x := 42`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rt := NewRuntime(nil, dir)
	got, err := rt.LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"reports/hotspots.risor": &fstest.MapFile{Data: []byte(content)},
	}
	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("reports/hotspots.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Absolute-style path should be resolved within the FS.
	got, err = rt.LoadScript("/reports/hotspots.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestRunScript_FromFS(t *testing.T) {
	mapFS := fstest.MapFS{
		"test.risor": &fstest.MapFile{Data: []byte(`result := 1 + 1`)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))
	require.NoError(t, rt.RunScript(context.Background(), "test.risor", nil))
}

// --- Importer wiring ---

func TestImport_FSImporter(t *testing.T) {
	// Risor's FSImporter resolves "lib_helpers" by trying name + ".risor",
	// so the file must be at the flat path "lib_helpers.risor" in the FS.
	mapFS := fstest.MapFS{
		"lib_helpers.risor": &fstest.MapFile{Data: []byte(`
func greet(name) {
	return "hello " + name
}
`)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	script := `
import lib_helpers

msg := lib_helpers.greet("world")
assert(msg == "hello world", 'expected "hello world", got ' + msg)
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0644))

	rt := NewRuntime(nil, dir)

	script := `
import math_utils

result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_QueryGlobalsAvailableInImportedModules(t *testing.T) {
	// If global names aren't passed to the importer, the module fails to
	// compile.
	mapFS := fstest.MapFS{
		"fanin.risor": &fstest.MapFile{Data: []byte(`
func fan_in(name) {
	return len(callers(name))
}
`)},
	}

	rt := NewRuntime(newTestEngine(t), "", WithRuntimeFS(mapFS))

	script := `
import fanin
assert(fanin.fan_in("connect") == 1, "expected create to call connect")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestNewRuntime_Defaults(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "/some/dir")
	require.NotNil(t, rt)
	assert.Nil(t, rt.fsys)
	assert.NotNil(t, rt.logger)
	assert.Equal(t, "/some/dir", rt.scriptsDir)
}

func TestRunScript_RiskySample(t *testing.T) {
	rt := NewRuntime(newTestEngine(t), filepath.Join("..", "..", "scripts"))

	src, err := rt.LoadScript("risky.risor")
	require.NoError(t, err)
	args := object.NewList([]object.Object{object.NewString("connect")})
	got, err := rt.Eval(context.Background(), src, map[string]any{"args": args})
	require.NoError(t, err)

	result := got.(map[string]any)
	assert.Equal(t, "LOW", result["risk"])
	assert.Equal(t, int64(2), result["total"])
	assert.Equal(t, []any{"main", "create"}, result["nearby"])
}
