package ripple

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// project is a small multi-directory graph shared by the root tests.
type project struct {
	e *Engine

	main, svc, create, db, connect, test Node
}

// newProject builds:
//
//	main --calls--> UserService --implements--> Database
//	main --calls--> create --calls--> connect
//	test_user_creation --uses--> UserService
func newProject(t *testing.T, opts ...Option) *project {
	t.Helper()
	e := New(opts...)
	p := &project{
		e:       e,
		main:    e.AddEntity(KindFunction, "main", "src/main.rs::fn main()", "src/main.rs", 1),
		svc:     e.AddEntity(KindStruct, "UserService", "src/services/user.rs::struct UserService", "src/services/user.rs", 10),
		create:  e.AddEntity(KindMethod, "create", "src/services/user.rs::fn create(&self)", "src/services/user.rs", 20),
		db:      e.AddEntity(KindInterface, "Database", "src/database/mod.rs::trait Database", "src/database/mod.rs", 5),
		connect: e.AddEntity(KindFunction, "connect", "src/database/mod.rs::fn connect()", "src/database/mod.rs", 12),
		test:    e.AddEntity(KindFunction, "test_user_creation", "tests/user_service_test.rs::fn test_user_creation()", "tests/user_service_test.rs", 15),
	}
	link(t, e, p.main, p.svc, Calls)
	link(t, e, p.svc, p.db, Implements)
	link(t, e, p.test, p.svc, Uses)
	link(t, e, p.main, p.create, Calls)
	link(t, e, p.create, p.connect, Calls)
	return p
}

func link(t *testing.T, e *Engine, from, to Node, kind EdgeKind) {
	t.Helper()
	require.NoError(t, e.UpsertEdge(from.Hash, to.Hash, kind))
}

func names(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func ptr[T any](v T) *T { return &v }
