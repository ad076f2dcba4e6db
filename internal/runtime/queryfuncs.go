package runtime

import (
	"context"

	"github.com/risor-io/risor/object"

	"github.com/jward/ripple"
)

// Query host functions. Entities are passed to scripts as maps with name,
// kind, file, line, signature and hash keys. Functions taking a name
// resolve it the same way the CLI does, so "path::Name" selects one of
// several definitions.

// find(name) → list of every entity named name
func makeFindFn(q *ripple.QueryBuilder) *object.Builtin {
	return object.NewBuiltin("find", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("find", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("find: %v", err)
		}
		return nodesToList(q.Candidates(name))
	})
}

// where_defined(name) → {file, line} or nil
func makeWhereDefinedFn(q *ripple.QueryBuilder) *object.Builtin {
	return object.NewBuiltin("where_defined", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("where_defined", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("where_defined: %v", err)
		}
		loc, ok := q.WhereDefined(name)
		if !ok {
			return object.Nil
		}
		return object.NewMap(map[string]object.Object{
			"file": object.NewString(loc.FilePath),
			"line": object.NewInt(int64(loc.Line)),
		})
	})
}

// entities_in_file(path, kind?) → entities in line order
func makeEntitiesInFileFn(q *ripple.QueryBuilder) *object.Builtin {
	return object.NewBuiltin("entities_in_file", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.Errorf("entities_in_file: expected 1 or 2 arguments, got %d", len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("entities_in_file: %v", err)
		}
		var kind *ripple.EntityKind
		if len(args) == 2 {
			s, err := toString(args[1])
			if err != nil {
				return object.Errorf("entities_in_file: %v", err)
			}
			k, ok := ripple.ParseEntityKind(s)
			if !ok {
				return object.Errorf("entities_in_file: unknown kind %q", s)
			}
			kind = &k
		}
		return nodesToList(q.EntitiesInFile(path, kind))
	})
}

// makeNeighborsFn builds callers(name), implementors(name) and users(name).
func makeNeighborsFn(fn string, q *ripple.QueryBuilder, neighbors func(ripple.SignatureHash) ([]ripple.Node, error)) *object.Builtin {
	return object.NewBuiltin(fn, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(fn, 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("%s: %v", fn, err)
		}
		target, _, err := q.Resolve(name)
		if err != nil {
			return object.Errorf("%s: %s", fn, ripple.NotFoundMessage(err))
		}
		nodes, err := neighbors(target.Hash)
		if err != nil {
			return object.Errorf("%s: %v", fn, err)
		}
		return nodesToList(nodes)
	})
}

// blast_radius(name) → entities with a path into name, each with depth and
// the relationship of the hop that reached it
func makeBlastRadiusFn(q *ripple.QueryBuilder) *object.Builtin {
	return object.NewBuiltin("blast_radius", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("blast_radius", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("blast_radius: %v", err)
		}
		target, _, err := q.Resolve(name)
		if err != nil {
			return object.Errorf("blast_radius: %s", ripple.NotFoundMessage(err))
		}
		members, err := q.BlastRadiusDetailed(target.Hash)
		if err != nil {
			return object.Errorf("blast_radius: %v", err)
		}
		items := make([]object.Object, 0, len(members))
		for _, m := range members {
			n, err := q.Node(m.Hash)
			if err != nil {
				continue
			}
			obj := nodeMap(n)
			obj["depth"] = object.NewInt(int64(m.Depth))
			obj["relationship"] = object.NewString(m.Via.String())
			items = append(items, object.NewMap(obj))
		}
		return object.NewList(items)
	})
}

// impact(name) → the impact report as a map, keyed like its JSON form
func makeImpactFn(q *ripple.QueryBuilder) *object.Builtin {
	return object.NewBuiltin("impact", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("impact", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("impact: %v", err)
		}
		report, err := q.AnalyzeImpact(ctx, name)
		if err != nil {
			return object.Errorf("impact: %s", ripple.NotFoundMessage(err))
		}
		obj, err := jsonToObject(report)
		if err != nil {
			return object.Errorf("impact: %v", err)
		}
		return obj
	})
}

// stats() → {nodes, edges, files, status}
func makeStatsFn(e *ripple.Engine) *object.Builtin {
	return object.NewBuiltin("stats", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("stats", 0, len(args))
		}
		h, _ := e.HealthCheck()
		return object.NewMap(map[string]object.Object{
			"nodes":  object.NewInt(int64(h.Nodes)),
			"edges":  object.NewInt(int64(h.Edges)),
			"files":  object.NewInt(int64(h.Files)),
			"status": object.NewString(h.Status),
		})
	})
}
