package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/jward/ripple/internal/graph"
)

// ResolveStats summarizes one Resolve pass.
type ResolveStats struct {
	References    int // references examined
	Relationships int // distinct relationships written
	Unresolved    int // references with no matching entity
}

type candidate struct {
	signature string
	path      string
	kind      graph.EntityKind
	line      int
}

var (
	callableKinds = map[graph.EntityKind]bool{graph.KindFunction: true, graph.KindMethod: true}
	typeKinds     = map[graph.EntityKind]bool{
		graph.KindStruct: true, graph.KindEnum: true, graph.KindInterface: true, graph.KindTypeAlias: true,
	}
	concreteKinds = map[graph.EntityKind]bool{graph.KindStruct: true, graph.KindEnum: true, graph.KindTypeAlias: true}
	traitKinds    = map[graph.EntityKind]bool{graph.KindInterface: true}
)

// Resolve rebuilds the relationships table from the stored references.
// Names are matched against every entity in the store; a candidate in the
// referring file wins, otherwise the first by (path, line) is taken.
//
//   - call: any entity, functions and methods preferred -> Calls
//   - type: structs, enums, interfaces and aliases -> Uses
//   - implements: interfaces -> Implements, other types -> Uses
func (s *Store) Resolve(ctx context.Context) (ResolveStats, error) {
	var stats ResolveStats

	byName, err := s.loadCandidates(ctx)
	if err != nil {
		return stats, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("resolve: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM relationships"); err != nil {
		return stats, fmt.Errorf("resolve: clear relationships: %w", err)
	}
	insert, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO relationships (from_signature, to_signature, kind) VALUES (?, ?, ?)")
	if err != nil {
		return stats, fmt.Errorf("resolve: prepare: %w", err)
	}
	defer insert.Close()

	rows, err := tx.QueryContext(ctx, `
		SELECT f.path, COALESCE(r.from_signature, ''), COALESCE(r.from_name, ''), r.name, r.kind
		FROM refs r JOIN files f ON f.id = r.file_id
		ORDER BY r.id`)
	if err != nil {
		return stats, fmt.Errorf("resolve: query refs: %w", err)
	}
	type pending struct {
		from, to string
		kind     graph.EdgeKind
	}
	var edges []pending
	for rows.Next() {
		var path, fromSig, fromName, name, kind string
		if err := rows.Scan(&path, &fromSig, &fromName, &name, &kind); err != nil {
			rows.Close()
			return stats, fmt.Errorf("resolve: scan ref: %w", err)
		}
		stats.References++

		if fromSig == "" {
			from, ok := pick(byName[fromName], path, concreteKinds, false)
			if !ok {
				stats.Unresolved++
				continue
			}
			fromSig = from.signature
		}

		to, edgeKind, ok := resolveTarget(byName[name], path, RefKind(kind))
		if !ok || (edgeKind == graph.Uses && to.signature == fromSig) {
			if !ok {
				stats.Unresolved++
			}
			continue
		}
		edges = append(edges, pending{from: fromSig, to: to.signature, kind: edgeKind})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("resolve: refs: %w", err)
	}

	for _, e := range edges {
		res, err := insert.ExecContext(ctx, e.from, e.to, e.kind.String())
		if err != nil {
			return stats, fmt.Errorf("resolve: insert relationship: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stats.Relationships++
		}
	}
	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("resolve: commit: %w", err)
	}
	return stats, nil
}

func resolveTarget(cands []candidate, fromPath string, kind RefKind) (candidate, graph.EdgeKind, bool) {
	switch kind {
	case RefCall:
		c, ok := pick(cands, fromPath, callableKinds, true)
		return c, graph.Calls, ok
	case RefType:
		c, ok := pick(cands, fromPath, typeKinds, false)
		return c, graph.Uses, ok
	case RefImplements:
		if c, ok := pick(cands, fromPath, traitKinds, false); ok {
			return c, graph.Implements, true
		}
		c, ok := pick(cands, fromPath, concreteKinds, false)
		return c, graph.Uses, ok
	}
	return candidate{}, 0, false
}

// pick chooses among cands (sorted by path, line). Entities of a preferred
// kind win; with fallback set any kind is accepted when none match.
func pick(cands []candidate, fromPath string, preferred map[graph.EntityKind]bool, fallback bool) (candidate, bool) {
	best := func(match func(candidate) bool) (candidate, bool) {
		var first *candidate
		for i := range cands {
			c := &cands[i]
			if !match(*c) {
				continue
			}
			if c.path == fromPath {
				return *c, true
			}
			if first == nil {
				first = c
			}
		}
		if first == nil {
			return candidate{}, false
		}
		return *first, true
	}
	if c, ok := best(func(c candidate) bool { return preferred[c.kind] }); ok {
		return c, true
	}
	if fallback {
		return best(func(candidate) bool { return true })
	}
	return candidate{}, false
}

func (s *Store) loadCandidates(ctx context.Context) (map[string][]candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.name, e.signature, f.path, e.kind, e.line
		FROM entities e JOIN files f ON f.id = e.file_id`)
	if err != nil {
		return nil, fmt.Errorf("resolve: query entities: %w", err)
	}
	defer rows.Close()

	byName := map[string][]candidate{}
	for rows.Next() {
		var name, kind string
		var c candidate
		if err := rows.Scan(&name, &c.signature, &c.path, &kind, &c.line); err != nil {
			return nil, fmt.Errorf("resolve: scan entity: %w", err)
		}
		c.kind = graph.EntityKind(kind)
		byName[name] = append(byName[name], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolve: entities: %w", err)
	}
	for _, cs := range byName {
		sort.Slice(cs, func(i, j int) bool {
			if cs[i].path != cs[j].path {
				return cs[i].path < cs[j].path
			}
			if cs[i].line != cs[j].line {
				return cs[i].line < cs[j].line
			}
			return cs[i].signature < cs[j].signature
		})
	}
	return byName, nil
}
