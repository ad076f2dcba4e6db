package store

import (
	"context"
	"fmt"

	"github.com/jward/ripple/internal/graph"
)

// Entities streams every stored entity as a graph node, in (path, line)
// order. Hashes are recomputed from the stored signatures.
func (s *Store) Entities(ctx context.Context, fn func(graph.Node) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.kind, e.name, e.signature, f.path, e.line
		FROM entities e JOIN files f ON f.id = e.file_id
		ORDER BY f.path, e.line, e.id`)
	if err != nil {
		return fmt.Errorf("entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, name, sig, path string
		var line int
		if err := rows.Scan(&kind, &name, &sig, &path, &line); err != nil {
			return fmt.Errorf("scan entity: %w", err)
		}
		if err := fn(graph.NewNode(graph.EntityKind(kind), name, sig, path, line)); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Relationships streams every resolved relationship as a graph edge.
// Relationships with an unknown kind are an error.
func (s *Store) Relationships(ctx context.Context, fn func(graph.Edge) error) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT from_signature, to_signature, kind FROM relationships ORDER BY id")
	if err != nil {
		return fmt.Errorf("relationships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var from, to, kind string
		if err := rows.Scan(&from, &to, &kind); err != nil {
			return fmt.Errorf("scan relationship: %w", err)
		}
		k, ok := graph.ParseEdgeKind(kind)
		if !ok {
			return fmt.Errorf("relationship %s -> %s: unknown kind %q", from, to, kind)
		}
		edge := graph.Edge{From: graph.HashSignature(from), To: graph.HashSignature(to), Kind: k}
		if err := fn(edge); err != nil {
			return err
		}
	}
	return rows.Err()
}
