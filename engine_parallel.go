package ripple

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jward/ripple/internal/graph"
)

// WhereDefinedResult is one answer of BatchWhereDefined.
type WhereDefinedResult struct {
	Name     string
	Location FileLocation
	Found    bool
}

// BatchWhereDefined looks up every name with at most maxConcurrency lookups
// in flight. Results are in input order.
func (e *Engine) BatchWhereDefined(ctx context.Context, names []string) ([]WhereDefinedResult, error) {
	q := e.Query()
	out := make([]WhereDefinedResult, len(names))
	err := e.fanOut(ctx, len(names), func(i int) error {
		loc, ok := q.WhereDefined(names[i])
		out[i] = WhereDefinedResult{Name: names[i], Location: loc, Found: ok}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BatchBlastRadius computes the blast radius of every target. The first
// failing target cancels the rest and its error is returned.
func (e *Engine) BatchBlastRadius(ctx context.Context, targets []SignatureHash) ([][]SignatureHash, error) {
	q := e.Query()
	out := make([][]SignatureHash, len(targets))
	err := e.fanOut(ctx, len(targets), func(i int) error {
		radius, err := q.BlastRadius(targets[i])
		if err != nil {
			return fmt.Errorf("blast radius %s: %w", targets[i], err)
		}
		out[i] = radius
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BatchEntitiesInFiles returns the entities of each file, keyed by path.
func (e *Engine) BatchEntitiesInFiles(ctx context.Context, files []string, kind *EntityKind) (map[string][]Node, error) {
	q := e.Query()
	per := make([][]Node, len(files))
	err := e.fanOut(ctx, len(files), func(i int) error {
		per[i] = q.EntitiesInFile(files[i], kind)
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Node, len(files))
	for i, f := range files {
		out[f] = per[i]
	}
	return out, nil
}

// EntitiesByKinds lists every entity of each kind, ordered by (file, line,
// signature). Each kind is served under a single shared lock acquisition.
func (e *Engine) EntitiesByKinds(ctx context.Context, kinds []EntityKind) (map[EntityKind][]Node, error) {
	per := make([][]Node, len(kinds))
	err := e.fanOut(ctx, len(kinds), func(i int) error {
		defer e.view(ClassListing, "EntitiesByKinds")()
		filter := EntityFilter{Kinds: kinds[i : i+1]}
		var nodes []Node
		e.g.Each(func(n Node) bool {
			if filter.matches(n) {
				nodes = append(nodes, n)
			}
			return true
		})
		graph.SortNodes(nodes)
		per[i] = nodes
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[EntityKind][]Node, len(kinds))
	for i, k := range kinds {
		out[k] = per[i]
	}
	return out, nil
}

// fanOut runs fn for 0..n-1 with at most maxConcurrency calls in flight.
// Cancellation of ctx stops scheduling further calls.
func (e *Engine) fanOut(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// gctx is always canceled once Wait returns; only the caller's ctx counts.
	return ctx.Err()
}
