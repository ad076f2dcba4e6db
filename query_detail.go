package ripple

import (
	"fmt"
	"sort"
)

// Relation is one direct neighbor of an entity.
type Relation struct {
	Kind   EdgeKind
	Entity Node
}

// EntityDetail bundles an entity with every direct relationship it takes
// part in. One call replaces separate Callers/Implementors/Users lookups.
type EntityDetail struct {
	Entity   EntityResult
	Incoming []Relation // edges into the entity, by (kind, file, line)
	Outgoing []Relation // edges out of the entity, by (kind, file, line)
}

// EntityDetail returns the entity with hash h and its direct neighborhood.
func (q *QueryBuilder) EntityDetail(h SignatureHash) (*EntityDetail, error) {
	defer q.e.view(ClassDirectQuery, "EntityDetail")()
	return q.e.detailLocked(h)
}

// EntityDetailAt returns the detail of the entity whose definition most
// closely precedes line in file. Returns nil with no error when the file has
// no entity at or before line.
func (q *QueryBuilder) EntityDetailAt(file string, line int) (*EntityDetail, error) {
	defer q.e.view(ClassDirectQuery, "EntityDetailAt")()
	var best *Node
	for _, n := range q.e.q.EntitiesInFile(file, nil) {
		if n.Line > line {
			break
		}
		best = &n
	}
	if best == nil {
		return nil, nil
	}
	return q.e.detailLocked(best.Hash)
}

func (e *Engine) detailLocked(h SignatureHash) (*EntityDetail, error) {
	n, err := e.g.Node(h)
	if err != nil {
		return nil, fmt.Errorf("entity detail: %w", err)
	}
	in, err := e.g.InEdges(h)
	if err != nil {
		return nil, fmt.Errorf("entity detail: %w", err)
	}
	out, err := e.g.OutEdges(h)
	if err != nil {
		return nil, fmt.Errorf("entity detail: %w", err)
	}

	d := &EntityDetail{
		Entity:   e.entityResult(n),
		Incoming: make([]Relation, 0, len(in)),
		Outgoing: make([]Relation, 0, len(out)),
	}
	for _, edge := range in {
		if src, err := e.g.Node(edge.From); err == nil {
			d.Incoming = append(d.Incoming, Relation{Kind: edge.Kind, Entity: src})
		}
	}
	for _, edge := range out {
		if dst, err := e.g.Node(edge.To); err == nil {
			d.Outgoing = append(d.Outgoing, Relation{Kind: edge.Kind, Entity: dst})
		}
	}
	sortRelations(d.Incoming)
	sortRelations(d.Outgoing)
	return d, nil
}

func sortRelations(rs []Relation) {
	sort.Slice(rs, func(a, b int) bool {
		if rs[a].Kind != rs[b].Kind {
			return rs[a].Kind < rs[b].Kind
		}
		if rs[a].Entity.FilePath != rs[b].Entity.FilePath {
			return rs[a].Entity.FilePath < rs[b].Entity.FilePath
		}
		if rs[a].Entity.Line != rs[b].Entity.Line {
			return rs[a].Entity.Line < rs[b].Entity.Line
		}
		return rs[a].Entity.Signature < rs[b].Entity.Signature
	})
}
