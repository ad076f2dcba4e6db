package ripple

import (
	"fmt"

	"github.com/jward/ripple/internal/graph"
)

// TypeHierarchy is the Implements neighborhood of one entity, plus the
// entities that use it.
type TypeHierarchy struct {
	Entity        EntityResult
	Implements    []Node // interfaces/traits this entity implements
	ImplementedBy []Node // entities implementing this interface/trait
	UsedBy        []Node // entities with a Uses edge into this one
}

// TypeHierarchy returns what h implements, what implements h and what uses
// h. Each list is ordered by (file, line, signature).
func (q *QueryBuilder) TypeHierarchy(h SignatureHash) (*TypeHierarchy, error) {
	defer q.e.view(ClassDirectQuery, "TypeHierarchy")()

	n, err := q.e.g.Node(h)
	if err != nil {
		return nil, fmt.Errorf("type hierarchy: %w", err)
	}
	implementedBy, err := q.e.q.FindImplementors(h)
	if err != nil {
		return nil, fmt.Errorf("type hierarchy: implementors: %w", err)
	}
	usedBy, err := q.e.q.FindUsers(h)
	if err != nil {
		return nil, fmt.Errorf("type hierarchy: users: %w", err)
	}
	out, err := q.e.g.OutEdges(h)
	if err != nil {
		return nil, fmt.Errorf("type hierarchy: %w", err)
	}
	implements := []Node{}
	for _, edge := range out {
		if edge.Kind != graph.Implements {
			continue
		}
		if iface, err := q.e.g.Node(edge.To); err == nil {
			implements = append(implements, iface)
		}
	}
	graph.SortNodes(implements)

	return &TypeHierarchy{
		Entity:        q.e.entityResult(n),
		Implements:    implements,
		ImplementedBy: nonNil(implementedBy),
		UsedBy:        nonNil(usedBy),
	}, nil
}

func nonNil(nodes []Node) []Node {
	if nodes == nil {
		return []Node{}
	}
	return nodes
}
