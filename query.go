package ripple

import (
	"github.com/jward/ripple/internal/graph"
)

// QueryBuilder is the read-side API over an Engine. Every method takes the
// Engine's shared lock for its whole duration and is timed against the
// latency budget of its query class.
type QueryBuilder struct {
	e *Engine
}

// Node returns the entity with hash h.
func (q *QueryBuilder) Node(h SignatureHash) (Node, error) {
	defer q.e.view(ClassDirectQuery, "Node")()
	return q.e.g.Node(h)
}

// FindByName returns the hash of every entity named name. Names are not
// unique, so this is always a set (ascending hash order).
func (q *QueryBuilder) FindByName(name string) []SignatureHash {
	defer q.e.view(ClassWhereDefined, "FindByName")()
	return q.e.q.FindByName(name)
}

// Candidates returns the entities matching name ordered by (file, line,
// signature). "path::Name" restricts the match to one file.
func (q *QueryBuilder) Candidates(name string) []Node {
	defer q.e.view(ClassWhereDefined, "Candidates")()
	return q.e.q.Candidates(name)
}

// Resolve maps name to one entity using the Engine's name policy. The
// remaining candidates, if any, are returned as alternatives.
func (q *QueryBuilder) Resolve(name string) (Node, []Node, error) {
	defer q.e.view(ClassWhereDefined, "Resolve")()
	return q.e.q.ResolveEntity(name, q.e.strictNames)
}

// Callers returns the entities with a Calls edge into h.
func (q *QueryBuilder) Callers(h SignatureHash) ([]Node, error) {
	defer q.e.view(ClassDirectQuery, "Callers")()
	return q.e.q.FindCallers(h)
}

// Implementors returns the entities with an Implements edge into h.
func (q *QueryBuilder) Implementors(h SignatureHash) ([]Node, error) {
	defer q.e.view(ClassDirectQuery, "Implementors")()
	return q.e.q.FindImplementors(h)
}

// Users returns the entities with a Uses edge into h.
func (q *QueryBuilder) Users(h SignatureHash) ([]Node, error) {
	defer q.e.view(ClassDirectQuery, "Users")()
	return q.e.q.FindUsers(h)
}

// DetectRelationshipType labels how candidate relates to source: a direct
// edge in either direction, else Uses.
func (q *QueryBuilder) DetectRelationshipType(source, candidate SignatureHash) (EdgeKind, error) {
	defer q.e.view(ClassDirectQuery, "DetectRelationshipType")()
	return q.e.q.DetectRelationshipType(source, candidate)
}

// BlastRadius returns every entity with a directed path into h, in ascending
// hash order. h itself is included only if a cycle leads back to it.
func (q *QueryBuilder) BlastRadius(h SignatureHash) ([]SignatureHash, error) {
	defer q.e.view(ClassBlastRadius, "BlastRadius")()
	return q.e.q.BlastRadius(h)
}

// BlastRadiusDetailed is BlastRadius with the hop depth and entry edge kind
// of every member.
func (q *QueryBuilder) BlastRadiusDetailed(h SignatureHash) ([]BlastMember, error) {
	defer q.e.view(ClassBlastRadius, "BlastRadiusDetailed")()
	return q.e.q.BlastRadiusDetailed(h)
}

// BlastRadiusEntities is BlastRadius resolved to entities, ordered by
// (file, line, signature).
func (q *QueryBuilder) BlastRadiusEntities(h SignatureHash) ([]Node, error) {
	defer q.e.view(ClassBlastRadius, "BlastRadiusEntities")()
	hashes, err := q.e.q.BlastRadius(h)
	if err != nil {
		return nil, err
	}
	nodes := q.e.q.Lookup(hashes)
	graph.SortNodes(nodes)
	return nodes, nil
}
