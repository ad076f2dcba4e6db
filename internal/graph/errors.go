package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every error returned by this package wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	// ErrNodeNotFound is returned for a lookup or edge endpoint whose hash is
	// not in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEntityNotFound is returned when a name resolves to zero entities.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrAmbiguousEntity is returned under the strict name policy when a
	// name resolves to more than one entity.
	ErrAmbiguousEntity = errors.New("entity name is ambiguous")
)

// NodeNotFoundError carries the missing hash.
type NodeNotFoundError struct {
	Hash SignatureHash
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %s not found", e.Hash)
}

func (e *NodeNotFoundError) Unwrap() error {
	return ErrNodeNotFound
}

// EntityNotFoundError carries the name that failed to resolve.
type EntityNotFoundError struct {
	Name string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity %q not found", e.Name)
}

func (e *EntityNotFoundError) Unwrap() error {
	return ErrEntityNotFound
}

// AmbiguousEntityError lists every candidate location for an ambiguous name.
type AmbiguousEntityError struct {
	Name       string
	Candidates []FileLocation
}

func (e *AmbiguousEntityError) Error() string {
	locs := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		locs[i] = fmt.Sprintf("%s:%d", c.FilePath, c.Line)
	}
	return fmt.Sprintf("entity %q is ambiguous (%d matches: %s); qualify it as <file>::%s",
		e.Name, len(e.Candidates), strings.Join(locs, ", "), e.Name)
}

func (e *AmbiguousEntityError) Unwrap() error {
	return ErrAmbiguousEntity
}
