package ripple

import (
	"github.com/jward/ripple/internal/graph"
	"github.com/jward/ripple/internal/impact"
)

// Public type aliases for the internal graph and impact types used in the
// Engine and QueryBuilder APIs. They are identical to the internal types, so
// no conversion is needed.

type (
	SignatureHash = graph.SignatureHash
	Node          = graph.Node
	Edge          = graph.Edge
	EntityKind    = graph.EntityKind
	EdgeKind      = graph.EdgeKind
	FileLocation  = graph.FileLocation
	BlastMember   = graph.BlastMember

	NodeNotFoundError    = graph.NodeNotFoundError
	EntityNotFoundError  = graph.EntityNotFoundError
	AmbiguousEntityError = graph.AmbiguousEntityError

	ImpactReport   = impact.Report
	ImpactedEntity = impact.ImpactedEntity
	EntityRef      = impact.EntityRef
	RiskLevel      = impact.RiskLevel
)

const (
	Calls      = graph.Calls
	Uses       = graph.Uses
	Implements = graph.Implements

	KindFunction  = graph.KindFunction
	KindMethod    = graph.KindMethod
	KindStruct    = graph.KindStruct
	KindEnum      = graph.KindEnum
	KindInterface = graph.KindInterface
	KindModule    = graph.KindModule
	KindTypeAlias = graph.KindTypeAlias
	KindConstant  = graph.KindConstant

	RiskLow      = impact.RiskLow
	RiskMedium   = impact.RiskMedium
	RiskHigh     = impact.RiskHigh
	RiskCritical = impact.RiskCritical
)

var (
	ErrNodeNotFound    = graph.ErrNodeNotFound
	ErrEntityNotFound  = graph.ErrEntityNotFound
	ErrAmbiguousEntity = graph.ErrAmbiguousEntity
)

// HashSignature returns the content-addressed identity of a canonical
// signature string.
func HashSignature(signature string) SignatureHash {
	return graph.HashSignature(signature)
}

// NewNode builds a Node, deriving its hash from signature.
func NewNode(kind EntityKind, name, signature, filePath string, line int) Node {
	return graph.NewNode(kind, name, signature, filePath, line)
}

// ParseEntityKind maps user input, including aliases like "fn" or "trait",
// to an EntityKind.
func ParseEntityKind(s string) (EntityKind, bool) {
	return graph.ParseEntityKind(s)
}

// ParseEdgeKind parses "calls", "uses" or "implements".
func ParseEdgeKind(s string) (EdgeKind, bool) {
	return graph.ParseEdgeKind(s)
}
