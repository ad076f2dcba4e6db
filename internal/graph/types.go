package graph

import "strings"

// EntityKind classifies the source entity a node stands for.
type EntityKind string

const (
	KindFunction  EntityKind = "function"
	KindMethod    EntityKind = "method"
	KindStruct    EntityKind = "struct"
	KindEnum      EntityKind = "enum"
	KindInterface EntityKind = "interface" // interfaces and traits
	KindModule    EntityKind = "module"
	KindTypeAlias EntityKind = "type_alias"
	KindConstant  EntityKind = "constant"
)

// AllEntityKinds lists the known kinds in display order.
var AllEntityKinds = []EntityKind{
	KindFunction, KindMethod, KindStruct, KindEnum,
	KindInterface, KindModule, KindTypeAlias, KindConstant,
}

// ParseEntityKind maps user input (including a few common aliases) to an
// EntityKind. Returns false for unknown input.
func ParseEntityKind(s string) (EntityKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "function", "fn", "func":
		return KindFunction, true
	case "method":
		return KindMethod, true
	case "struct", "class":
		return KindStruct, true
	case "enum":
		return KindEnum, true
	case "interface", "trait":
		return KindInterface, true
	case "module", "mod", "package":
		return KindModule, true
	case "type_alias", "type":
		return KindTypeAlias, true
	case "constant", "const":
		return KindConstant, true
	}
	return "", false
}

// EdgeKind is the relationship type of a directed edge.
type EdgeKind uint8

const (
	Calls EdgeKind = iota + 1
	Uses
	Implements
)

// edgeKindOrder is the precedence used whenever several kinds compete for
// one label.
var edgeKindOrder = []EdgeKind{Calls, Implements, Uses}

func (k EdgeKind) String() string {
	switch k {
	case Calls:
		return "calls"
	case Uses:
		return "uses"
	case Implements:
		return "implements"
	}
	return "unknown"
}

// ParseEdgeKind parses the lowercase edge kind name.
func ParseEdgeKind(s string) (EdgeKind, bool) {
	switch strings.ToLower(s) {
	case "calls":
		return Calls, true
	case "uses":
		return Uses, true
	case "implements":
		return Implements, true
	}
	return 0, false
}

// MarshalText lets EdgeKind serialize by name.
func (k EdgeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Node is a single source entity. Hash is derived from Signature.
type Node struct {
	Hash      SignatureHash
	Kind      EntityKind
	Name      string
	Signature string
	FilePath  string
	Line      int
}

// NewNode builds a Node and derives its hash from signature.
func NewNode(kind EntityKind, name, signature, filePath string, line int) Node {
	return Node{
		Hash:      HashSignature(signature),
		Kind:      kind,
		Name:      name,
		Signature: signature,
		FilePath:  filePath,
		Line:      line,
	}
}

// Edge is a directed relationship From -> To.
type Edge struct {
	From SignatureHash
	To   SignatureHash
	Kind EdgeKind
}

// FileLocation is where an entity is defined.
type FileLocation struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
}
