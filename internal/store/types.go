package store

import "time"

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LastIndexed time.Time
}

// Entity is one extracted declaration. Signature is the canonical signature
// string; its hash is recomputed whenever the entity is loaded.
type Entity struct {
	ID        int64
	FileID    int64
	Kind      string
	Name      string
	Signature string
	Line      int
}

// RefKind is the syntactic shape of a reference.
type RefKind string

const (
	RefCall       RefKind = "call"       // becomes a Calls relationship
	RefType       RefKind = "type"       // becomes a Uses relationship
	RefImplements RefKind = "implements" // becomes an Implements relationship
)

// Reference is a by-name mention of another entity, waiting for Resolve.
// Exactly one of FromSignature and FromName is set.
type Reference struct {
	ID            int64
	FileID        int64
	FromSignature string
	FromName      string
	Name          string
	Kind          RefKind
	Line          int
}

// Relationship is a resolved, directed edge between two signatures.
type Relationship struct {
	ID            int64
	FromSignature string
	ToSignature   string
	Kind          string
}
