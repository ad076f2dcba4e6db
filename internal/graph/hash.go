package graph

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// SignatureHash is the content-addressed identity of a node. It is derived
// only from the canonical signature string, so the same string hashes to the
// same value in every process and on every platform.
type SignatureHash uint64

// HashSignature computes the SignatureHash of a canonical signature string.
// xxhash64 with the zero seed is defined over the input bytes alone; it does
// not depend on pointer values, map order, or host byte order.
func HashSignature(signature string) SignatureHash {
	return SignatureHash(xxhash.Sum64String(signature))
}

// String renders the hash as fixed-width hex. Only used for debugging and
// internal keys; hashes never appear in reports.
func (h SignatureHash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// CanonicalSignature builds the canonical signature for an entity declared in
// path. Declaration text is whitespace-normalized so formatting-only edits do
// not change identity.
func CanonicalSignature(path, header string) string {
	return path + "::" + NormalizeHeader(header)
}

// NormalizeHeader collapses runs of whitespace to single spaces and trims the
// result.
func NormalizeHeader(header string) string {
	return strings.Join(strings.Fields(header), " ")
}
