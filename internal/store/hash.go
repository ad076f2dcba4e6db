package store

import (
	"crypto/sha256"
	"fmt"
)

// ContentHash is the hex SHA-256 of a file's contents. A file whose hash
// matches the stored one is skipped on re-index.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}
