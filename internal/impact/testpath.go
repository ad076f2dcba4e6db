package impact

import (
	"path/filepath"
	"strings"
)

// IsTestFile reports whether path looks like test or benchmark code. A path
// counts as test code if it contains "test" or "spec", ends with "_test", or
// sits under a top-level tests/ or benches/ directory.
func IsTestFile(path string) bool {
	p := filepath.ToSlash(path)
	return strings.Contains(p, "test") ||
		strings.Contains(p, "spec") ||
		strings.HasSuffix(p, "_test") ||
		strings.HasPrefix(p, "tests/") ||
		strings.HasPrefix(p, "benches/")
}
