// Package ripple indexes source-code entities and the relationships between
// them into an in-memory graph and answers impact-analysis queries under
// latency contracts, safely under concurrent access.
package ripple
