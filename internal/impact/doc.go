// Package impact classifies the blast radius of an entity for human
// consumption.
//
// An analysis resolves an entity name, walks its blast radius, splits the
// impacted entities into production and test code with a path heuristic,
// groups them by relationship kind and assigns a RiskLevel from the total
// count:
//
//	1-5    LOW
//	6-20   MEDIUM
//	21-50  HIGH
//	51+    CRITICAL
//
// Reports identify entities by name, kind, location and signature text. They
// never expose signature hashes.
package impact
