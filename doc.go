// Package ripple answers "what else is affected if I change this?" for a
// codebase indexed as a graph of entities (functions, types, interfaces,
// modules) and the relationships between them (calls, uses, implements).
//
// # Model
//
// Every entity is identified by a [SignatureHash], the xxhash64 of its
// canonical signature string. Re-ingesting an unchanged declaration yields
// the same hash, so upserts are idempotent. Edges are directed and both
// endpoints must exist before an edge is accepted.
//
// # Usage
//
// Create an Engine, feed it records and query it:
//
//	e := ripple.New(ripple.WithLogger(logger))
//
//	main := e.AddEntity(ripple.KindFunction, "main", "src/main.rs::fn main()", "src/main.rs", 1)
//	svc := e.AddEntity(ripple.KindStruct, "UserService", "src/services/user.rs::struct UserService", "src/services/user.rs", 10)
//	err := e.UpsertEdge(main.Hash, svc.Hash, ripple.Calls)
//
//	report, err := e.Query().AnalyzeImpact(ctx, "UserService")
//	fmt.Println(report.Summary())
//
// Bulk loads go through [Engine.Ingest] or [Engine.LoadFrom], which apply a
// whole batch under one write lock and rebuild the indexes once.
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] provides:
//
//   - [QueryBuilder.BlastRadius]: every entity with a path into the target.
//   - [QueryBuilder.Callers], [QueryBuilder.Implementors], [QueryBuilder.Users]:
//     direct neighbors by edge kind.
//   - [QueryBuilder.AnalyzeImpact]: blast radius classified by risk and split
//     into production and test code.
//   - [QueryBuilder.EntitiesInFile] and [QueryBuilder.WhereDefined]: index
//     lookups that return empty results, not errors, when nothing matches.
//   - Discovery listings with filtering, sorting and pagination, such as
//     [QueryBuilder.ListEntities] and [QueryBuilder.SearchEntities].
//
// # Concurrency
//
// An Engine holds one graph behind a single sync.RWMutex. Any number of
// queries run in parallel; writes are exclusive and never observed half
// applied. The batch helpers ([Engine.BatchBlastRadius] and friends) bound
// the number of queries in flight with [WithMaxConcurrency].
//
// # Latency contracts
//
// Each query belongs to a [QueryClass] with a latency budget. Overruns are
// logged, counted in telemetry and kept in [Engine.ContractViolations]; the
// query result is still returned.
package ripple
