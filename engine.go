package ripple

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jward/ripple/internal/config"
	"github.com/jward/ripple/internal/graph"
)

// Engine owns the single authoritative relationship graph of a process and
// serializes access to it. Every read takes the shared side of one
// sync.RWMutex; every mutation takes the exclusive side.
type Engine struct {
	mu         sync.RWMutex
	g          *graph.Graph
	ix         *graph.Indexes
	q          *graph.QueryEngine
	generation uint64

	id             uuid.UUID
	logger         *slog.Logger
	maxConcurrency int
	strictNames    bool
	budgets        Budgets
	contracts      *contractMonitor
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxConcurrency bounds the number of in-flight queries issued by the
// batch helpers. Values below 1 are treated as 1.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		e.maxConcurrency = max(n, 1)
	}
}

// WithBudgets replaces the latency contract.
func WithBudgets(b Budgets) Option {
	return func(e *Engine) {
		e.budgets = b
	}
}

// WithStrictNames makes name resolution fail with an AmbiguousEntityError
// when a name matches more than one entity, instead of taking the first
// candidate.
func WithStrictNames(strict bool) Option {
	return func(e *Engine) {
		e.strictNames = strict
	}
}

// WithConfig applies the engine and budget sections of a loaded config.
// Options listed after it still take precedence.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.maxConcurrency = max(cfg.Engine.MaxConcurrency, 1)
		e.strictNames = cfg.Engine.StrictNames
		e.budgets = budgetsFromConfig(cfg.Budgets)
	}
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	g := graph.New()
	ix := graph.BuildIndexes(g)
	e := &Engine{
		g:              g,
		ix:             ix,
		q:              graph.NewQueryEngine(g, ix),
		id:             uuid.New(),
		logger:         slog.New(slog.DiscardHandler),
		maxConcurrency: config.Default().Engine.MaxConcurrency,
		budgets:        DefaultBudgets(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.contracts = newContractMonitor(e.budgets, e.logger)
	return e
}

// Query returns a QueryBuilder over the Engine.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{e: e}
}

// ID identifies this Engine instance for the lifetime of the process.
func (e *Engine) ID() string { return e.id.String() }

// --- Writes ---

// UpsertNode inserts n or replaces the node with the same hash. Existing
// edges of a replaced node are kept. Reports whether a node was replaced.
func (e *Engine) UpsertNode(n Node) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.upsertNodeLocked(n)
}

func (e *Engine) upsertNodeLocked(n Node) bool {
	if old, err := e.g.Node(n.Hash); err == nil {
		e.ix.Remove(old)
	}
	replaced := e.g.UpsertNode(n)
	e.ix.Add(n)
	return replaced
}

// AddEntity builds a node from its parts, upserts it and returns it.
func (e *Engine) AddEntity(kind EntityKind, name, signature, filePath string, line int) Node {
	n := graph.NewNode(kind, name, signature, filePath, line)
	e.UpsertNode(n)
	return n
}

// UpsertEdge inserts the edge from -> to. Both endpoints must exist; a
// missing endpoint yields a NodeNotFoundError and nothing is stored.
func (e *Engine) UpsertEdge(from, to SignatureHash, kind EdgeKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.g.UpsertEdge(from, to, kind)
}

// RemoveFile drops every entity defined in path along with its edges.
// Returns how many entities were removed.
func (e *Engine) RemoveFile(path string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, h := range e.ix.Files.Lookup(path, nil) {
		if n, err := e.g.Node(h); err == nil {
			e.ix.Remove(n)
		}
	}
	removed := e.g.RemoveFile(path)
	if len(removed) > 0 {
		e.logger.Debug("removed file", slog.String("path", path), slog.Int("entities", len(removed)))
	}
	return len(removed)
}

// InvalidateIndexes rebuilds the name and file indexes from the graph. Call
// it after re-ingestion that bypassed Ingest.
func (e *Engine) InvalidateIndexes() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rebuildLocked(context.Background())
}

func (e *Engine) rebuildLocked(ctx context.Context) {
	start := time.Now()
	e.ix = graph.BuildIndexes(e.g)
	e.q = graph.NewQueryEngine(e.g, e.ix)
	e.generation++
	recordIndexRebuild(ctx)
	e.logger.Debug("indexes rebuilt",
		slog.Uint64("generation", e.generation),
		slog.Int("nodes", e.g.NodeCount()),
		slog.Duration("elapsed", time.Since(start)),
	)
}

// --- Batch ingestion ---

// Batch is a unit of ingestion. Nodes are applied before edges, so an edge
// may reference a node introduced in the same batch.
type Batch struct {
	Nodes []Node
	Edges []Edge
}

// EdgeRejection is an edge that could not be stored.
type EdgeRejection struct {
	Edge Edge
	Err  error
}

// IngestResult summarizes a batch.
type IngestResult struct {
	Nodes    int // nodes upserted
	Replaced int // of which replaced an existing node
	Edges    int // edges accepted
	Rejected []EdgeRejection
}

// Ingest applies b under one exclusive lock and rebuilds the indexes once.
// Edges with a missing endpoint are reported in the result and do not abort
// the batch.
func (e *Engine) Ingest(ctx context.Context, b Batch) (*IngestResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, span := startIngestSpan(ctx, len(b.Nodes), len(b.Edges))
	defer span.End()
	start := time.Now()

	res := &IngestResult{}
	func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		for _, n := range b.Nodes {
			if e.g.UpsertNode(n) {
				res.Replaced++
			}
			res.Nodes++
		}
		for _, edge := range b.Edges {
			if err := e.g.UpsertEdge(edge.From, edge.To, edge.Kind); err != nil {
				res.Rejected = append(res.Rejected, EdgeRejection{Edge: edge, Err: err})
				continue
			}
			res.Edges++
		}
		e.rebuildLocked(ctx)
	}()

	elapsed := time.Since(start)
	recordIngestMetrics(ctx, elapsed, len(res.Rejected))
	e.logger.Info("batch ingested",
		slog.Int("nodes", res.Nodes),
		slog.Int("replaced", res.Replaced),
		slog.Int("edges", res.Edges),
		slog.Int("rejected", len(res.Rejected)),
		slog.Duration("elapsed", elapsed),
	)
	return res, nil
}

// RecordSource streams previously extracted records, e.g. from the SQLite
// hand-off store.
type RecordSource interface {
	Entities(ctx context.Context, fn func(Node) error) error
	Relationships(ctx context.Context, fn func(Edge) error) error
}

// LoadFrom replays every record in src into the graph as one batch.
func (e *Engine) LoadFrom(ctx context.Context, src RecordSource) (*IngestResult, error) {
	var b Batch
	if err := src.Entities(ctx, func(n Node) error {
		b.Nodes = append(b.Nodes, n)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	if err := src.Relationships(ctx, func(edge Edge) error {
		b.Edges = append(b.Edges, edge)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}

	res, err := e.Ingest(ctx, b)
	if err != nil {
		return nil, err
	}
	for _, r := range res.Rejected {
		e.logger.Warn("dangling relationship skipped",
			slog.String("from", r.Edge.From.String()),
			slog.String("to", r.Edge.To.String()),
			slog.String("kind", r.Edge.Kind.String()),
		)
	}
	return res, nil
}

// --- Introspection ---

// NodeCount returns the number of entities in the graph.
func (e *Engine) NodeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.g.NodeCount()
}

// EdgeCount returns the number of relationships in the graph.
func (e *Engine) EdgeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.g.EdgeCount()
}

// Health is a point-in-time view of the Engine.
type Health struct {
	InstanceID         string `json:"instance_id"`
	Status             string `json:"status"`
	Nodes              int    `json:"nodes"`
	Edges              int    `json:"edges"`
	Files              int    `json:"files"`
	IndexedNodes       int    `json:"indexed_nodes"`
	IndexGeneration    uint64 `json:"index_generation"`
	ContractViolations int64  `json:"contract_violations"`
}

// Health status values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// errIndexDrift is reported when the file index disagrees with the graph.
var errIndexDrift = errors.New("file index out of sync with graph")

// HealthCheck reports counts and verifies that the indexes cover every node.
// A mismatch marks the Engine degraded; InvalidateIndexes repairs it.
func (e *Engine) HealthCheck() (Health, error) {
	e.mu.RLock()
	h := Health{
		InstanceID:      e.id.String(),
		Nodes:           e.g.NodeCount(),
		Edges:           e.g.EdgeCount(),
		IndexGeneration: e.generation,
	}
	files := e.ix.Files.Files()
	h.Files = len(files)
	for _, f := range files {
		h.IndexedNodes += e.ix.Files.Count(f)
	}
	e.mu.RUnlock()

	_, h.ContractViolations = e.contracts.snapshot()
	h.Status = StatusOK
	if h.IndexedNodes != h.Nodes {
		h.Status = StatusDegraded
		return h, fmt.Errorf("health: %w (%d indexed, %d in graph)", errIndexDrift, h.IndexedNodes, h.Nodes)
	}
	return h, nil
}

// ContractViolations returns the most recent latency-contract overruns,
// oldest first.
func (e *Engine) ContractViolations() []ContractViolation {
	v, _ := e.contracts.snapshot()
	return v
}

// ResetContractViolations clears the violation history.
func (e *Engine) ResetContractViolations() {
	e.contracts.reset()
}

// view takes the shared lock and starts the latency clock for op. The
// returned func releases both.
func (e *Engine) view(class QueryClass, op string) func() {
	done := e.contracts.measure(class, op)
	e.mu.RLock()
	return func() {
		e.mu.RUnlock()
		done()
	}
}
