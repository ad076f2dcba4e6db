package ripple

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jward/ripple/internal/config"
)

// QueryClass groups queries that share a latency budget.
type QueryClass string

const (
	ClassDirectQuery  QueryClass = "direct_query"
	ClassBlastRadius  QueryClass = "blast_radius"
	ClassWhereDefined QueryClass = "where_defined"
	ClassImpactReport QueryClass = "impact_report"
	ClassListing      QueryClass = "listing"
)

// Budgets is the latency contract for each query class. A zero budget is not
// enforced.
type Budgets struct {
	DirectQuery  time.Duration
	BlastRadius  time.Duration
	WhereDefined time.Duration
	ImpactReport time.Duration
	Listing      time.Duration
}

// DefaultBudgets returns the contract ripple is tested against.
func DefaultBudgets() Budgets {
	return budgetsFromConfig(config.Default().Budgets)
}

func budgetsFromConfig(c config.BudgetConfig) Budgets {
	return Budgets{
		DirectQuery:  c.DirectQuery,
		BlastRadius:  c.BlastRadius,
		WhereDefined: c.WhereDefined,
		ImpactReport: c.ImpactReport,
		Listing:      c.Listing,
	}
}

func (b Budgets) of(class QueryClass) time.Duration {
	switch class {
	case ClassDirectQuery:
		return b.DirectQuery
	case ClassBlastRadius:
		return b.BlastRadius
	case ClassWhereDefined:
		return b.WhereDefined
	case ClassImpactReport:
		return b.ImpactReport
	case ClassListing:
		return b.Listing
	}
	return 0
}

// ContractViolation records one query that ran over its budget. The query
// still completed and its result was returned to the caller.
type ContractViolation struct {
	Class   QueryClass
	Op      string
	Elapsed time.Duration
	Budget  time.Duration
	At      time.Time
}

// maxViolations caps the retained violation history.
const maxViolations = 256

// contractMonitor measures queries against Budgets. It has its own lock so
// that recording never contends with the engine lock.
type contractMonitor struct {
	budgets Budgets
	logger  *slog.Logger

	mu         sync.Mutex
	total      int64
	violations []ContractViolation
}

func newContractMonitor(b Budgets, logger *slog.Logger) *contractMonitor {
	return &contractMonitor{budgets: b, logger: logger}
}

// measure starts timing op. Call the returned func when op is done.
//
//	defer e.contracts.measure(ClassListing, "ListEntities")()
func (m *contractMonitor) measure(class QueryClass, op string) func() {
	start := time.Now()
	return func() {
		m.observe(class, op, time.Since(start))
	}
}

func (m *contractMonitor) observe(class QueryClass, op string, elapsed time.Duration) {
	budget := m.budgets.of(class)
	violated := budget > 0 && elapsed > budget
	recordQueryMetrics(context.Background(), class, elapsed, violated)
	if !violated {
		return
	}

	m.logger.Warn("latency contract exceeded",
		slog.String("class", string(class)),
		slog.String("op", op),
		slog.Duration("elapsed", elapsed),
		slog.Duration("budget", budget),
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	if len(m.violations) == maxViolations {
		m.violations = append(m.violations[:0], m.violations[1:]...)
	}
	m.violations = append(m.violations, ContractViolation{
		Class:   class,
		Op:      op,
		Elapsed: elapsed,
		Budget:  budget,
		At:      time.Now(),
	})
}

// snapshot returns the retained violations and the all-time count.
func (m *contractMonitor) snapshot() ([]ContractViolation, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ContractViolation, len(m.violations))
	copy(out, m.violations)
	return out, m.total
}

func (m *contractMonitor) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations = nil
	m.total = 0
}
