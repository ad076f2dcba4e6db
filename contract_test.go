package ripple

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestLatencyContracts_ConcurrentReaders holds the median latency of each
// query class to its default budget while a dozen readers share a graph of
// 2,000 entities.
func TestLatencyContracts_ConcurrentReaders(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	if raceEnabled {
		t.Skip("race detector distorts timings")
	}

	e, root := benchEngine(t, 100, 20)
	q := e.Query()
	ctx := context.Background()
	budgets := DefaultBudgets()

	ops := []struct {
		class QueryClass
		run   func() error
	}{
		{ClassBlastRadius, func() error {
			_, err := q.BlastRadius(root.Hash)
			return err
		}},
		{ClassImpactReport, func() error {
			_, err := q.AnalyzeImpact(ctx, "fn_3_5")
			return err
		}},
		{ClassWhereDefined, func() error {
			if _, ok := q.WhereDefined("fn_50_10"); !ok {
				return ErrEntityNotFound
			}
			return nil
		}},
		{ClassListing, func() error {
			if got := q.EntitiesInFile("src/pkg07/file007.rs", nil); len(got) != 20 {
				return ErrEntityNotFound
			}
			return nil
		}},
		{ClassListing, func() error {
			_, err := q.ListEntities(EntityFilter{PathPrefix: ptr("src/pkg03")}, Sort{Field: SortByName}, Pagination{})
			return err
		}},
	}

	// Warm caches and the allocator before measuring.
	for _, op := range ops {
		require.NoError(t, op.run())
	}

	const (
		readers = 12
		rounds  = 200
	)
	var (
		mu      sync.Mutex
		samples = make(map[QueryClass][]time.Duration)
	)
	var g errgroup.Group
	for r := range readers {
		g.Go(func() error {
			local := make(map[QueryClass][]time.Duration)
			for i := range rounds {
				op := ops[(r+i)%len(ops)]
				start := time.Now()
				if err := op.run(); err != nil {
					return err
				}
				local[op.class] = append(local[op.class], time.Since(start))
			}
			mu.Lock()
			defer mu.Unlock()
			for c, d := range local {
				samples[c] = append(samples[c], d...)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, class := range []QueryClass{ClassBlastRadius, ClassImpactReport, ClassWhereDefined, ClassListing} {
		ds := samples[class]
		require.NotEmpty(t, ds, class)
		slices.Sort(ds)
		median := ds[len(ds)/2]
		assert.LessOrEqual(t, median, budgets.of(class), "median %s latency", class)
		t.Logf("%s: median %v p99 %v over %d calls", class, median, ds[len(ds)*99/100], len(ds))
	}
}
