package treesearch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/treesearch/traverse"
)

// runQueries executes run for every query index. With more than one worker
// the loop fans out over contiguous query ranges on an errgroup; every
// worker builds its own rule instance so per-rule caches are never shared,
// and the shared candidate list stays safe because workers own disjoint
// query rows. Cancellation is honored between queries; a query's traversal
// is never aborted midway.
func runQueries(ctx context.Context, numQueries, workers int, newRule func() traverse.Rule, run func(rule traverse.Rule, queryIdx int) traverse.Stats) (traverse.Stats, error) {
	if workers <= 1 {
		var total traverse.Stats
		rule := newRule()
		for q := 0; q < numQueries; q++ {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			total.Add(run(rule, q))
		}
		return total, nil
	}

	chunk := (numQueries + workers - 1) / workers
	results := make([]traverse.Stats, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		lo := w * chunk
		hi := min(lo+chunk, numQueries)
		if lo >= hi {
			break
		}

		g.Go(func() error {
			rule := newRule()
			for q := lo; q < hi; q++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[w].Add(run(rule, q))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return traverse.Stats{}, err
	}

	var total traverse.Stats
	for _, s := range results {
		total.Add(s)
	}
	return total, nil
}

// emptyResults returns k=0 output: one empty row per query.
func emptyResults(numQueries int) ([][]int, [][]float64) {
	indices := make([][]int, numQueries)
	values := make([][]float64, numQueries)
	for q := 0; q < numQueries; q++ {
		indices[q] = []int{}
		values[q] = []float64{}
	}
	return indices, values
}
