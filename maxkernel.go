package treesearch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/treesearch/kernel"
	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/metric"
	"github.com/hupe1980/treesearch/searcher"
	"github.com/hupe1980/treesearch/traverse"
	"github.com/hupe1980/treesearch/tree"
	"github.com/hupe1980/treesearch/tree/cover"
)

// defaultMKSBase is the cover tree expansion constant for max-kernel
// search. Kernel-space trees favor a looser base than distance trees.
const defaultMKSBase = 2.0

// MaxKernel answers exact max-kernel queries: for each query point, the k
// reference points with the largest kernel value, ties broken by the lower
// reference index.
//
// The kernel induces a distance in its feature space, and the reference
// (and, for dual-tree search, query) index is always a cover tree built
// over that induced metric. WithTree, WithMetric and WithRandomBasis have
// no effect here; WithBase tunes the cover tree.
type MaxKernel struct {
	opts     options
	kern     kernel.Kernel
	base     float64
	input    *matrix.Dense
	refNorms []float64 // sqrt(K(x, x)) per reference row
	refTree  tree.Tree // nil in naive mode
}

// NewMaxKernel builds a searcher over the reference set. The matrix must
// not be mutated afterwards.
func NewMaxKernel(ref *matrix.Dense, kern kernel.Kernel, optFns ...Option) (*MaxKernel, error) {
	opts := applyOptions(optFns)

	if kern == nil {
		return nil, &ParameterError{Name: "kernel", Reason: "must not be nil"}
	}
	if ref == nil || ref.Rows() == 0 {
		return nil, &ParameterError{Name: "reference", Reason: "must not be empty"}
	}
	if ref.Cols() == 0 {
		return nil, &ParameterError{Name: "reference", Reason: "must have at least one dimension"}
	}

	base := opts.base
	if base == 0 {
		base = defaultMKSBase
	}

	s := &MaxKernel{
		opts:     opts,
		kern:     kern,
		base:     base,
		input:    ref,
		refNorms: selfKernelNorms(kern, ref),
	}

	if opts.mode != ModeNaive {
		start := time.Now()
		t, err := cover.New(ref, cover.WithBase(base), cover.WithMetric(metric.NewIPMetric(kern)))
		duration := time.Since(start)

		if err != nil {
			err = translateError(err)
			opts.logger.LogBuild(context.Background(), TreeCover.String(), ref.Rows(), ref.Cols(), 0, duration, err)
			return nil, err
		}

		opts.logger.LogBuild(context.Background(), TreeCover.String(), ref.Rows(), ref.Cols(), t.NumNodes(), duration, nil)
		opts.metricsCollector.RecordBuild(TreeCover.String(), t.NumNodes(), duration)
		s.refTree = t
	}

	return s, nil
}

// Search finds the k reference points with the largest kernel value for
// every row of queries. Results come back one row per query, best first:
// indices into the reference set as passed to NewMaxKernel, and the
// corresponding kernel values.
func (s *MaxKernel) Search(ctx context.Context, queries *matrix.Dense, k int) ([][]int, [][]float64, error) {
	if queries == nil || queries.Rows() == 0 {
		return nil, nil, &ParameterError{Name: "queries", Reason: "must not be empty"}
	}
	if queries.Cols() != s.input.Cols() {
		return nil, nil, &DimensionError{Expected: s.input.Cols(), Actual: queries.Cols()}
	}

	return s.search(ctx, queries, k, false)
}

// SearchSelf finds, for every reference point, the k other reference
// points with the largest kernel value. A point never reports itself, but
// duplicate points are still reported for each other.
func (s *MaxKernel) SearchSelf(ctx context.Context, k int) ([][]int, [][]float64, error) {
	return s.search(ctx, nil, k, true)
}

func (s *MaxKernel) search(ctx context.Context, queries *matrix.Dense, k int, sameSet bool) ([][]int, [][]float64, error) {
	start := time.Now()

	numQueries := s.input.Rows()
	if !sameSet {
		numQueries = queries.Rows()
	}

	indices, values, stats, err := s.run(ctx, queries, k, sameSet, numQueries)

	duration := time.Since(start)
	s.opts.logger.LogSearch(ctx, s.opts.mode.String(), numQueries, k, stats.BaseCases, stats.Scores, duration, err)
	s.opts.metricsCollector.RecordSearch(s.opts.mode.String(), numQueries, k, stats.BaseCases, stats.Scores, duration, err)

	if err != nil {
		return nil, nil, err
	}
	return indices, values, nil
}

func (s *MaxKernel) run(ctx context.Context, queries *matrix.Dense, k int, sameSet bool, numQueries int) ([][]int, [][]float64, traverse.Stats, error) {
	var stats traverse.Stats

	if k < 0 {
		return nil, nil, stats, &ParameterError{Name: "k", Reason: "must not be negative"}
	}
	if k == 0 {
		indices, values := emptyResults(numQueries)
		return indices, values, stats, nil
	}
	if usable := s.usableRefs(); k > usable {
		return nil, nil, stats, &ParameterError{
			Name:   "k",
			Reason: fmt.Sprintf("(%d) greater than number of usable reference points (%d)", k, usable),
		}
	}

	qWork := s.input
	queryNorms := s.refNorms
	if !sameSet {
		qWork = queries
		queryNorms = selfKernelNorms(s.kern, queries)
	}

	list := searcher.NewCandidateList(numQueries, k, searcher.SortDescending)

	switch s.opts.mode {
	case ModeNaive:
		numRefs := s.input.Rows()
		newRule := func() traverse.Rule {
			return &mksRules{
				queries:    qWork,
				refs:       s.input,
				kern:       s.kern,
				list:       list,
				sameSet:    sameSet,
				filter:     s.opts.filter,
				queryNorms: queryNorms,
				refNorms:   s.refNorms,
				lastQuery:  -1,
				lastRef:    -1,
			}
		}

		var err error
		stats, err = runQueries(ctx, numQueries, s.opts.workers, newRule, func(rule traverse.Rule, q int) traverse.Stats {
			return traverse.NaiveQuery(rule, q, numRefs)
		})
		if err != nil {
			return nil, nil, stats, err
		}

	case ModeSingle:
		refs := s.refTree.Dataset()
		root := s.refTree.Root()
		newRule := func() traverse.Rule {
			return &mksRules{
				queries:    qWork,
				refs:       refs,
				kern:       s.kern,
				list:       list,
				sameSet:    sameSet,
				filter:     s.opts.filter,
				queryNorms: queryNorms,
				refNorms:   s.refNorms,
				lastQuery:  -1,
				lastRef:    -1,
			}
		}

		var err error
		stats, err = runQueries(ctx, numQueries, s.opts.workers, newRule, func(rule traverse.Rule, q int) traverse.Stats {
			return traverse.SingleTree(rule, q, root)
		})
		if err != nil {
			return nil, nil, stats, err
		}

	case ModeDual:
		queryTree := s.refTree
		if !sameSet {
			if err := ctx.Err(); err != nil {
				return nil, nil, stats, err
			}

			buildStart := time.Now()
			qt, err := cover.New(qWork, cover.WithBase(s.base), cover.WithMetric(metric.NewIPMetric(s.kern)))
			buildDur := time.Since(buildStart)
			if err != nil {
				return nil, nil, stats, translateError(err)
			}

			s.opts.logger.LogBuild(ctx, TreeCover.String(), qWork.Rows(), qWork.Cols(), qt.NumNodes(), buildDur, nil)
			s.opts.metricsCollector.RecordBuild(TreeCover.String(), qt.NumNodes(), buildDur)
			queryTree = qt
		}

		rule := &mksRules{
			queries:    queryTree.Dataset(),
			refs:       s.refTree.Dataset(),
			kern:       s.kern,
			list:       list,
			sameSet:    sameSet,
			filter:     s.opts.filter,
			queryNorms: queryNorms,
			refNorms:   s.refNorms,
			nodeBounds: newNodeBounds(queryTree.NumNodes(), math.Inf(-1)),
			lastQuery:  -1,
			lastRef:    -1,
		}

		if err := ctx.Err(); err != nil {
			return nil, nil, stats, err
		}
		stats = traverse.DualTree(rule, queryTree.Root(), s.refTree.Root())

	default:
		return nil, nil, stats, &ParameterError{Name: "mode", Reason: "unknown traversal mode"}
	}

	// Cover trees never reorder points, so the candidate list already
	// speaks in input indices.
	indices, values := list.Finalize()
	return indices, values, stats, nil
}

func (s *MaxKernel) usableRefs() int {
	if s.opts.filter == nil {
		return s.input.Rows()
	}

	n := 0
	for i := 0; i < s.input.Rows(); i++ {
		if s.opts.filter(i) {
			n++
		}
	}
	return n
}
