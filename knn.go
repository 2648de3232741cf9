package treesearch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/treesearch/basis"
	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/metric"
	"github.com/hupe1980/treesearch/searcher"
	"github.com/hupe1980/treesearch/traverse"
	"github.com/hupe1980/treesearch/tree"
	"github.com/hupe1980/treesearch/tree/cover"
	"github.com/hupe1980/treesearch/tree/kd"
	"github.com/hupe1980/treesearch/tree/rstar"
)

// defaultKNNBase is the cover tree expansion constant for nearest-neighbor
// search. Distance trees favor a tighter base than kernel trees.
const defaultKNNBase = 1.3

// KNN answers exact k-nearest-neighbor queries over a fixed reference set.
//
// The reference tree is built once, eagerly; a KNN is then safe for
// concurrent use by multiple goroutines, each search carrying its own
// state. Results are exact: every strategy returns the same neighbors as a
// full scan, with distance ties broken by the lower reference index.
type KNN struct {
	opts    options
	metric  *metric.LMetric
	base    float64
	input   *matrix.Dense // reference set as given
	work    *matrix.Dense // searched reference set (basis-projected when enabled)
	proj    *basis.Basis
	refTree tree.Tree // nil in naive mode
}

// NewKNN builds a searcher over the reference set. The matrix must not be
// mutated afterwards.
func NewKNN(ref *matrix.Dense, optFns ...Option) (*KNN, error) {
	opts := applyOptions(optFns)

	if ref == nil || ref.Rows() == 0 {
		return nil, &ParameterError{Name: "reference", Reason: "must not be empty"}
	}
	if ref.Cols() == 0 {
		return nil, &ParameterError{Name: "reference", Reason: "must have at least one dimension"}
	}

	m := opts.metric
	if m == nil {
		m = metric.NewEuclidean()
	}

	base := opts.base
	if base == 0 {
		base = defaultKNNBase
	}

	s := &KNN{
		opts:   opts,
		metric: m,
		base:   base,
		input:  ref,
		work:   ref,
	}

	if opts.randomBasis {
		proj, err := basis.Random(ref.Cols(), opts.randomBasisSeed)
		if err != nil {
			return nil, &ParameterError{Name: "reference", Reason: "random basis requires at least one dimension"}
		}

		work, err := proj.Apply(ref)
		if err != nil {
			return nil, err
		}

		s.proj = proj
		s.work = work
	}

	if opts.mode != ModeNaive {
		start := time.Now()
		t, err := s.buildTree(s.work)
		duration := time.Since(start)

		if err != nil {
			err = translateError(err)
			opts.logger.LogBuild(context.Background(), opts.treeKind.String(), ref.Rows(), ref.Cols(), 0, duration, err)
			return nil, err
		}

		opts.logger.LogBuild(context.Background(), opts.treeKind.String(), ref.Rows(), ref.Cols(), t.NumNodes(), duration, nil)
		opts.metricsCollector.RecordBuild(opts.treeKind.String(), t.NumNodes(), duration)
		s.refTree = t
	}

	return s, nil
}

// Search finds the k nearest reference points for every row of queries.
// Results come back one row per query, nearest first: indices into the
// reference set as passed to NewKNN, and the corresponding distances.
func (s *KNN) Search(ctx context.Context, queries *matrix.Dense, k int) ([][]int, [][]float64, error) {
	if queries == nil || queries.Rows() == 0 {
		return nil, nil, &ParameterError{Name: "queries", Reason: "must not be empty"}
	}
	if queries.Cols() != s.input.Cols() {
		return nil, nil, &DimensionError{Expected: s.input.Cols(), Actual: queries.Cols()}
	}

	return s.search(ctx, queries, k, false)
}

// SearchSelf finds the k nearest neighbors of every reference point within
// the reference set itself, never reporting a point as its own neighbor.
// Duplicate points are still reported for each other.
func (s *KNN) SearchSelf(ctx context.Context, k int) ([][]int, [][]float64, error) {
	return s.search(ctx, nil, k, true)
}

func (s *KNN) search(ctx context.Context, queries *matrix.Dense, k int, sameSet bool) ([][]int, [][]float64, error) {
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

func (s *KNN) run(ctx context.Context, queries *matrix.Dense, k int, sameSet bool, numQueries int) ([][]int, [][]float64, traverse.Stats, error) {
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

	// Same-set searches run against the (projected) reference set itself;
	// distinct query sets are projected into the same space.
	qWork := s.work
	if !sameSet {
		qWork = queries
		if s.proj != nil {
			var err error
			qWork, err = s.proj.Apply(queries)
			if err != nil {
				return nil, nil, stats, err
			}
		}
	}

	list := searcher.NewCandidateList(numQueries, k, searcher.SortAscending)

	var refMap, queryMap []int

	switch s.opts.mode {
	case ModeNaive:
		numRefs := s.work.Rows()
		newRule := func() traverse.Rule {
			return &knnRules{
				queries:   qWork,
				refs:      s.work,
				metric:    s.metric,
				list:      list,
				sameSet:   sameSet,
				filter:    s.opts.filter,
				lastQuery: -1,
				lastRef:   -1,
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
		refMap = s.refTree.OldFromNew()
		refs := s.refTree.Dataset()
		root := s.refTree.Root()
		newRule := func() traverse.Rule {
			return &knnRules{
				queries:   qWork,
				refs:      refs,
				metric:    s.metric,
				list:      list,
				sameSet:   sameSet,
				filter:    s.opts.filter,
				refMap:    refMap,
				lastQuery: -1,
				lastRef:   -1,
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
			qt, err := s.buildTree(qWork)
			buildDur := time.Since(buildStart)
			if err != nil {
				return nil, nil, stats, translateError(err)
			}

			s.opts.logger.LogBuild(ctx, s.opts.treeKind.String(), qWork.Rows(), qWork.Cols(), qt.NumNodes(), buildDur, nil)
			s.opts.metricsCollector.RecordBuild(s.opts.treeKind.String(), qt.NumNodes(), buildDur)
			queryTree = qt
		}

		refMap = s.refTree.OldFromNew()
		queryMap = queryTree.OldFromNew()

		rule := &knnRules{
			queries:    queryTree.Dataset(),
			refs:       s.refTree.Dataset(),
			metric:     s.metric,
			list:       list,
			sameSet:    sameSet,
			filter:     s.opts.filter,
			queryMap:   queryMap,
			refMap:     refMap,
			nodeBounds: newNodeBounds(queryTree.NumNodes(), math.Inf(1)),
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

	rawIndices, rawValues := list.Finalize()
	indices, values, err := UnmapResults(rawIndices, rawValues, refMap, queryMap)
	if err != nil {
		return nil, nil, stats, err
	}
	return indices, values, stats, nil
}

func (s *KNN) buildTree(data *matrix.Dense) (tree.Tree, error) {
	switch s.opts.treeKind {
	case TreeKD:
		return kd.New(data, kd.WithLeafSize(s.opts.leafSize), kd.WithMetric(s.metric))
	case TreeCover:
		return cover.New(data, cover.WithBase(s.base), cover.WithMetric(s.metric))
	case TreeRStar:
		optFns := append([]func(*rstar.Options){
			rstar.WithLeafSize(s.opts.leafSize),
			rstar.WithMetric(s.metric),
		}, s.opts.rstarOptions...)
		return rstar.New(data, optFns...)
	default:
		return nil, &ParameterError{Name: "tree", Reason: "unknown tree kind"}
	}
}

// usableRefs counts the reference points a search may return.
func (s *KNN) usableRefs() int {
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
