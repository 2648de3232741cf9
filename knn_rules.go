package treesearch

import (
	"math"

	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/metric"
	"github.com/hupe1980/treesearch/searcher"
	"github.com/hupe1980/treesearch/traverse"
	"github.com/hupe1980/treesearch/tree"
)

// knnRules implements the branch-and-bound rules for k-nearest-neighbor
// search: metric distances as base cases, minimum bound distances as
// scores, candidate rows sorted ascending.
//
// Workers must not share an instance; the candidate list and the node
// bound table may be shared as long as no two rule instances touch the
// same query concurrently.
type knnRules struct {
	queries *matrix.Dense
	refs    *matrix.Dense
	metric  metric.Metric
	list    *searcher.CandidateList

	sameSet  bool
	filter   FilterFunc
	queryMap []int // oldFromNew of the query set, nil = identity
	refMap   []int // oldFromNew of the reference set, nil = identity

	// nodeBounds caches B(N_q) per query node slot during dual-tree
	// traversal, monotonically nonincreasing from +Inf.
	nodeBounds []float64

	lastQuery int
	lastRef   int
	lastDist  float64
}

var _ traverse.Rule = (*knnRules)(nil)

func (r *knnRules) origQuery(i int) int {
	if r.queryMap == nil {
		return i
	}
	return r.queryMap[i]
}

func (r *knnRules) origRef(i int) int {
	if r.refMap == nil {
		return i
	}
	return r.refMap[i]
}

// BaseCase computes the exact distance of a point pair and offers it to
// the query's candidate row.
func (r *knnRules) BaseCase(queryIdx, refIdx int) float64 {
	if r.sameSet && r.origQuery(queryIdx) == r.origRef(refIdx) {
		return 0
	}

	if queryIdx == r.lastQuery && refIdx == r.lastRef {
		return r.lastDist
	}

	d := r.metric.Distance(r.queries.Row(queryIdx), r.refs.Row(refIdx))
	r.lastQuery, r.lastRef, r.lastDist = queryIdx, refIdx, d

	if r.filter == nil || r.filter(r.origRef(refIdx)) {
		r.list.Insert(queryIdx, refIdx, d)
	}

	return d
}

// Score prunes a reference subtree whose closest possible point is farther
// than the query's current k-th nearest candidate. Equality never prunes:
// an equally distant candidate with a lower index still outranks.
func (r *knnRules) Score(queryIdx int, ref tree.Node) float64 {
	d := ref.Bound().MinDistance(r.queries.Row(queryIdx))
	if d > r.list.WorstBound(queryIdx) {
		return traverse.PruneScore
	}
	return d
}

// Rescore re-checks a stale score against the bound the traversal has
// tightened since.
func (r *knnRules) Rescore(queryIdx int, ref tree.Node, oldScore float64) float64 {
	if oldScore > r.list.WorstBound(queryIdx) {
		return traverse.PruneScore
	}
	return oldScore
}

// ScoreNodes prunes a node pair whose minimum bound distance exceeds
// B(N_q), the tightest distance still able to improve some query in the
// subtree.
func (r *knnRules) ScoreNodes(query, ref tree.Node) float64 {
	d := query.Bound().MinDistanceBound(ref.Bound())
	if d > r.calculateBound(query) {
		return traverse.PruneScore
	}
	return d
}

// RescoreNodes re-checks a node pair popped off the traversal stack.
func (r *knnRules) RescoreNodes(query, ref tree.Node, oldScore float64) float64 {
	if oldScore > r.calculateBound(query) {
		return traverse.PruneScore
	}
	return oldScore
}

// calculateBound computes B(N_q): a reference region at minimum distance
// beyond it cannot improve any query in the subtree.
//
// Two estimates are combined. The first is the worst current k-th
// candidate distance across the subtree, assembled from the node's own
// points and the children's cached bounds. The second comes from any one
// point p of the node whose row is full: p's candidates, measured from any
// descendant query, gain at most twice the furthest-descendant distance,
// so worst(p) + 2·λ bounds every descendant's final k-th distance. The
// cached value never loosens.
func (r *knnRules) calculateBound(q tree.Node) float64 {
	worst := math.Inf(-1)
	best := math.Inf(1)

	for i := 0; i < q.NumPoints(); i++ {
		b := r.list.WorstBound(q.Point(i))
		if b > worst {
			worst = b
		}
		if b < best {
			best = b
		}
	}

	for i := 0; i < q.NumChildren(); i++ {
		if cb := r.nodeBounds[q.Child(i).Slot()]; cb > worst {
			worst = cb
		}
	}

	bound := worst

	// The point-bound shortcut is invalid when a filter runs on a
	// same-set search: a node point may be denied as a candidate while
	// occupying the very rows that would witness the bound.
	if !(r.sameSet && r.filter != nil) {
		if alt := best + 2*q.FurthestDescendantDistance(); alt < bound {
			bound = alt
		}
	}

	slot := q.Slot()
	if bound < r.nodeBounds[slot] {
		r.nodeBounds[slot] = bound
	}
	return r.nodeBounds[slot]
}

// newNodeBounds allocates a bound cache for numNodes query tree slots.
func newNodeBounds(numNodes int, init float64) []float64 {
	bounds := make([]float64, numNodes)
	for i := range bounds {
		bounds[i] = init
	}
	return bounds
}
