package treesearch

import (
	"math"

	"github.com/hupe1980/treesearch/kernel"
	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/searcher"
	"github.com/hupe1980/treesearch/traverse"
	"github.com/hupe1980/treesearch/tree"
)

// mksRules implements the branch-and-bound rules for max-kernel search:
// kernel evaluations as base cases, candidate rows sorted descending.
// Bounds live in the kernel's feature space, so the rules require cover
// trees built in the kernel-induced metric; every node carries a
// representative point, and the node radius is a feature-space distance.
//
// Scores are negated upper bounds, keeping "lower score = more promising"
// for the drivers.
type mksRules struct {
	queries *matrix.Dense
	refs    *matrix.Dense
	kern    kernel.Kernel
	list    *searcher.CandidateList

	sameSet bool
	filter  FilterFunc

	// Self-kernel caches: sqrt(K(x,x)) is the feature-space norm the
	// bounds multiply node radii with.
	queryNorms []float64
	refNorms   []float64

	// nodeBounds caches the smallest k-th best kernel value over a query
	// subtree, per node slot, monotonically nondecreasing from -Inf.
	nodeBounds []float64

	lastQuery  int
	lastRef    int
	lastKernel float64
}

var _ traverse.Rule = (*mksRules)(nil)

// BaseCase evaluates the kernel for a point pair and offers it to the
// query's candidate row.
func (r *mksRules) BaseCase(queryIdx, refIdx int) float64 {
	if r.sameSet && queryIdx == refIdx {
		return r.queryNorms[queryIdx] * r.queryNorms[queryIdx]
	}

	if queryIdx == r.lastQuery && refIdx == r.lastRef {
		return r.lastKernel
	}

	k := r.kern.Evaluate(r.queries.Row(queryIdx), r.refs.Row(refIdx))
	r.lastQuery, r.lastRef, r.lastKernel = queryIdx, refIdx, k

	if r.filter == nil || r.filter(refIdx) {
		r.list.Insert(queryIdx, refIdx, k)
	}

	return k
}

// Score bounds the best kernel value any descendant of ref can reach for
// the query: the representative's kernel value plus the node radius scaled
// by the query's feature-space norm. The representative evaluation doubles
// as a base case, tightening the row before descent. Equality never
// prunes.
func (r *mksRules) Score(queryIdx int, ref tree.Node) float64 {
	kqr := r.BaseCase(queryIdx, ref.Point(0))
	bound := kqr + ref.FurthestDescendantDistance()*r.queryNorms[queryIdx]

	if bound < r.list.WorstBound(queryIdx) {
		return traverse.PruneScore
	}
	return -bound
}

// Rescore re-checks a stale score against the row the traversal has
// filled since.
func (r *mksRules) Rescore(queryIdx int, ref tree.Node, oldScore float64) float64 {
	if -oldScore < r.list.WorstBound(queryIdx) {
		return traverse.PruneScore
	}
	return oldScore
}

// ScoreNodes bounds the best kernel value between any descendant query and
// any descendant reference: the representatives' kernel value plus cross
// terms for both node radii.
func (r *mksRules) ScoreNodes(query, ref tree.Node) float64 {
	qRep, rRep := query.Point(0), ref.Point(0)
	kqr := r.BaseCase(qRep, rRep)

	lq := query.FurthestDescendantDistance()
	lr := ref.FurthestDescendantDistance()
	bound := kqr + lq*r.refNorms[rRep] + lr*r.queryNorms[qRep] + lq*lr

	if bound < r.calculateBound(query) {
		return traverse.PruneScore
	}
	return -bound
}

// RescoreNodes re-checks a node pair popped off the traversal stack.
func (r *mksRules) RescoreNodes(query, ref tree.Node, oldScore float64) float64 {
	if -oldScore < r.calculateBound(query) {
		return traverse.PruneScore
	}
	return oldScore
}

// calculateBound computes B(N_q): the smallest current k-th best kernel
// value over the subtree's queries, assembled from the node's own points
// and the children's cached bounds. A reference region whose kernel upper
// bound falls below it cannot improve any query in the subtree. The cached
// value never loosens.
func (r *mksRules) calculateBound(q tree.Node) float64 {
	bound := math.Inf(1)

	for i := 0; i < q.NumPoints(); i++ {
		if b := r.list.WorstBound(q.Point(i)); b < bound {
			bound = b
		}
	}

	for i := 0; i < q.NumChildren(); i++ {
		if cb := r.nodeBounds[q.Child(i).Slot()]; cb < bound {
			bound = cb
		}
	}

	slot := q.Slot()
	if bound > r.nodeBounds[slot] {
		r.nodeBounds[slot] = bound
	}
	return r.nodeBounds[slot]
}

// selfKernelNorms computes sqrt(K(x,x)) for every row of m.
func selfKernelNorms(kern kernel.Kernel, m *matrix.Dense) []float64 {
	norms := make([]float64, m.Rows())
	for i := range norms {
		v := kern.Evaluate(m.Row(i), m.Row(i))
		if v < 0 {
			v = 0
		}
		norms[i] = math.Sqrt(v)
	}
	return norms
}
