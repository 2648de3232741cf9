// Package traverse implements the branch-and-bound drivers that power exact
// tree search. A driver walks one or two spatial trees and delegates all
// problem-specific work to a Rule: the rule evaluates point pairs (BaseCase),
// assigns priorities to subtrees (Score/ScoreNodes) and re-checks stale
// priorities against bounds that tightened in the meantime
// (Rescore/RescoreNodes).
//
// Scores are priorities, not results: a lower score means a more promising
// subtree, and PruneScore means the subtree can be skipped entirely. Drivers
// never interpret scores beyond ordering and pruning, so the same drivers
// serve nearest-neighbor search, max-kernel search and any other rule whose
// bounds are monotone along tree descent.
package traverse

import (
	"math"

	"github.com/hupe1980/treesearch/tree"
)

// PruneScore is returned by a rule to signal that a node (or node
// combination) cannot contain a useful result and must not be visited.
const PruneScore = math.MaxFloat64

// Rule supplies the problem-specific pieces of a branch-and-bound traversal.
//
// Implementations must keep their bounds monotone: once a rule reports
// PruneScore for a node the node must stay prunable for the rest of the
// traversal. Drivers rely on this to rescore stale stack entries instead of
// recomputing them from scratch.
type Rule interface {
	// BaseCase evaluates a single (query point, reference point) pair and
	// returns the computed value. Drivers invoke it only for points held by
	// leaves, so every pair is evaluated at most once per traversal.
	BaseCase(queryIdx, refIdx int) float64

	// Score prioritizes a reference subtree for one query point. It returns
	// PruneScore when the subtree cannot improve the query's results.
	Score(queryIdx int, ref tree.Node) float64

	// Rescore re-checks a previously computed score after bounds may have
	// tightened. It must not loosen: the result is either oldScore or
	// PruneScore.
	Rescore(queryIdx int, ref tree.Node, oldScore float64) float64

	// ScoreNodes prioritizes a (query subtree, reference subtree) pair for
	// dual-tree traversal.
	ScoreNodes(query, ref tree.Node) float64

	// RescoreNodes re-checks a node-pair score after bounds may have
	// tightened.
	RescoreNodes(query, ref tree.Node, oldScore float64) float64
}

// Stats counts the work performed by a traversal. Base cases measure exact
// evaluations, scores measure bound computations; together they expose how
// much of the search space a traversal actually touched.
type Stats struct {
	BaseCases int64
	Scores    int64
}

// Add accumulates another traversal's counters, e.g. when per-query
// traversals run on a worker pool.
func (s *Stats) Add(o Stats) {
	s.BaseCases += o.BaseCases
	s.Scores += o.Scores
}
