// Package treesearch provides exact k-nearest-neighbor and max-kernel
// search over spatial trees.
//
// Treesearch answers two questions about a fixed reference set: which k
// points are closest to a query under an L_p metric, and which k points
// have the largest kernel value with a query. Both run as branch-and-bound
// traversals over kd-trees, cover trees or R*-trees, and all strategies
// return the same, exact results as a full scan.
//
// # Quick Start
//
//	ref, _ := matrix.FromRows([][]float64{{0, 0}, {1, 0}, {5, 5}})
//	queries, _ := matrix.FromRows([][]float64{{0.2, 0.1}})
//
//	knn, _ := treesearch.NewKNN(ref)
//	indices, distances, _ := knn.Search(ctx, queries, 2)
//
// Searching a set against itself skips each point as its own neighbor:
//
//	indices, distances, _ := knn.SearchSelf(ctx, 3)
//
// # Strategies
//
// The default dual-tree traversal indexes both sides and prunes whole
// pairs of subtrees at once; it is the right choice for large query sets.
// Single-tree descends the reference tree once per query and parallelizes
// across queries with WithWorkers. Naive scans every pair and serves as
// the ground truth the tree strategies are tested against.
//
//	knn, _ := treesearch.NewKNN(ref,
//	    treesearch.WithTree(treesearch.TreeCover),
//	    treesearch.WithMode(treesearch.ModeSingle),
//	    treesearch.WithWorkers(8),
//	)
//
// # Max-Kernel Search
//
// MaxKernel maximizes a kernel instead of minimizing a distance. The
// kernel induces a metric in its feature space, so the index is always a
// cover tree:
//
//	mks, _ := treesearch.NewMaxKernel(ref, kernel.NewLinear())
//	indices, values, _ := mks.Search(ctx, queries, 5)
//
// # Key Features
//
//   - Exact results under every strategy, ties broken by lower index
//   - kd-tree, cover tree and R*-tree reference indexes
//   - Dual-tree, single-tree and naive traversals
//   - Linear, polynomial, cosine, Gaussian and further kernels
//   - Candidate filtering via roaring bitmaps
//   - Random orthogonal basis projection for axis-aligned trees
//   - Structured logging (slog) and pluggable metrics
package treesearch
