// Package testutil provides testing utilities for treesearch.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random point sets and computing exact
// search results by brute force.
//
// # Random Dataset Generation
//
//	rng := testutil.NewRNG(seed)
//	ref := rng.UniformMatrix(1000, 8)     // uniform [0, 1)
//	ref = rng.GaussianMatrix(1000, 8)     // standard normal
//	ref = rng.ClusteredMatrix(1000, 8, 10, 0.1)
//
// # Ground Truth
//
//	nn := testutil.BruteForceNeighbors(metric.NewEuclidean(), ref, query, k, -1)
//	mk := testutil.BruteForceMaxKernels(kernel.NewLinear(), ref, query, k, -1)
package testutil
