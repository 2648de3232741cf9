package benchmark_test

import (
	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/testutil"
)

// Standard dimensions used across benchmarks. Spatial trees are most
// effective in low dimensions; dimLarge is where pruning starts to degrade.
const (
	dimSmall  = 2
	dimMedium = 8
	dimLarge  = 32
)

// Standard dataset sizes.
const (
	sizeSmall  = 1_000
	sizeMedium = 10_000
	sizeLarge  = 100_000
)

// Seed for deterministic benchmarks - enables reproducible comparisons.
const benchSeed = 42

const benchK = 10

// makeDatasets returns a clustered reference set and a uniform query set.
// Clustered references are the favorable case for branch-and-bound pruning
// and the realistic one.
func makeDatasets(refRows, queryRows, dim int) (*matrix.Dense, *matrix.Dense) {
	rng := testutil.NewRNG(benchSeed)

	ref := rng.ClusteredMatrix(refRows, dim, 32, 0.05)
	query := rng.UniformMatrix(queryRows, dim)

	return ref, query
}
