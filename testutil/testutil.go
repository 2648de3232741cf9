package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/treesearch/kernel"
	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/metric"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformMatrix generates rows x cols points with values in [0, 1).
func (r *RNG) UniformMatrix(rows, cols int) *matrix.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := matrix.New(rows, cols)
	data := m.Data()

	for i := range data {
		data[i] = r.rand.Float64()
	}

	return m
}

// GaussianMatrix generates rows x cols points drawn from a standard normal
// distribution.
func (r *RNG) GaussianMatrix(rows, cols int) *matrix.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := matrix.New(rows, cols)
	data := m.Data()

	for i := range data {
		data[i] = r.rand.NormFloat64()
	}

	return m
}

// ClusteredMatrix generates points grouped around `clusters` gaussian
// centroids with the given noise spread. Tree pruning behaves very
// differently on clustered data than on uniform data, so both belong in
// tests.
func (r *RNG) ClusteredMatrix(rows, cols, clusters int, spread float64) *matrix.Dense {
	centroids := r.GaussianMatrix(clusters, cols)

	r.mu.Lock()
	defer r.mu.Unlock()

	m := matrix.New(rows, cols)
	for i := 0; i < rows; i++ {
		c := centroids.Row(i % clusters)

		row := m.Row(i)
		for j := range row {
			row[j] = c[j] + r.rand.NormFloat64()*spread
		}
	}

	return m
}

// Neighbor is one brute-force search result.
type Neighbor struct {
	Index int
	Value float64
}

// BruteForceNeighbors returns the k nearest reference points for the query
// in ascending distance order, breaking ties by lower reference index. If
// exclude is >= 0 that reference index is skipped.
func BruteForceNeighbors(m metric.Metric, ref *matrix.Dense, query []float64, k, exclude int) []Neighbor {
	out := make([]Neighbor, 0, ref.Rows())

	for i := 0; i < ref.Rows(); i++ {
		if i == exclude {
			continue
		}

		out = append(out, Neighbor{Index: i, Value: m.Distance(ref.Row(i), query)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value < out[j].Value
		}

		return out[i].Index < out[j].Index
	})

	if len(out) > k {
		out = out[:k]
	}

	return out
}

// BruteForceMaxKernels returns the k reference points with the largest
// kernel value against the query in descending order, breaking ties by
// lower reference index. If exclude is >= 0 that reference index is
// skipped.
func BruteForceMaxKernels(kern kernel.Kernel, ref *matrix.Dense, query []float64, k, exclude int) []Neighbor {
	out := make([]Neighbor, 0, ref.Rows())

	for i := 0; i < ref.Rows(); i++ {
		if i == exclude {
			continue
		}

		out = append(out, Neighbor{Index: i, Value: kern.Evaluate(ref.Row(i), query)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}

		return out[i].Index < out[j].Index
	})

	if len(out) > k {
		out = out[:k]
	}

	return out
}
