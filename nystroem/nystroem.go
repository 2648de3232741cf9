// Package nystroem approximates large kernel matrices with a low-rank
// factor. Apply returns G of shape n x rank with G·Gᵀ ≈ K, where K is the
// full n x n kernel matrix: rank landmark points are chosen, the kernel is
// evaluated against the landmarks only, and the landmark matrix's
// eigendecomposition turns the n x rank slab into the factor.
package nystroem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/treesearch/kernel"
	"github.com/hupe1980/treesearch/matrix"
)

// Selection is the landmark sampling strategy.
type Selection int

const (
	// SelectionRandom samples landmarks uniformly without replacement.
	SelectionRandom Selection = iota

	// SelectionOrdered takes the first rank rows. Cheapest, and fine when
	// the data is already shuffled.
	SelectionOrdered

	// SelectionKMeans clusters the data and uses the centroids as
	// landmarks. Slowest, usually the best approximation.
	SelectionKMeans
)

// String returns a stable identifier used in logs and CLI flags.
func (s Selection) String() string {
	switch s {
	case SelectionRandom:
		return "random"
	case SelectionOrdered:
		return "ordered"
	case SelectionKMeans:
		return "kmeans"
	default:
		return "unknown"
	}
}

// eigenTolerance floors the landmark matrix's spectrum. The matrix is
// positive semidefinite in exact arithmetic, so eigenvalues at or below the
// tolerance are noise and contribute nothing instead of exploding
// 1/sqrt(lambda).
const eigenTolerance = 1e-12

var (
	// ErrNilKernel is returned when no kernel is given.
	ErrNilKernel = errors.New("kernel must not be nil")

	// ErrInvalidRank is returned when the rank is not positive or exceeds
	// the number of data points.
	ErrInvalidRank = errors.New("invalid rank")

	// ErrEmptyData is returned when the data matrix has no rows.
	ErrEmptyData = errors.New("data must not be empty")

	// ErrEigenFailed is returned when the landmark matrix cannot be
	// eigendecomposed.
	ErrEigenFailed = errors.New("eigendecomposition of landmark matrix failed")
)

// Options configure landmark selection.
type Options struct {
	// Selection is the landmark sampling strategy.
	Selection Selection

	// Seed drives random and kmeans selection. A fixed seed gives
	// reproducible factors.
	Seed int64

	// KMeansIterations bounds the Lloyd loop for SelectionKMeans.
	KMeansIterations int
}

// WithSelection sets the landmark sampling strategy.
func WithSelection(s Selection) func(*Options) {
	return func(o *Options) {
		o.Selection = s
	}
}

// WithSeed sets the sampling seed.
func WithSeed(seed int64) func(*Options) {
	return func(o *Options) {
		o.Seed = seed
	}
}

// WithKMeansIterations bounds the Lloyd loop for SelectionKMeans.
func WithKMeansIterations(n int) func(*Options) {
	return func(o *Options) {
		o.KMeansIterations = n
	}
}

// Nystroem computes low-rank kernel factors.
type Nystroem struct {
	kern kernel.Kernel
	rank int
	opts Options
}

// New creates a factorizer producing rank-column factors.
func New(kern kernel.Kernel, rank int, optFns ...func(*Options)) (*Nystroem, error) {
	opts := Options{
		Selection:        SelectionRandom,
		Seed:             42,
		KMeansIterations: 10,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if kern == nil {
		return nil, ErrNilKernel
	}
	if rank < 1 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidRank, rank)
	}
	if opts.KMeansIterations < 1 {
		return nil, fmt.Errorf("kmeans iterations must be positive, got %d", opts.KMeansIterations)
	}

	return &Nystroem{kern: kern, rank: rank, opts: opts}, nil
}

// Rank returns the number of columns of the factor.
func (n *Nystroem) Rank() int { return n.rank }

// Apply factors the kernel matrix of data. The returned G has one row per
// data point and rank columns, with G·Gᵀ ≈ K.
func (n *Nystroem) Apply(ctx context.Context, data *matrix.Dense) (*matrix.Dense, error) {
	if data == nil || data.Rows() == 0 {
		return nil, ErrEmptyData
	}
	if n.rank > data.Rows() {
		return nil, fmt.Errorf("%w: %d exceeds %d data points", ErrInvalidRank, n.rank, data.Rows())
	}

	landmarks, err := n.selectLandmarks(data)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := n.rank

	miniK := make([]float64, r*r)
	for i := 0; i < r; i++ {
		a := landmarks.Row(i)
		miniK[i*r+i] = n.kern.Evaluate(a, a)

		for j := i + 1; j < r; j++ {
			v := n.kern.Evaluate(a, landmarks.Row(j))
			miniK[i*r+j] = v
			miniK[j*r+i] = v
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(mat.NewSymDense(r, miniK), true); !ok {
		return nil, ErrEigenFailed
	}

	vals := eig.Values(nil)

	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// U diag(lambda^-1/2) with the floored part of the spectrum dropped.
	scaled := mat.NewDense(r, r, nil)
	for j := 0; j < r; j++ {
		f := 0.0
		if vals[j] > eigenTolerance {
			f = 1 / math.Sqrt(vals[j])
		}

		for i := 0; i < r; i++ {
			scaled.Set(i, j, vecs.At(i, j)*f)
		}
	}

	semiK := mat.NewDense(data.Rows(), r, nil)
	for i := 0; i < data.Rows(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := data.Row(i)
		for j := 0; j < r; j++ {
			semiK.Set(i, j, n.kern.Evaluate(row, landmarks.Row(j)))
		}
	}

	var g mat.Dense
	g.Mul(semiK, scaled)

	return matrix.FromGonum(&g), nil
}

func (n *Nystroem) selectLandmarks(data *matrix.Dense) (*matrix.Dense, error) {
	switch n.opts.Selection {
	case SelectionOrdered:
		out := matrix.New(n.rank, data.Cols())
		for i := 0; i < n.rank; i++ {
			copy(out.Row(i), data.Row(i))
		}

		return out, nil

	case SelectionRandom:
		rng := rand.New(rand.NewSource(n.opts.Seed))
		perm := rng.Perm(data.Rows())

		out := matrix.New(n.rank, data.Cols())
		for i := 0; i < n.rank; i++ {
			copy(out.Row(i), data.Row(perm[i]))
		}

		return out, nil

	case SelectionKMeans:
		return n.kmeansLandmarks(data), nil

	default:
		return nil, fmt.Errorf("unknown selection strategy %d", n.opts.Selection)
	}
}

// kmeansLandmarks runs a bounded Lloyd loop and returns the centroids.
// Initialization and empty-cluster reseeding draw from the configured seed,
// so the result is deterministic.
func (n *Nystroem) kmeansLandmarks(data *matrix.Dense) *matrix.Dense {
	rows, dim := data.Rows(), data.Cols()
	k := n.rank

	rng := rand.New(rand.NewSource(n.opts.Seed))

	centroids := matrix.New(k, dim)
	perm := rng.Perm(rows)
	for i := 0; i < k; i++ {
		copy(centroids.Row(i), data.Row(perm[i]))
	}

	assignments := make([]int, rows)
	counts := make([]int, k)
	sums := make([]float64, k*dim)

	for iter := 0; iter < n.opts.KMeansIterations; iter++ {
		changed := false

		for i := 0; i < rows; i++ {
			row := data.Row(i)

			best := -1
			bestDist := math.MaxFloat64
			for j := 0; j < k; j++ {
				if d := squaredDistance(row, centroids.Row(j)); d < bestDist {
					best, bestDist = j, d
				}
			}

			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		for i := range sums {
			sums[i] = 0
		}
		for i := range counts {
			counts[i] = 0
		}

		for i := 0; i < rows; i++ {
			c := assignments[i]
			row := data.Row(i)
			for d := 0; d < dim; d++ {
				sums[c*dim+d] += row[d]
			}
			counts[c]++
		}

		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				// Reseed empty clusters from a random point.
				copy(centroids.Row(j), data.Row(rng.Intn(rows)))
				continue
			}

			scale := 1 / float64(counts[j])
			row := centroids.Row(j)
			for d := 0; d < dim; d++ {
				row[d] = sums[j*dim+d] * scale
			}
		}
	}

	return centroids
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum
}
