// Package basis provides random orthonormal basis projections. Projecting
// a dataset onto such a basis preserves every pairwise distance while
// erasing whatever axis alignment the data arrived with, so axis-splitting
// trees stop depending on it.
package basis

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/treesearch/matrix"
)

// ErrInvalidDimension indicates a non-positive basis dimension.
var ErrInvalidDimension = errors.New("basis dimension must be positive")

// Basis is a proper rotation of d-dimensional space.
type Basis struct {
	dim int
	q   *mat.Dense
}

// Random derives a rotation from the seed: QR-decompose a seeded gaussian
// d x d matrix, flip the columns of Q where diag(R) is negative, and
// redraw until the determinant is nonnegative. The result is orthonormal
// and deterministic per seed.
func Random(dim int, seed int64) (*Basis, error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}

	rng := rand.New(rand.NewSource(seed))

	for {
		a := mat.NewDense(dim, dim, nil)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				a.Set(i, j, rng.NormFloat64())
			}
		}

		var qr mat.QR
		qr.Factorize(a)

		q := mat.NewDense(dim, dim, nil)
		r := mat.NewDense(dim, dim, nil)
		qr.QTo(q)
		qr.RTo(r)

		for j := 0; j < dim; j++ {
			if r.At(j, j) < 0 {
				for i := 0; i < dim; i++ {
					q.Set(i, j, -q.At(i, j))
				}
			}
		}

		if mat.Det(q) >= 0 {
			return &Basis{dim: dim, q: q}, nil
		}
	}
}

// Dim returns the dimensionality the basis rotates.
func (b *Basis) Dim() int { return b.dim }

// Apply projects every row of m onto the basis, returning a new matrix of
// the same shape.
func (b *Basis) Apply(m *matrix.Dense) (*matrix.Dense, error) {
	if m.Cols() != b.dim {
		return nil, fmt.Errorf("%w: matrix has %d columns, basis rotates %d", ErrInvalidDimension, m.Cols(), b.dim)
	}

	var out mat.Dense
	out.Mul(m.Gonum(), b.q.T())

	return matrix.FromGonum(&out), nil
}
