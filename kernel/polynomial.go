package kernel

import (
	"math"

	"github.com/viterin/vek"
)

// Polynomial is K(a, b) = (<a, b> + offset)^degree.
type Polynomial struct {
	degree float64
	offset float64
}

// NewPolynomial creates a new polynomial kernel. A degree of 2 and an
// offset of 0 match the usual defaults.
func NewPolynomial(degree, offset float64) *Polynomial {
	return &Polynomial{degree: degree, offset: offset}
}

// Evaluate returns K(a, b).
func (k *Polynomial) Evaluate(a, b []float64) float64 {
	return math.Pow(vek.Dot(a, b)+k.offset, k.degree)
}

// Name returns a stable identifier used in logs and CLI flags.
func (k *Polynomial) Name() string { return "polynomial" }
