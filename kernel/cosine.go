package kernel

import (
	"math"

	"github.com/viterin/vek"
)

// Cosine is K(a, b) = <a, b> / (|a| |b|). Zero vectors evaluate to 0.
type Cosine struct{}

// NewCosine creates a new cosine similarity kernel.
func NewCosine() *Cosine { return &Cosine{} }

// Evaluate returns K(a, b).
func (k *Cosine) Evaluate(a, b []float64) float64 {
	na := math.Sqrt(vek.Dot(a, a))
	nb := math.Sqrt(vek.Dot(b, b))

	if na == 0 || nb == 0 {
		return 0
	}

	return vek.Dot(a, b) / (na * nb)
}

// Name returns a stable identifier used in logs and CLI flags.
func (k *Cosine) Name() string { return "cosine" }
