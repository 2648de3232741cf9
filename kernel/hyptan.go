package kernel

import (
	"math"

	"github.com/viterin/vek"
)

// HypTan is the hyperbolic tangent (sigmoid) kernel
// K(a, b) = tanh(scale * <a, b> + offset).
type HypTan struct {
	scale  float64
	offset float64
}

// NewHypTan creates a new hyperbolic tangent kernel. A scale of 1 and an
// offset of 0 match the usual defaults.
func NewHypTan(scale, offset float64) *HypTan {
	return &HypTan{scale: scale, offset: offset}
}

// Evaluate returns K(a, b).
func (k *HypTan) Evaluate(a, b []float64) float64 {
	return math.Tanh(k.scale*vek.Dot(a, b) + k.offset)
}

// Name returns a stable identifier used in logs and CLI flags.
func (k *HypTan) Name() string { return "hyptan" }
