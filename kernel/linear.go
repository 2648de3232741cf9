package kernel

import "github.com/viterin/vek"

// Linear is the ordinary inner product K(a, b) = <a, b>.
type Linear struct{}

// NewLinear creates a new linear kernel.
func NewLinear() *Linear { return &Linear{} }

// Evaluate returns K(a, b).
func (k *Linear) Evaluate(a, b []float64) float64 {
	return vek.Dot(a, b)
}

// Name returns a stable identifier used in logs and CLI flags.
func (k *Linear) Name() string { return "linear" }
