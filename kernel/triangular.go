package kernel

import (
	"fmt"
	"math"
)

// Triangular is K(a, b) = max(0, 1 - |a - b| / bw).
type Triangular struct {
	invBw float64
}

// NewTriangular creates a new triangular kernel with the given bandwidth.
func NewTriangular(bandwidth float64) (*Triangular, error) {
	if bandwidth <= 0 {
		return nil, fmt.Errorf("triangular kernel bandwidth must be positive, got %g", bandwidth)
	}

	return &Triangular{invBw: 1 / bandwidth}, nil
}

// Evaluate returns K(a, b).
func (k *Triangular) Evaluate(a, b []float64) float64 {
	v := 1 - math.Sqrt(squaredL2(a, b))*k.invBw
	if v < 0 {
		return 0
	}

	return v
}

// Name returns a stable identifier used in logs and CLI flags.
func (k *Triangular) Name() string { return "triangular" }
