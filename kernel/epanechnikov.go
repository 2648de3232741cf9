package kernel

import "fmt"

// Epanechnikov is K(a, b) = max(0, 1 - |a - b|^2 / bw^2).
type Epanechnikov struct {
	invBwSquared float64
}

// NewEpanechnikov creates a new epanechnikov kernel with the given
// bandwidth.
func NewEpanechnikov(bandwidth float64) (*Epanechnikov, error) {
	if bandwidth <= 0 {
		return nil, fmt.Errorf("epanechnikov kernel bandwidth must be positive, got %g", bandwidth)
	}

	return &Epanechnikov{invBwSquared: 1 / (bandwidth * bandwidth)}, nil
}

// Evaluate returns K(a, b).
func (k *Epanechnikov) Evaluate(a, b []float64) float64 {
	v := 1 - squaredL2(a, b)*k.invBwSquared
	if v < 0 {
		return 0
	}

	return v
}

// Name returns a stable identifier used in logs and CLI flags.
func (k *Epanechnikov) Name() string { return "epanechnikov" }
