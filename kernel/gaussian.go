package kernel

import (
	"fmt"
	"math"
)

// Gaussian is K(a, b) = exp(-|a - b|^2 / (2 bw^2)).
type Gaussian struct {
	gamma float64
}

// NewGaussian creates a new gaussian kernel with the given bandwidth.
func NewGaussian(bandwidth float64) (*Gaussian, error) {
	if bandwidth <= 0 {
		return nil, fmt.Errorf("gaussian kernel bandwidth must be positive, got %g", bandwidth)
	}

	return &Gaussian{gamma: -0.5 / (bandwidth * bandwidth)}, nil
}

// Evaluate returns K(a, b).
func (k *Gaussian) Evaluate(a, b []float64) float64 {
	return math.Exp(k.gamma * squaredL2(a, b))
}

// Name returns a stable identifier used in logs and CLI flags.
func (k *Gaussian) Name() string { return "gaussian" }
