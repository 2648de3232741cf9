// Package metric provides the distance functions trees and searches are
// parameterized with: the L_p family for ordinary nearest-neighbor search
// and the kernel-induced inner-product metric for max-kernel search.
package metric

import (
	"fmt"
	"math"

	"github.com/viterin/vek"
)

// Metric computes the distance between two points of equal dimensionality.
// Implementations must satisfy the metric axioms (the traversal bounds rely
// on the triangle inequality) and be safe for concurrent use.
type Metric interface {
	// Distance returns d(a, b).
	Distance(a, b []float64) float64

	// Name returns a stable identifier used in logs and CLI flags.
	Name() string
}

// compile time checks
var (
	_ Metric = (*LMetric)(nil)
	_ Metric = (*IPMetric)(nil)
)

// LMetric is the Minkowski L_p distance. Power math.Inf(1) selects the
// Chebyshev (L_inf) distance.
type LMetric struct {
	power float64
}

// NewLMetric creates an L_p metric. Powers below 1 violate the triangle
// inequality and are rejected.
func NewLMetric(power float64) (*LMetric, error) {
	if power < 1 {
		return nil, fmt.Errorf("metric power must be >= 1, got %g", power)
	}

	return &LMetric{power: power}, nil
}

// NewEuclidean creates the L_2 metric.
func NewEuclidean() *LMetric { return &LMetric{power: 2} }

// NewManhattan creates the L_1 metric.
func NewManhattan() *LMetric { return &LMetric{power: 1} }

// NewChebyshev creates the L_inf metric.
func NewChebyshev() *LMetric { return &LMetric{power: math.Inf(1)} }

// Power returns the metric's p.
func (m *LMetric) Power() float64 { return m.power }

// Distance returns the L_p distance between a and b.
func (m *LMetric) Distance(a, b []float64) float64 {
	switch {
	case m.power == 2:
		return vek.Distance(a, b)
	case m.power == 1:
		var sum float64
		for i := range a {
			sum += math.Abs(a[i] - b[i])
		}

		return sum
	case math.IsInf(m.power, 1):
		var max float64
		for i := range a {
			if d := math.Abs(a[i] - b[i]); d > max {
				max = d
			}
		}

		return max
	default:
		var sum float64
		for i := range a {
			sum += math.Pow(math.Abs(a[i]-b[i]), m.power)
		}

		return math.Pow(sum, 1/m.power)
	}
}

// Name returns a stable identifier used in logs and CLI flags.
func (m *LMetric) Name() string {
	switch {
	case m.power == 1:
		return "manhattan"
	case m.power == 2:
		return "euclidean"
	case math.IsInf(m.power, 1):
		return "chebyshev"
	default:
		return fmt.Sprintf("l%g", m.power)
	}
}
