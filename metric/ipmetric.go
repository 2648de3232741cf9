package metric

import (
	"math"

	"github.com/hupe1980/treesearch/kernel"
)

// IPMetric is the distance induced by a Mercer kernel in its reproducing
// kernel Hilbert space:
//
//	d(a, b) = sqrt(K(a, a) - 2 K(a, b) + K(b, b))
//
// Cover trees built with it enable branch-and-bound max-kernel search.
type IPMetric struct {
	kernel kernel.Kernel
}

// NewIPMetric creates the metric induced by k.
func NewIPMetric(k kernel.Kernel) *IPMetric {
	return &IPMetric{kernel: k}
}

// Kernel returns the inducing kernel.
func (m *IPMetric) Kernel() kernel.Kernel { return m.kernel }

// Distance returns the RKHS distance between a and b. Rounding can push the
// squared distance slightly negative for near-identical points; it is
// clamped to zero.
func (m *IPMetric) Distance(a, b []float64) float64 {
	d := m.kernel.Evaluate(a, a) - 2*m.kernel.Evaluate(a, b) + m.kernel.Evaluate(b, b)
	if d < 0 {
		d = 0
	}

	return math.Sqrt(d)
}

// Name returns a stable identifier used in logs and CLI flags.
func (m *IPMetric) Name() string { return "ip-" + m.kernel.Name() }
