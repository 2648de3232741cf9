// Package kernel provides Mercer kernels for max-kernel search and for the
// Nystroem approximation. A kernel is a similarity function; larger values
// mean more similar points.
package kernel

// Kernel evaluates a Mercer kernel between two points of equal
// dimensionality. Implementations must be safe for concurrent use.
type Kernel interface {
	// Evaluate returns K(a, b).
	Evaluate(a, b []float64) float64

	// Name returns a stable identifier used in logs and CLI flags.
	Name() string
}

// compile time checks
var (
	_ Kernel = (*Linear)(nil)
	_ Kernel = (*Polynomial)(nil)
	_ Kernel = (*Cosine)(nil)
	_ Kernel = (*Gaussian)(nil)
	_ Kernel = (*Epanechnikov)(nil)
	_ Kernel = (*Triangular)(nil)
	_ Kernel = (*HypTan)(nil)
)

func squaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum
}
