package tree

// Bound is a region enclosing a set of points, used by the traversal engine
// to reason about distances without visiting the points themselves. The
// *Bound variants accept the bound type of the same tree kind; trees never
// mix bound implementations within one search.
type Bound interface {
	// MinDistance returns a lower bound on the distance from p to any
	// point inside the bound.
	MinDistance(p []float64) float64

	// MaxDistance returns an upper bound on the distance from p to any
	// point inside the bound.
	MaxDistance(p []float64) float64

	// MinDistanceBound returns a lower bound on the distance between any
	// point in this bound and any point in o.
	MinDistanceBound(o Bound) float64

	// MaxDistanceBound returns an upper bound on the distance between any
	// point in this bound and any point in o.
	MaxDistanceBound(o Bound) float64

	// Diameter returns an upper bound on the distance between any two
	// points inside the bound.
	Diameter() float64
}

// compile time checks
var (
	_ Bound = (*HRect)(nil)
	_ Bound = (*Ball)(nil)
)
