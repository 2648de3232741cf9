package tree

import "math"

// HRect is an axis-aligned hyperrectangle bound parameterized by the L_p
// power of the metric it measures distances in. A fresh HRect is empty;
// Expand grows it around points.
type HRect struct {
	power float64
	lo    []float64
	hi    []float64
}

// NewHRect creates an empty bound of the given dimensionality for an L_p
// metric with the given power (math.Inf(1) for Chebyshev).
func NewHRect(dim int, power float64) *HRect {
	h := &HRect{
		power: power,
		lo:    make([]float64, dim),
		hi:    make([]float64, dim),
	}

	h.Reset()

	return h
}

// Reset empties the bound.
func (h *HRect) Reset() {
	for d := range h.lo {
		h.lo[d] = math.Inf(1)
		h.hi[d] = math.Inf(-1)
	}
}

// Dim returns the bound's dimensionality.
func (h *HRect) Dim() int { return len(h.lo) }

// Lo returns the lower edge in dimension d.
func (h *HRect) Lo(d int) float64 { return h.lo[d] }

// Hi returns the upper edge in dimension d.
func (h *HRect) Hi(d int) float64 { return h.hi[d] }

// Clone returns a deep copy.
func (h *HRect) Clone() *HRect {
	c := NewHRect(len(h.lo), h.power)
	copy(c.lo, h.lo)
	copy(c.hi, h.hi)

	return c
}

// Expand grows the bound to include p.
func (h *HRect) Expand(p []float64) {
	for d, v := range p {
		if v < h.lo[d] {
			h.lo[d] = v
		}

		if v > h.hi[d] {
			h.hi[d] = v
		}
	}
}

// ExpandBound grows the bound to include all of o.
func (h *HRect) ExpandBound(o *HRect) {
	for d := range h.lo {
		if o.lo[d] < h.lo[d] {
			h.lo[d] = o.lo[d]
		}

		if o.hi[d] > h.hi[d] {
			h.hi[d] = o.hi[d]
		}
	}
}

// Contains reports whether p lies inside the bound.
func (h *HRect) Contains(p []float64) bool {
	for d, v := range p {
		if v < h.lo[d] || v > h.hi[d] {
			return false
		}
	}

	return true
}

// CenterTo writes the bound's center into dst.
func (h *HRect) CenterTo(dst []float64) {
	for d := range h.lo {
		dst[d] = h.lo[d] + (h.hi[d]-h.lo[d])/2
	}
}

// MinDistance returns a lower bound on the distance from p to any point
// inside the bound.
func (h *HRect) MinDistance(p []float64) float64 {
	acc := newAccumulator(h.power)

	for d, v := range p {
		var excess float64

		switch {
		case v < h.lo[d]:
			excess = h.lo[d] - v
		case v > h.hi[d]:
			excess = v - h.hi[d]
		}

		acc.add(excess)
	}

	return acc.value()
}

// MaxDistance returns an upper bound on the distance from p to any point
// inside the bound.
func (h *HRect) MaxDistance(p []float64) float64 {
	acc := newAccumulator(h.power)

	for d, v := range p {
		acc.add(math.Max(math.Abs(v-h.lo[d]), math.Abs(h.hi[d]-v)))
	}

	return acc.value()
}

// MinDistanceBound returns a lower bound on the distance between any point
// in this bound and any point in o, which must be an *HRect.
func (h *HRect) MinDistanceBound(o Bound) float64 {
	other := o.(*HRect)

	acc := newAccumulator(h.power)

	for d := range h.lo {
		gap := math.Max(other.lo[d]-h.hi[d], h.lo[d]-other.hi[d])
		if gap < 0 {
			gap = 0
		}

		acc.add(gap)
	}

	return acc.value()
}

// MaxDistanceBound returns an upper bound on the distance between any point
// in this bound and any point in o, which must be an *HRect.
func (h *HRect) MaxDistanceBound(o Bound) float64 {
	other := o.(*HRect)

	acc := newAccumulator(h.power)

	for d := range h.lo {
		acc.add(math.Max(other.hi[d]-h.lo[d], h.hi[d]-other.lo[d]))
	}

	return acc.value()
}

// Diameter returns the distance between the bound's corners.
func (h *HRect) Diameter() float64 {
	acc := newAccumulator(h.power)

	for d := range h.lo {
		if w := h.hi[d] - h.lo[d]; w > 0 {
			acc.add(w)
		} else {
			acc.add(0)
		}
	}

	return acc.value()
}

// Volume returns the axis-aligned volume, used by the R* insertion
// heuristics.
func (h *HRect) Volume() float64 {
	v := 1.0

	for d := range h.lo {
		w := h.hi[d] - h.lo[d]
		if w < 0 {
			return 0
		}

		v *= w
	}

	return v
}

// Margin returns the sum of edge lengths, used by the R* split heuristics.
func (h *HRect) Margin() float64 {
	var m float64

	for d := range h.lo {
		if w := h.hi[d] - h.lo[d]; w > 0 {
			m += w
		}
	}

	return m
}

// OverlapVolume returns the volume of the intersection with o.
func (h *HRect) OverlapVolume(o *HRect) float64 {
	v := 1.0

	for d := range h.lo {
		lo := math.Max(h.lo[d], o.lo[d])
		hi := math.Min(h.hi[d], o.hi[d])

		if hi <= lo {
			return 0
		}

		v *= hi - lo
	}

	return v
}

// accumulator folds per-dimension contributions into an L_p aggregate.
type accumulator struct {
	power float64
	sum   float64
	max   float64
}

func newAccumulator(power float64) accumulator {
	return accumulator{power: power}
}

func (a *accumulator) add(v float64) {
	switch {
	case a.power == 2:
		a.sum += v * v
	case a.power == 1:
		a.sum += v
	case math.IsInf(a.power, 1):
		if v > a.max {
			a.max = v
		}
	default:
		a.sum += math.Pow(v, a.power)
	}
}

func (a *accumulator) value() float64 {
	switch {
	case a.power == 2:
		return math.Sqrt(a.sum)
	case a.power == 1:
		return a.sum
	case math.IsInf(a.power, 1):
		return a.max
	default:
		return math.Pow(a.sum, 1/a.power)
	}
}
