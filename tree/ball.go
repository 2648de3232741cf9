package tree

import "github.com/hupe1980/treesearch/metric"

// Ball is a metric ball bound: a center point and a radius measured in an
// arbitrary metric. Cover tree nodes use it, centered on the node's own
// point.
type Ball struct {
	center []float64
	radius float64
	metric metric.Metric
}

// NewBall creates a ball bound. The center slice is referenced, not copied.
func NewBall(center []float64, radius float64, m metric.Metric) *Ball {
	return &Ball{center: center, radius: radius, metric: m}
}

// Center returns the ball's center point.
func (b *Ball) Center() []float64 { return b.center }

// Radius returns the ball's radius.
func (b *Ball) Radius() float64 { return b.radius }

// MinDistance returns a lower bound on the distance from p to any point
// inside the bound.
func (b *Ball) MinDistance(p []float64) float64 {
	d := b.metric.Distance(b.center, p) - b.radius
	if d < 0 {
		return 0
	}

	return d
}

// MaxDistance returns an upper bound on the distance from p to any point
// inside the bound.
func (b *Ball) MaxDistance(p []float64) float64 {
	return b.metric.Distance(b.center, p) + b.radius
}

// MinDistanceBound returns a lower bound on the distance between any point
// in this bound and any point in o, which must be a *Ball.
func (b *Ball) MinDistanceBound(o Bound) float64 {
	other := o.(*Ball)

	d := b.metric.Distance(b.center, other.center) - b.radius - other.radius
	if d < 0 {
		return 0
	}

	return d
}

// MaxDistanceBound returns an upper bound on the distance between any point
// in this bound and any point in o, which must be a *Ball.
func (b *Ball) MaxDistanceBound(o Bound) float64 {
	other := o.(*Ball)

	return b.metric.Distance(b.center, other.center) + b.radius + other.radius
}

// Diameter returns twice the radius.
func (b *Ball) Diameter() float64 { return 2 * b.radius }
