// Package tree defines the node and bound abstractions the traversal engine
// searches over. Concrete trees live in the kd, cover and rstar
// subpackages; all of them expose immutable nodes once built, so a tree can
// serve any number of concurrent searches.
package tree

import (
	"fmt"

	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/metric"
)

// Node is a single tree node. Implementations are immutable after
// construction; traversal state lives in side tables keyed by Slot.
type Node interface {
	// IsLeaf reports whether the node has no children.
	IsLeaf() bool

	// NumChildren returns the number of child nodes.
	NumChildren() int

	// Child returns the i-th child.
	Child(i int) Node

	// NumPoints returns the number of points held directly at this node.
	NumPoints() int

	// Point returns the dataset index of the i-th point held at this node.
	Point(i int) int

	// Bound returns the region covering all descendant points.
	Bound() Bound

	// FurthestDescendantDistance returns an upper bound on the distance
	// from the bound's center to any descendant point. Any two descendants
	// are within twice this value of each other.
	FurthestDescendantDistance() float64

	// Slot returns the node's dense id in [0, Tree.NumNodes()).
	Slot() int
}

// Tree is a built search structure over a point set.
type Tree interface {
	// Root returns the root node, never nil.
	Root() Node

	// NumNodes returns the total node count; node slots are dense in
	// [0, NumNodes()).
	NumNodes() int

	// Dataset returns the matrix node point indices refer to. For builders
	// that reorder points this is the permuted copy, not the input.
	Dataset() *matrix.Dense

	// OldFromNew maps post-build point indices back to input indices.
	// Builders that never reorder return nil.
	OldFromNew() []int

	// Metric returns the metric the tree was built with.
	Metric() metric.Metric
}

// ErrInvalidOption indicates a tree construction parameter outside its
// valid range.
type ErrInvalidOption struct {
	Name   string
	Reason string
}

func (e *ErrInvalidOption) Error() string {
	return fmt.Sprintf("invalid option %s: %s", e.Name, e.Reason)
}

// ErrEmptyDataset indicates a build over zero points.
type ErrEmptyDataset struct{}

func (e *ErrEmptyDataset) Error() string {
	return "cannot build a tree over an empty dataset"
}
