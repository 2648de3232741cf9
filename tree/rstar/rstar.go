// Package rstar builds R*-trees over points: balanced rectangle trees with
// least-enlargement insertion, forced reinsertion on leaf overflow and the
// margin/overlap split of Beckmann et al. Points are inserted in dataset
// order, so construction is deterministic, and they are never reordered.
package rstar

import (
	"math"
	"sort"

	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/metric"
	"github.com/hupe1980/treesearch/tree"
)

// Options configures the R*-tree builder.
type Options struct {
	// LeafSize is the maximum number of points per leaf.
	LeafSize int

	// MinFill is the minimum leaf fill fraction after a split.
	MinFill float64

	// MaxFanout is the maximum number of children per internal node.
	MaxFanout int

	// MinFanout is the minimum number of children per internal node after
	// a split. It must not exceed (MaxFanout+1)/2 or splitting could not
	// produce two valid nodes.
	MinFanout int

	// ReinsertCount is the number of points removed and reinserted when a
	// leaf first overflows during an insert. 0 selects 30% of LeafSize.
	ReinsertCount int

	// Metric is the L_p metric the tree's bounds measure distances in.
	Metric *metric.LMetric
}

// DefaultOptions holds the default R*-tree options.
var DefaultOptions = Options{
	LeafSize:  20,
	MinFill:   0.4,
	MaxFanout: 5,
	MinFanout: 2,
}

// WithLeafSize sets the maximum number of points per leaf.
func WithLeafSize(leafSize int) func(*Options) {
	return func(o *Options) {
		o.LeafSize = leafSize
	}
}

// WithMinFill sets the minimum leaf fill fraction after a split.
func WithMinFill(minFill float64) func(*Options) {
	return func(o *Options) {
		o.MinFill = minFill
	}
}

// WithFanout sets the internal node fanout bounds.
func WithFanout(minFanout, maxFanout int) func(*Options) {
	return func(o *Options) {
		o.MinFanout = minFanout
		o.MaxFanout = maxFanout
	}
}

// WithReinsertCount sets the number of points reinserted on the first leaf
// overflow of an insert.
func WithReinsertCount(count int) func(*Options) {
	return func(o *Options) {
		o.ReinsertCount = count
	}
}

// WithMetric sets the L_p metric for the tree's bounds.
func WithMetric(m *metric.LMetric) func(*Options) {
	return func(o *Options) {
		o.Metric = m
	}
}

// Tree is a built R*-tree.
type Tree struct {
	dataset  *matrix.Dense
	root     *Node
	numNodes int
	metric   *metric.LMetric
}

// Node is an R*-tree node: a leaf holding point indices or an internal
// node holding child nodes.
type Node struct {
	leaf     bool
	children []*Node
	points   []int
	bound    *tree.HRect
	furthest float64
	slot     int
}

// compile time checks
var (
	_ tree.Tree = (*Tree)(nil)
	_ tree.Node = (*Node)(nil)
)

// New builds an R*-tree over data. The input matrix is referenced, not
// copied, and stays in input order.
func New(data *matrix.Dense, optFns ...func(o *Options)) (*Tree, error) {
	opts := DefaultOptions
	opts.Metric = metric.NewEuclidean()

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.LeafSize < 1 {
		return nil, &tree.ErrInvalidOption{Name: "LeafSize", Reason: "must be at least 1"}
	}

	if opts.MinFill <= 0 || opts.MinFill > 0.5 {
		return nil, &tree.ErrInvalidOption{Name: "MinFill", Reason: "must be in (0, 0.5]"}
	}

	if opts.MinFanout < 2 {
		return nil, &tree.ErrInvalidOption{Name: "MinFanout", Reason: "must be at least 2"}
	}

	if opts.MinFanout > (opts.MaxFanout+1)/2 {
		return nil, &tree.ErrInvalidOption{Name: "MinFanout", Reason: "must not exceed (MaxFanout+1)/2"}
	}

	if data == nil || data.Rows() == 0 {
		return nil, &tree.ErrEmptyDataset{}
	}

	reinsert := opts.ReinsertCount
	if reinsert <= 0 {
		reinsert = int(math.Ceil(0.3 * float64(opts.LeafSize)))
	}

	minLeafFill := int(opts.MinFill * float64(opts.LeafSize))
	if minLeafFill < 1 {
		minLeafFill = 1
	}

	// A split of LeafSize+1 points must yield two valid leaves.
	if 2*minLeafFill > opts.LeafSize+1 {
		minLeafFill = (opts.LeafSize + 1) / 2
	}

	// Reinsertion must leave a valid leaf behind.
	if max := opts.LeafSize + 1 - minLeafFill; reinsert > max {
		reinsert = max
	}

	b := &builder{
		data:        data,
		power:       opts.Metric.Power(),
		leafCap:     opts.LeafSize,
		minLeafFill: minLeafFill,
		maxFanout:   opts.MaxFanout,
		minFanout:   opts.MinFanout,
		reinsert:    reinsert,
	}

	b.root = b.newLeaf()
	for i := 0; i < data.Rows(); i++ {
		b.insert(i, true)
	}

	t := &Tree{
		dataset: data,
		root:    b.root,
		metric:  opts.Metric,
	}

	t.finalize(t.root)

	return t, nil
}

type builder struct {
	data        *matrix.Dense
	power       float64
	leafCap     int
	minLeafFill int
	maxFanout   int
	minFanout   int
	reinsert    int
	root        *Node

	// reinserted is reset per top-level insert; forced reinsertion runs at
	// most once per insert, at leaf level.
	reinserted bool
}

func (b *builder) newLeaf() *Node {
	return &Node{leaf: true, bound: tree.NewHRect(b.data.Cols(), b.power)}
}

func (b *builder) insert(point int, fresh bool) {
	if fresh {
		b.reinserted = false
	}

	p := b.data.Row(point)

	path := b.chooseLeaf(p)
	leaf := path[len(path)-1]

	leaf.points = append(leaf.points, point)
	for _, n := range path {
		n.bound.Expand(p)
	}

	if len(leaf.points) > b.leafCap {
		b.overflowLeaf(path)
	}
}

// chooseLeaf descends from the root picking the child that needs the least
// overlap enlargement at the level above leaves and the least area
// enlargement higher up. Ties fall through to smaller volume, then child
// order.
func (b *builder) chooseLeaf(p []float64) []*Node {
	path := []*Node{b.root}

	n := b.root
	for !n.leaf {
		aboveLeaves := n.children[0].leaf

		best := 0
		bestOverlap := math.Inf(1)
		bestEnlarge := math.Inf(1)
		bestVolume := math.Inf(1)

		for i, child := range n.children {
			enlarged := child.bound.Clone()
			enlarged.Expand(p)

			var overlap float64
			if aboveLeaves {
				for j, other := range n.children {
					if j == i {
						continue
					}

					overlap += enlarged.OverlapVolume(other.bound) - child.bound.OverlapVolume(other.bound)
				}
			}

			enlarge := enlarged.Volume() - child.bound.Volume()
			volume := child.bound.Volume()

			if overlap < bestOverlap ||
				(overlap == bestOverlap && enlarge < bestEnlarge) ||
				(overlap == bestOverlap && enlarge == bestEnlarge && volume < bestVolume) {
				best = i
				bestOverlap = overlap
				bestEnlarge = enlarge
				bestVolume = volume
			}
		}

		n = n.children[best]
		path = append(path, n)
	}

	return path
}

func (b *builder) overflowLeaf(path []*Node) {
	leaf := path[len(path)-1]

	if !b.reinserted && leaf != b.root {
		b.reinserted = true
		b.forcedReinsert(path)

		return
	}

	sibling := b.splitLeaf(leaf)
	b.propagateSplit(path, sibling)
}

// forcedReinsert removes the points furthest from the leaf's center and
// inserts them again from the root, closest first.
func (b *builder) forcedReinsert(path []*Node) {
	leaf := path[len(path)-1]

	center := make([]float64, b.data.Cols())
	leaf.bound.CenterTo(center)

	m := metric.NewEuclidean()

	points := append([]int(nil), leaf.points...)
	sort.SliceStable(points, func(i, j int) bool {
		di := m.Distance(center, b.data.Row(points[i]))
		dj := m.Distance(center, b.data.Row(points[j]))

		if di != dj {
			return di > dj
		}

		return points[i] < points[j]
	})

	evicted := points[:b.reinsert]
	leaf.points = points[b.reinsert:]

	b.recomputePath(path)

	for i := len(evicted) - 1; i >= 0; i-- {
		b.insert(evicted[i], false)
	}
}

// recomputePath rebuilds bounds from the leaf back to the root after
// points moved out of a subtree.
func (b *builder) recomputePath(path []*Node) {
	for i := len(path) - 1; i >= 0; i-- {
		b.recomputeBound(path[i])
	}
}

func (b *builder) recomputeBound(n *Node) {
	n.bound.Reset()

	if n.leaf {
		for _, p := range n.points {
			n.bound.Expand(b.data.Row(p))
		}

		return
	}

	for _, c := range n.children {
		n.bound.ExpandBound(c.bound)
	}
}

func (b *builder) splitLeaf(leaf *Node) *Node {
	group1, group2 := chooseSplit(leaf.points, func(p int) *tree.HRect {
		r := tree.NewHRect(b.data.Cols(), b.power)
		r.Expand(b.data.Row(p))

		return r
	}, b.minLeafFill, b.data.Cols(), b.power)

	sibling := b.newLeaf()

	leaf.points = group1
	sibling.points = group2

	b.recomputeBound(leaf)
	b.recomputeBound(sibling)

	return sibling
}

func (b *builder) splitInternal(n *Node) *Node {
	group1, group2 := chooseSplit(n.children, func(c *Node) *tree.HRect {
		return c.bound
	}, b.minFanout, b.data.Cols(), b.power)

	sibling := &Node{bound: tree.NewHRect(b.data.Cols(), b.power)}

	n.children = group1
	sibling.children = group2

	b.recomputeBound(n)
	b.recomputeBound(sibling)

	return sibling
}

// propagateSplit hangs sibling next to the last node of path, splitting
// ancestors as needed. A root split grows the tree by one level.
func (b *builder) propagateSplit(path []*Node, sibling *Node) {
	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]

		if i == 0 {
			// Root split.
			newRoot := &Node{bound: tree.NewHRect(b.data.Cols(), b.power)}
			newRoot.children = []*Node{n, sibling}
			b.recomputeBound(newRoot)
			b.root = newRoot

			return
		}

		parent := path[i-1]
		parent.children = append(parent.children, sibling)
		b.recomputeBound(parent)

		if len(parent.children) <= b.maxFanout {
			// Tighten the remaining ancestors and stop.
			for j := i - 2; j >= 0; j-- {
				b.recomputeBound(path[j])
			}

			return
		}

		sibling = b.splitInternal(parent)
	}
}

// chooseSplit implements the R* split: the axis with the smallest margin
// sum wins, then the distribution with the smallest overlap, breaking ties
// by smaller total volume and lower split position.
func chooseSplit[T any](entries []T, rectOf func(T) *tree.HRect, minFill, dim int, power float64) ([]T, []T) {
	sorted := append([]T(nil), entries...)

	bestAxis := 0
	bestMargin := math.Inf(1)

	for d := 0; d < dim; d++ {
		sortByAxis(sorted, rectOf, d)

		var margin float64
		for k := minFill; k <= len(sorted)-minFill; k++ {
			bb1 := coverRects(sorted[:k], rectOf, dim, power)
			bb2 := coverRects(sorted[k:], rectOf, dim, power)
			margin += bb1.Margin() + bb2.Margin()
		}

		if margin < bestMargin {
			bestMargin = margin
			bestAxis = d
		}
	}

	sortByAxis(sorted, rectOf, bestAxis)

	bestK := minFill
	bestOverlap := math.Inf(1)
	bestVolume := math.Inf(1)

	for k := minFill; k <= len(sorted)-minFill; k++ {
		bb1 := coverRects(sorted[:k], rectOf, dim, power)
		bb2 := coverRects(sorted[k:], rectOf, dim, power)

		overlap := bb1.OverlapVolume(bb2)
		volume := bb1.Volume() + bb2.Volume()

		if overlap < bestOverlap || (overlap == bestOverlap && volume < bestVolume) {
			bestK = k
			bestOverlap = overlap
			bestVolume = volume
		}
	}

	group1 := append([]T(nil), sorted[:bestK]...)
	group2 := append([]T(nil), sorted[bestK:]...)

	return group1, group2
}

func sortByAxis[T any](entries []T, rectOf func(T) *tree.HRect, axis int) {
	sort.SliceStable(entries, func(i, j int) bool {
		ri := rectOf(entries[i])
		rj := rectOf(entries[j])

		if ri.Lo(axis) != rj.Lo(axis) {
			return ri.Lo(axis) < rj.Lo(axis)
		}

		return ri.Hi(axis) < rj.Hi(axis)
	})
}

func coverRects[T any](entries []T, rectOf func(T) *tree.HRect, dim int, power float64) *tree.HRect {
	bb := tree.NewHRect(dim, power)
	for _, e := range entries {
		bb.ExpandBound(rectOf(e))
	}

	return bb
}

// finalize assigns dense slots in preorder and derives descendant
// distances from the final bounds.
func (t *Tree) finalize(n *Node) {
	n.slot = t.numNodes
	t.numNodes++

	n.furthest = n.bound.Diameter() / 2

	for _, c := range n.children {
		t.finalize(c)
	}
}

// Root returns the root node.
func (t *Tree) Root() tree.Node { return t.root }

// NumNodes returns the total node count.
func (t *Tree) NumNodes() int { return t.numNodes }

// Dataset returns the matrix the tree was built over.
func (t *Tree) Dataset() *matrix.Dense { return t.dataset }

// OldFromNew returns nil; the R*-tree never reorders points.
func (t *Tree) OldFromNew() []int { return nil }

// Metric returns the metric the tree was built with.
func (t *Tree) Metric() metric.Metric { return t.metric }

// IsLeaf reports whether the node holds points instead of children.
func (n *Node) IsLeaf() bool { return n.leaf }

// NumChildren returns the number of child nodes.
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the i-th child.
func (n *Node) Child(i int) tree.Node { return n.children[i] }

// NumPoints returns the number of points held directly at this node.
func (n *Node) NumPoints() int { return len(n.points) }

// Point returns the dataset index of the i-th point held at this node.
func (n *Node) Point(i int) int { return n.points[i] }

// Bound returns the node's hyperrectangle bound.
func (n *Node) Bound() tree.Bound { return n.bound }

// FurthestDescendantDistance returns half the bound diameter.
func (n *Node) FurthestDescendantDistance() float64 { return n.furthest }

// Slot returns the node's dense id.
func (n *Node) Slot() int { return n.slot }
