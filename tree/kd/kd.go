// Package kd builds kd-trees: binary space partitioning trees that split on
// the dimension of maximum spread at the median point. The builder reorders
// points so every leaf holds a contiguous range; the permutation is exposed
// through OldFromNew for callers that need results in input order.
package kd

import (
	"sort"

	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/metric"
	"github.com/hupe1980/treesearch/tree"
)

// Options configures the kd-tree builder.
type Options struct {
	// LeafSize is the maximum number of points per leaf.
	LeafSize int

	// Metric is the L_p metric the tree's bounds measure distances in.
	Metric *metric.LMetric
}

// DefaultOptions holds the default kd-tree options.
var DefaultOptions = Options{
	LeafSize: 20,
}

// WithLeafSize sets the maximum number of points per leaf.
func WithLeafSize(leafSize int) func(*Options) {
	return func(o *Options) {
		o.LeafSize = leafSize
	}
}

// WithMetric sets the L_p metric for the tree's bounds.
func WithMetric(m *metric.LMetric) func(*Options) {
	return func(o *Options) {
		o.Metric = m
	}
}

// Tree is a built kd-tree.
type Tree struct {
	dataset    *matrix.Dense
	oldFromNew []int
	root       *Node
	numNodes   int
	metric     *metric.LMetric
}

// Node is a kd-tree node. Leaves hold a contiguous range of points in the
// permuted dataset; internal nodes hold none.
type Node struct {
	left     *Node
	right    *Node
	begin    int
	count    int
	bound    *tree.HRect
	furthest float64
	slot     int
}

// compile time checks
var (
	_ tree.Tree = (*Tree)(nil)
	_ tree.Node = (*Node)(nil)
)

// New builds a kd-tree over data. The input matrix is not modified; the
// tree works on a permuted copy.
func New(data *matrix.Dense, optFns ...func(o *Options)) (*Tree, error) {
	opts := DefaultOptions
	opts.Metric = metric.NewEuclidean()

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.LeafSize < 1 {
		return nil, &tree.ErrInvalidOption{Name: "LeafSize", Reason: "must be at least 1"}
	}

	if data == nil || data.Rows() == 0 {
		return nil, &tree.ErrEmptyDataset{}
	}

	b := &builder{
		data:     data,
		leafSize: opts.LeafSize,
		power:    opts.Metric.Power(),
		perm:     make([]int, data.Rows()),
	}

	for i := range b.perm {
		b.perm[i] = i
	}

	root := b.build(0, data.Rows())

	permuted, err := data.PermutedCopy(b.perm)
	if err != nil {
		return nil, err
	}

	return &Tree{
		dataset:    permuted,
		oldFromNew: b.perm,
		root:       root,
		numNodes:   b.slots,
		metric:     opts.Metric,
	}, nil
}

type builder struct {
	data     *matrix.Dense
	leafSize int
	power    float64
	perm     []int
	slots    int
}

func (b *builder) build(begin, count int) *Node {
	n := &Node{
		begin: begin,
		count: count,
		slot:  b.slots,
	}
	b.slots++

	bound := tree.NewHRect(b.data.Cols(), b.power)
	for i := begin; i < begin+count; i++ {
		bound.Expand(b.data.Row(b.perm[i]))
	}

	n.bound = bound
	n.furthest = bound.Diameter() / 2

	if count <= b.leafSize {
		return n
	}

	dim := widestDimension(bound)

	// Sort the range on the split dimension, breaking ties by original
	// index so construction is deterministic.
	seg := b.perm[begin : begin+count]
	sort.Slice(seg, func(i, j int) bool {
		vi := b.data.At(seg[i], dim)
		vj := b.data.At(seg[j], dim)

		if vi != vj {
			return vi < vj
		}

		return seg[i] < seg[j]
	})

	half := count / 2
	n.left = b.build(begin, half)
	n.right = b.build(begin+half, count-half)

	return n
}

func widestDimension(bound *tree.HRect) int {
	dim := 0
	width := bound.Hi(0) - bound.Lo(0)

	for d := 1; d < bound.Dim(); d++ {
		if w := bound.Hi(d) - bound.Lo(d); w > width {
			dim = d
			width = w
		}
	}

	return dim
}

// Root returns the root node.
func (t *Tree) Root() tree.Node { return t.root }

// NumNodes returns the total node count.
func (t *Tree) NumNodes() int { return t.numNodes }

// Dataset returns the permuted dataset node point indices refer to.
func (t *Tree) Dataset() *matrix.Dense { return t.dataset }

// OldFromNew maps permuted point indices back to input indices.
func (t *Tree) OldFromNew() []int { return t.oldFromNew }

// Metric returns the metric the tree was built with.
func (t *Tree) Metric() metric.Metric { return t.metric }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.left == nil }

// NumChildren returns 0 for leaves and 2 otherwise.
func (n *Node) NumChildren() int {
	if n.left == nil {
		return 0
	}

	return 2
}

// Child returns the i-th child.
func (n *Node) Child(i int) tree.Node {
	if i == 0 {
		return n.left
	}

	return n.right
}

// NumPoints returns the number of points held directly at this node.
func (n *Node) NumPoints() int {
	if n.left != nil {
		return 0
	}

	return n.count
}

// Point returns the dataset index of the i-th point held at this node.
func (n *Node) Point(i int) int { return n.begin + i }

// Begin returns the first descendant point index.
func (n *Node) Begin() int { return n.begin }

// Count returns the number of descendant points.
func (n *Node) Count() int { return n.count }

// Bound returns the node's hyperrectangle bound.
func (n *Node) Bound() tree.Bound { return n.bound }

// FurthestDescendantDistance returns half the bound diameter.
func (n *Node) FurthestDescendantDistance() float64 { return n.furthest }

// Slot returns the node's dense id.
func (n *Node) Slot() int { return n.slot }
