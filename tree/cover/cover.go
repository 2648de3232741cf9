// Package cover builds cover trees: metric trees where every node owns
// exactly one point and covers its children within base^scale of it. Cover
// trees work with any metric, which makes them the tree of choice for
// max-kernel search over the kernel-induced metric. Points are never
// reordered.
package cover

import (
	"math"

	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/metric"
	"github.com/hupe1980/treesearch/tree"
)

// Options configures the cover tree builder.
type Options struct {
	// Base is the expansion constant. Smaller bases give deeper, more
	// selective trees; larger bases build faster.
	Base float64

	// Metric is the metric the tree covers distances in.
	Metric metric.Metric
}

// DefaultOptions holds the default cover tree options.
var DefaultOptions = Options{
	Base: 1.3,
}

// WithBase sets the expansion constant.
func WithBase(base float64) func(*Options) {
	return func(o *Options) {
		o.Base = base
	}
}

// WithMetric sets the metric the tree is built in.
func WithMetric(m metric.Metric) func(*Options) {
	return func(o *Options) {
		o.Metric = m
	}
}

// Tree is a built cover tree.
type Tree struct {
	dataset  *matrix.Dense
	root     *Node
	numNodes int
	metric   metric.Metric
	base     float64
}

// Node is a cover tree node. Every node owns one point; internal nodes
// carry a self-child leaf so each point belongs to exactly one leaf.
type Node struct {
	point    int
	scale    int
	children []*Node
	bound    *tree.Ball
	furthest float64
	slot     int
}

// compile time checks
var (
	_ tree.Tree = (*Tree)(nil)
	_ tree.Node = (*Node)(nil)
)

// New builds a cover tree over data by inserting points in dataset order,
// which keeps construction deterministic. The input matrix is referenced,
// not copied.
func New(data *matrix.Dense, optFns ...func(o *Options)) (*Tree, error) {
	opts := DefaultOptions
	opts.Metric = metric.NewEuclidean()

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Base <= 1 {
		return nil, &tree.ErrInvalidOption{Name: "Base", Reason: "must be greater than 1"}
	}

	if data == nil || data.Rows() == 0 {
		return nil, &tree.ErrEmptyDataset{}
	}

	b := &builder{
		data:   data,
		metric: opts.Metric,
		base:   opts.Base,
	}

	b.root = &Node{point: 0, scale: 0}
	for i := 1; i < data.Rows(); i++ {
		b.insert(i)
	}

	t := &Tree{
		dataset: data,
		root:    b.root,
		metric:  opts.Metric,
		base:    opts.Base,
	}

	t.finalize(t.root)

	return t, nil
}

type builder struct {
	data   *matrix.Dense
	metric metric.Metric
	base   float64
	root   *Node
}

func (b *builder) covdist(scale int) float64 {
	return math.Pow(b.base, float64(scale))
}

func (b *builder) distance(i, j int) float64 {
	return b.metric.Distance(b.data.Row(i), b.data.Row(j))
}

func (b *builder) insert(p int) {
	d := b.distance(p, b.root.point)

	// Grow the root scale until the new point is covered. Children stay
	// covered because the cover radius only grows.
	if d > b.covdist(b.root.scale) {
		needed := int(math.Ceil(math.Log(d) / math.Log(b.base)))
		for d > b.covdist(needed) {
			needed++
		}

		if needed > b.root.scale {
			b.root.scale = needed
		}
	}

	b.insertAt(b.root, p, d)
}

// insertAt places p below n. d is the already computed distance between p
// and n's point and is at most covdist(n.scale).
func (b *builder) insertAt(n *Node, p int, d float64) {
	// Duplicate points become direct leaf children; descending through
	// zero-radius covers would only build useless chains.
	if d == 0 {
		n.children = append(n.children, &Node{point: p, scale: n.scale - 1})
		return
	}

	for _, child := range n.children {
		cd := b.distance(p, child.point)
		if cd <= b.covdist(child.scale) {
			b.insertAt(child, p, cd)
			return
		}
	}

	n.children = append(n.children, &Node{point: p, scale: n.scale - 1})
}

// finalize attaches self-child leaves, computes descendant bounds bottom-up
// and assigns dense slots in preorder.
func (t *Tree) finalize(n *Node) {
	n.slot = t.numNodes
	t.numNodes++

	if len(n.children) > 0 {
		self := &Node{point: n.point, scale: n.scale - 1}
		n.children = append([]*Node{self}, n.children...)
	}

	var furthest float64

	for _, child := range n.children {
		t.finalize(child)

		d := t.metric.Distance(t.dataset.Row(n.point), t.dataset.Row(child.point))
		if v := d + child.furthest; v > furthest {
			furthest = v
		}
	}

	n.furthest = furthest
	n.bound = tree.NewBall(t.dataset.Row(n.point), furthest, t.metric)
}

// Root returns the root node.
func (t *Tree) Root() tree.Node { return t.root }

// NumNodes returns the total node count, self-child leaves included.
func (t *Tree) NumNodes() int { return t.numNodes }

// Dataset returns the matrix the tree was built over.
func (t *Tree) Dataset() *matrix.Dense { return t.dataset }

// OldFromNew returns nil; the cover tree never reorders points.
func (t *Tree) OldFromNew() []int { return nil }

// Metric returns the metric the tree was built with.
func (t *Tree) Metric() metric.Metric { return t.metric }

// Base returns the expansion constant.
func (t *Tree) Base() float64 { return t.base }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// NumChildren returns the number of child nodes.
func (n *Node) NumChildren() int { return len(n.children) }

// Child returns the i-th child. The self-child leaf comes first.
func (n *Node) Child(i int) tree.Node { return n.children[i] }

// NumPoints returns 1: every cover tree node owns its point. Base cases
// still run once per point because only leaves trigger them and each point
// belongs to exactly one leaf.
func (n *Node) NumPoints() int { return 1 }

// Point returns the node's own point for any i.
func (n *Node) Point(int) int { return n.point }

// Scale returns the node's cover scale.
func (n *Node) Scale() int { return n.scale }

// Bound returns the node's ball bound, centered on its own point.
func (n *Node) Bound() tree.Bound { return n.bound }

// FurthestDescendantDistance returns an upper bound on the distance from
// the node's point to any descendant point.
func (n *Node) FurthestDescendantDistance() float64 { return n.furthest }

// Slot returns the node's dense id.
func (n *Node) Slot() int { return n.slot }
