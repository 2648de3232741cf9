package kd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/metric"
	"github.com/hupe1980/treesearch/testutil"
	"github.com/hupe1980/treesearch/tree"
)

func TestNewValidation(t *testing.T) {
	data := testutil.NewRNG(1).UniformMatrix(10, 3)

	t.Run("leaf size", func(t *testing.T) {
		_, err := New(data, WithLeafSize(0))

		var io *tree.ErrInvalidOption
		require.ErrorAs(t, err, &io)
		assert.Equal(t, "LeafSize", io.Name)
	})

	t.Run("empty dataset", func(t *testing.T) {
		_, err := New(matrix.New(0, 3))

		var ed *tree.ErrEmptyDataset
		require.ErrorAs(t, err, &ed)
	})

	t.Run("nil dataset", func(t *testing.T) {
		_, err := New(nil)
		require.Error(t, err)
	})
}

func TestPermutation(t *testing.T) {
	data := testutil.NewRNG(42).UniformMatrix(137, 5)

	kt, err := New(data, WithLeafSize(4))
	require.NoError(t, err)

	ofn := kt.OldFromNew()
	require.Len(t, ofn, 137)

	seen := make([]bool, 137)
	for newIdx, oldIdx := range ofn {
		require.False(t, seen[oldIdx], "index %d mapped twice", oldIdx)
		seen[oldIdx] = true

		assert.Equal(t, data.Row(oldIdx), kt.Dataset().Row(newIdx))
	}
}

func TestStructure(t *testing.T) {
	data := testutil.NewRNG(7).ClusteredMatrix(200, 3, 4, 0.2)

	kt, err := New(data, WithLeafSize(10))
	require.NoError(t, err)

	var (
		leafPoints int
		slots      = make(map[int]bool)
	)

	var walk func(n tree.Node)
	walk = func(n tree.Node) {
		require.False(t, slots[n.Slot()], "slot %d reused", n.Slot())
		slots[n.Slot()] = true

		if n.IsLeaf() {
			assert.LessOrEqual(t, n.NumPoints(), 10)
			assert.Greater(t, n.NumPoints(), 0)

			for i := 0; i < n.NumPoints(); i++ {
				p := kt.Dataset().Row(n.Point(i))
				assert.Equal(t, 0.0, n.Bound().MinDistance(p))

				leafPoints++
			}

			return
		}

		assert.Equal(t, 0, n.NumPoints())
		require.Equal(t, 2, n.NumChildren())

		for i := 0; i < n.NumChildren(); i++ {
			walk(n.Child(i))
		}
	}

	walk(kt.Root())

	assert.Equal(t, 200, leafPoints)
	assert.Len(t, slots, kt.NumNodes())
}

func TestBoundsContainDescendants(t *testing.T) {
	data := testutil.NewRNG(3).GaussianMatrix(150, 4)

	kt, err := New(data, WithLeafSize(5))
	require.NoError(t, err)

	var walk func(n *Node)
	walk = func(n *Node) {
		for i := n.Begin(); i < n.Begin()+n.Count(); i++ {
			p := kt.Dataset().Row(i)

			assert.Equal(t, 0.0, n.Bound().MinDistance(p))
			assert.LessOrEqual(t, n.Bound().MaxDistance(p), n.Bound().Diameter()+1e-12)
		}

		if !n.IsLeaf() {
			walk(n.Child(0).(*Node))
			walk(n.Child(1).(*Node))
		}
	}

	walk(kt.Root().(*Node))
}

func TestDeterministicBuild(t *testing.T) {
	data := testutil.NewRNG(11).UniformMatrix(64, 2)

	a, err := New(data, WithLeafSize(3))
	require.NoError(t, err)

	b, err := New(data, WithLeafSize(3))
	require.NoError(t, err)

	assert.Equal(t, a.OldFromNew(), b.OldFromNew())
	assert.Equal(t, a.NumNodes(), b.NumNodes())
}

func TestIdenticalPoints(t *testing.T) {
	rows := make([][]float64, 50)
	for i := range rows {
		rows[i] = []float64{1, 2, 3}
	}

	data, err := matrix.FromRows(rows)
	require.NoError(t, err)

	kt, err := New(data, WithLeafSize(4))
	require.NoError(t, err)

	assert.Equal(t, 0.0, kt.Root().Bound().Diameter())
	assert.Equal(t, 0.0, kt.Root().FurthestDescendantDistance())
}

func TestManhattanMetric(t *testing.T) {
	data := testutil.NewRNG(5).UniformMatrix(30, 2)

	kt, err := New(data, WithMetric(metric.NewManhattan()))
	require.NoError(t, err)

	assert.Equal(t, "manhattan", kt.Metric().Name())
}

func TestSingleLeaf(t *testing.T) {
	data := testutil.NewRNG(9).UniformMatrix(5, 2)

	kt, err := New(data) // default leaf size 20 holds all points
	require.NoError(t, err)

	assert.True(t, kt.Root().IsLeaf())
	assert.Equal(t, 1, kt.NumNodes())
	assert.Equal(t, 5, kt.Root().NumPoints())
}
