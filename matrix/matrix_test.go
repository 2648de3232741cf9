package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFromRows(t *testing.T) {
	t.Run("rectangular", func(t *testing.T) {
		m, err := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
		require.NoError(t, err)

		assert.Equal(t, 2, m.Rows())
		assert.Equal(t, 3, m.Cols())
		assert.Equal(t, []float64{4, 5, 6}, m.Row(1))
		assert.Equal(t, 6.0, m.At(1, 2))
	})

	t.Run("ragged", func(t *testing.T) {
		_, err := FromRows([][]float64{{1, 2}, {3}})
		require.Error(t, err)

		var rr *ErrRaggedRow
		require.ErrorAs(t, err, &rr)
		assert.Equal(t, 1, rr.Row)
		assert.Equal(t, 2, rr.Expected)
		assert.Equal(t, 1, rr.Actual)
	})

	t.Run("empty", func(t *testing.T) {
		m, err := FromRows(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, m.Rows())
	})
}

func TestFromFlat(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m, err := FromFlat(2, 2, []float64{1, 2, 3, 4})
		require.NoError(t, err)
		assert.Equal(t, []float64{3, 4}, m.Row(1))
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := FromFlat(2, 2, []float64{1, 2, 3})
		var sm *ErrShapeMismatch
		require.ErrorAs(t, err, &sm)
	})
}

func TestRowIsZeroCopy(t *testing.T) {
	m := New(2, 2)
	m.Row(0)[1] = 42

	assert.Equal(t, 42.0, m.At(0, 1))
}

func TestClone(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	c := m.Clone()
	c.Set(0, 0, 99)

	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 99.0, c.At(0, 0))
}

func TestPermutedCopy(t *testing.T) {
	m, err := FromRows([][]float64{{0, 0}, {1, 1}, {2, 2}})
	require.NoError(t, err)

	t.Run("reorder", func(t *testing.T) {
		p, err := m.PermutedCopy([]int{2, 0, 1})
		require.NoError(t, err)

		assert.Equal(t, []float64{2, 2}, p.Row(0))
		assert.Equal(t, []float64{0, 0}, p.Row(1))
		assert.Equal(t, []float64{1, 1}, p.Row(2))
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := m.PermutedCopy([]int{0, 1})
		require.Error(t, err)
	})
}

func TestGonumInterop(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	g := m.Gonum()
	rows, cols := g.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)

	// Mutating the gonum copy must not touch the source.
	g.Set(0, 0, -1)
	assert.Equal(t, 1.0, m.At(0, 0))

	back := FromGonum(mat.NewDense(2, 2, []float64{5, 6, 7, 8}))
	assert.Equal(t, []float64{7, 8}, back.Row(1))
}
