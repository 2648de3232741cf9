package basis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treesearch/metric"
	"github.com/hupe1980/treesearch/testutil"
)

func TestRandom(t *testing.T) {
	t.Run("preserves pairwise distances", func(t *testing.T) {
		rng := testutil.NewRNG(3)
		data := rng.GaussianMatrix(20, 5)

		b, err := Random(5, 99)
		require.NoError(t, err)

		projected, err := b.Apply(data)
		require.NoError(t, err)
		require.Equal(t, data.Rows(), projected.Rows())
		require.Equal(t, data.Cols(), projected.Cols())

		euclid := metric.NewEuclidean()
		for i := 0; i < data.Rows(); i++ {
			for j := i + 1; j < data.Rows(); j++ {
				want := euclid.Distance(data.Row(i), data.Row(j))
				got := euclid.Distance(projected.Row(i), projected.Row(j))
				assert.InDelta(t, want, got, 1e-9)
			}
		}
	})

	t.Run("deterministic per seed", func(t *testing.T) {
		rng := testutil.NewRNG(4)
		data := rng.UniformMatrix(6, 4)

		b1, err := Random(4, 7)
		require.NoError(t, err)
		b2, err := Random(4, 7)
		require.NoError(t, err)

		p1, err := b1.Apply(data)
		require.NoError(t, err)
		p2, err := b2.Apply(data)
		require.NoError(t, err)

		assert.Equal(t, p1.Data(), p2.Data())
	})

	t.Run("different seeds differ", func(t *testing.T) {
		rng := testutil.NewRNG(5)
		data := rng.UniformMatrix(6, 4)

		b1, err := Random(4, 1)
		require.NoError(t, err)
		b2, err := Random(4, 2)
		require.NoError(t, err)

		p1, err := b1.Apply(data)
		require.NoError(t, err)
		p2, err := b2.Apply(data)
		require.NoError(t, err)

		assert.NotEqual(t, p1.Data(), p2.Data())
	})

	t.Run("rejects non-positive dimension", func(t *testing.T) {
		_, err := Random(0, 1)
		assert.ErrorIs(t, err, ErrInvalidDimension)
	})

	t.Run("rejects mismatched matrix", func(t *testing.T) {
		rng := testutil.NewRNG(6)
		data := rng.UniformMatrix(3, 2)

		b, err := Random(4, 1)
		require.NoError(t, err)

		_, err = b.Apply(data)
		assert.ErrorIs(t, err, ErrInvalidDimension)
	})
}
