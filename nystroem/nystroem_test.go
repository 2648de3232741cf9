package nystroem

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treesearch/kernel"
	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/testutil"
)

// assertGramClose checks G·Gᵀ against the exact kernel matrix entry by
// entry.
func assertGramClose(t *testing.T, kern kernel.Kernel, data, g *matrix.Dense, tol float64) {
	t.Helper()

	require.Equal(t, data.Rows(), g.Rows())

	for i := 0; i < data.Rows(); i++ {
		for j := i; j < data.Rows(); j++ {
			want := kern.Evaluate(data.Row(i), data.Row(j))

			got := 0.0
			for c := 0; c < g.Cols(); c++ {
				got += g.Row(i)[c] * g.Row(j)[c]
			}

			assert.InDeltaf(t, want, got, tol, "entry (%d, %d)", i, j)
		}
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("FullRankLinearReconstructsGram", func(t *testing.T) {
		rng := testutil.NewRNG(1)
		data := rng.UniformMatrix(30, 3)

		ny, err := New(kernel.NewLinear(), data.Rows(), WithSelection(SelectionOrdered))
		require.NoError(t, err)

		g, err := ny.Apply(ctx, data)
		require.NoError(t, err)

		assertGramClose(t, kernel.NewLinear(), data, g, 1e-8)
	})

	t.Run("FullRankPolynomialRandomSelection", func(t *testing.T) {
		rng := testutil.NewRNG(2)
		data := rng.UniformMatrix(25, 3)
		kern := kernel.NewPolynomial(2, 1)

		ny, err := New(kern, data.Rows(), WithSelection(SelectionRandom), WithSeed(7))
		require.NoError(t, err)

		g, err := ny.Apply(ctx, data)
		require.NoError(t, err)

		assertGramClose(t, kern, data, g, 1e-6)
	})

	t.Run("KMeansLandmarksSpanLinearKernel", func(t *testing.T) {
		// The linear kernel matrix has rank at most the dimension, so any
		// landmark set spanning the data space reconstructs it exactly.
		rng := testutil.NewRNG(3)
		data := rng.UniformMatrix(40, 3)

		ny, err := New(kernel.NewLinear(), 5, WithSelection(SelectionKMeans), WithSeed(11))
		require.NoError(t, err)

		g, err := ny.Apply(ctx, data)
		require.NoError(t, err)

		assert.Equal(t, 5, g.Cols())
		assertGramClose(t, kernel.NewLinear(), data, g, 1e-6)
	})

	t.Run("Shape", func(t *testing.T) {
		rng := testutil.NewRNG(4)
		data := rng.GaussianMatrix(50, 4)

		gaussian, err := kernel.NewGaussian(0.8)
		require.NoError(t, err)

		ny, err := New(gaussian, 10)
		require.NoError(t, err)

		g, err := ny.Apply(ctx, data)
		require.NoError(t, err)

		assert.Equal(t, 50, g.Rows())
		assert.Equal(t, 10, g.Cols())

		for _, v := range g.Data() {
			assert.False(t, math.IsNaN(v))
			assert.False(t, math.IsInf(v, 0))
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		rng := testutil.NewRNG(5)
		data := rng.UniformMatrix(30, 3)

		for _, sel := range []Selection{SelectionRandom, SelectionKMeans} {
			t.Run(sel.String(), func(t *testing.T) {
				first, err := New(kernel.NewLinear(), 6, WithSelection(sel), WithSeed(21))
				require.NoError(t, err)
				second, err := New(kernel.NewLinear(), 6, WithSelection(sel), WithSeed(21))
				require.NoError(t, err)

				a, err := first.Apply(ctx, data)
				require.NoError(t, err)
				b, err := second.Apply(ctx, data)
				require.NoError(t, err)

				assert.Equal(t, a.Data(), b.Data())
			})
		}
	})
}

func TestApplyValidation(t *testing.T) {
	ctx := context.Background()

	rng := testutil.NewRNG(6)
	data := rng.UniformMatrix(10, 2)

	t.Run("NilKernel", func(t *testing.T) {
		_, err := New(nil, 3)
		assert.ErrorIs(t, err, ErrNilKernel)
	})

	t.Run("ZeroRank", func(t *testing.T) {
		_, err := New(kernel.NewLinear(), 0)
		assert.ErrorIs(t, err, ErrInvalidRank)
	})

	t.Run("RankExceedsData", func(t *testing.T) {
		ny, err := New(kernel.NewLinear(), 11)
		require.NoError(t, err)

		_, err = ny.Apply(ctx, data)
		assert.ErrorIs(t, err, ErrInvalidRank)
	})

	t.Run("EmptyData", func(t *testing.T) {
		ny, err := New(kernel.NewLinear(), 2)
		require.NoError(t, err)

		_, err = ny.Apply(ctx, nil)
		assert.ErrorIs(t, err, ErrEmptyData)
	})

	t.Run("UnknownSelection", func(t *testing.T) {
		ny, err := New(kernel.NewLinear(), 2, WithSelection(Selection(99)))
		require.NoError(t, err)

		_, err = ny.Apply(ctx, data)
		assert.Error(t, err)
	})

	t.Run("ZeroIterations", func(t *testing.T) {
		_, err := New(kernel.NewLinear(), 2, WithKMeansIterations(0))
		assert.Error(t, err)
	})
}

func TestApplyContextCancel(t *testing.T) {
	rng := testutil.NewRNG(8)
	data := rng.UniformMatrix(20, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ny, err := New(kernel.NewLinear(), 4)
	require.NoError(t, err)

	_, err = ny.Apply(ctx, data)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectionString(t *testing.T) {
	assert.Equal(t, "random", SelectionRandom.String())
	assert.Equal(t, "ordered", SelectionOrdered.String())
	assert.Equal(t, "kmeans", SelectionKMeans.String())
	assert.Equal(t, "unknown", Selection(99).String())
}
