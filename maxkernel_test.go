package treesearch

import (
	"context"
	"math"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treesearch/kernel"
	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/testutil"
)

// mksModes covers every traversal strategy. Max-kernel search always
// indexes with cover trees, so there is no tree axis to vary.
var mksModes = []struct {
	name string
	opts []Option
}{
	{"dual", []Option{WithMode(ModeDual)}},
	{"single", []Option{WithMode(ModeSingle)}},
	{"naive", []Option{WithMode(ModeNaive)}},
}

// assertKernelRows checks search output against a brute-force scan.
func assertKernelRows(t *testing.T, kern kernel.Kernel, ref, queries *matrix.Dense, k int, indices [][]int, values [][]float64, sameSet bool) {
	t.Helper()

	require.Len(t, indices, queries.Rows())
	require.Len(t, values, queries.Rows())

	for q := 0; q < queries.Rows(); q++ {
		exclude := -1
		if sameSet {
			exclude = q
		}

		want := testutil.BruteForceMaxKernels(kern, ref, queries.Row(q), k, exclude)
		require.Len(t, indices[q], k)
		require.Len(t, values[q], k)

		for i, n := range want {
			assert.Equalf(t, n.Index, indices[q][i], "query %d slot %d", q, i)
			assert.InDeltaf(t, n.Value, values[q][i], 1e-9, "query %d slot %d", q, i)
		}
	}
}

func TestMaxKernelSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsBestFirst", func(t *testing.T) {
		ref := mustMatrix(t, [][]float64{{0, 0}, {1, 0}, {5, 5}})
		queries := mustMatrix(t, [][]float64{{1, 1}})

		for _, mode := range mksModes {
			t.Run(mode.name, func(t *testing.T) {
				mks, err := NewMaxKernel(ref, kernel.NewLinear(), mode.opts...)
				require.NoError(t, err)

				indices, values, err := mks.Search(ctx, queries, 2)
				require.NoError(t, err)

				assert.Equal(t, [][]int{{2, 1}}, indices)
				assert.InDelta(t, 10.0, values[0][0], 1e-12)
				assert.InDelta(t, 1.0, values[0][1], 1e-12)
			})
		}
	})

	t.Run("MatchesBruteForce", func(t *testing.T) {
		rng := testutil.NewRNG(67)
		ref := rng.ClusteredMatrix(90, 4, 3, 0.3)
		queries := rng.GaussianMatrix(25, 4)

		gaussian, err := kernel.NewGaussian(0.7)
		require.NoError(t, err)

		kernels := []struct {
			name string
			kern kernel.Kernel
		}{
			{"linear", kernel.NewLinear()},
			{"polynomial", kernel.NewPolynomial(2, 1)},
			{"cosine", kernel.NewCosine()},
			{"gaussian", gaussian},
		}

		for _, kc := range kernels {
			for _, mode := range mksModes {
				t.Run(kc.name+" "+mode.name, func(t *testing.T) {
					mks, err := NewMaxKernel(ref, kc.kern, mode.opts...)
					require.NoError(t, err)

					indices, values, err := mks.Search(ctx, queries, 5)
					require.NoError(t, err)

					assertKernelRows(t, kc.kern, ref, queries, 5, indices, values, false)
				})
			}
		}
	})

	t.Run("TieBreakingPrefersLowerIndex", func(t *testing.T) {
		ref := mustMatrix(t, [][]float64{{1, 0}, {1, 0}, {0, 1}})
		queries := mustMatrix(t, [][]float64{{1, 0}})

		for _, mode := range mksModes {
			t.Run(mode.name, func(t *testing.T) {
				mks, err := NewMaxKernel(ref, kernel.NewLinear(), mode.opts...)
				require.NoError(t, err)

				indices, values, err := mks.Search(ctx, queries, 2)
				require.NoError(t, err)

				assert.Equal(t, [][]int{{0, 1}}, indices)
				assert.InDelta(t, 1.0, values[0][0], 1e-12)
				assert.InDelta(t, 1.0, values[0][1], 1e-12)
			})
		}
	})

	t.Run("CustomBase", func(t *testing.T) {
		rng := testutil.NewRNG(71)
		ref := rng.UniformMatrix(40, 3)
		queries := rng.UniformMatrix(10, 3)

		mks, err := NewMaxKernel(ref, kernel.NewLinear(), WithBase(1.5))
		require.NoError(t, err)

		indices, values, err := mks.Search(ctx, queries, 3)
		require.NoError(t, err)

		assertKernelRows(t, kernel.NewLinear(), ref, queries, 3, indices, values, false)
	})
}

func TestMaxKernelSearchSelf(t *testing.T) {
	ctx := context.Background()

	t.Run("MatchesBruteForce", func(t *testing.T) {
		rng := testutil.NewRNG(73)
		ref := rng.ClusteredMatrix(80, 4, 4, 0.25)
		kern := kernel.NewPolynomial(2, 1)

		for _, mode := range mksModes {
			t.Run(mode.name, func(t *testing.T) {
				mks, err := NewMaxKernel(ref, kern, mode.opts...)
				require.NoError(t, err)

				indices, values, err := mks.SearchSelf(ctx, 4)
				require.NoError(t, err)

				assertKernelRows(t, kern, ref, ref, 4, indices, values, true)

				for q := range indices {
					assert.NotContains(t, indices[q], q)
				}
			})
		}
	})

	t.Run("KEqualsAllReferencesPadsLastSlot", func(t *testing.T) {
		rng := testutil.NewRNG(79)
		ref := rng.UniformMatrix(7, 3)

		for _, mode := range mksModes {
			t.Run(mode.name, func(t *testing.T) {
				mks, err := NewMaxKernel(ref, kernel.NewLinear(), mode.opts...)
				require.NoError(t, err)

				indices, values, err := mks.SearchSelf(ctx, ref.Rows())
				require.NoError(t, err)

				for q := range indices {
					require.Len(t, indices[q], ref.Rows())
					assert.Equal(t, -1, indices[q][ref.Rows()-1])
					assert.True(t, math.IsInf(values[q][ref.Rows()-1], -1))
				}
			})
		}
	})

	t.Run("DuplicatePointsReportEachOther", func(t *testing.T) {
		ref := mustMatrix(t, [][]float64{{2, 2}, {2, 2}, {0, 1}})

		for _, mode := range mksModes {
			t.Run(mode.name, func(t *testing.T) {
				mks, err := NewMaxKernel(ref, kernel.NewLinear(), mode.opts...)
				require.NoError(t, err)

				indices, values, err := mks.SearchSelf(ctx, 1)
				require.NoError(t, err)

				assert.Equal(t, [][]int{{1}, {0}, {0}}, indices)
				assert.InDelta(t, 8.0, values[0][0], 1e-12)
				assert.InDelta(t, 8.0, values[1][0], 1e-12)
			})
		}
	})
}

func TestMaxKernelFilter(t *testing.T) {
	ctx := context.Background()

	rng := testutil.NewRNG(83)
	ref := rng.ClusteredMatrix(60, 3, 3, 0.3)
	queries := rng.GaussianMatrix(15, 3)

	keep := roaring.New()
	for i := 0; i < ref.Rows(); i += 3 {
		keep.Add(uint32(i))
	}
	filter := BitmapFilter(keep)

	naive, err := NewMaxKernel(ref, kernel.NewLinear(), WithMode(ModeNaive), WithFilter(filter))
	require.NoError(t, err)

	wantIndices, wantValues, err := naive.Search(ctx, queries, 3)
	require.NoError(t, err)

	for q := range wantIndices {
		for _, idx := range wantIndices[q] {
			assert.Zero(t, idx%3)
		}
	}

	for _, mode := range mksModes[:2] {
		t.Run(mode.name, func(t *testing.T) {
			opts := append([]Option{WithFilter(filter)}, mode.opts...)

			mks, err := NewMaxKernel(ref, kernel.NewLinear(), opts...)
			require.NoError(t, err)

			indices, values, err := mks.Search(ctx, queries, 3)
			require.NoError(t, err)

			assert.Equal(t, wantIndices, indices)
			for q := range wantValues {
				assert.InDeltaSlice(t, wantValues[q], values[q], 1e-12)
			}
		})
	}

	t.Run("TooFewUsablePoints", func(t *testing.T) {
		mks, err := NewMaxKernel(ref, kernel.NewLinear(), WithFilter(BitmapFilter(roaring.BitmapOf(0, 1))))
		require.NoError(t, err)

		_, _, err = mks.Search(ctx, queries, 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestMaxKernelValidation(t *testing.T) {
	ctx := context.Background()

	rng := testutil.NewRNG(89)
	ref := rng.UniformMatrix(10, 2)
	queries := rng.UniformMatrix(3, 2)

	t.Run("NilKernel", func(t *testing.T) {
		_, err := NewMaxKernel(ref, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidParameter)

		var pe *ParameterError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "kernel", pe.Name)
	})

	t.Run("NilReference", func(t *testing.T) {
		_, err := NewMaxKernel(nil, kernel.NewLinear())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("InvalidBase", func(t *testing.T) {
		_, err := NewMaxKernel(ref, kernel.NewLinear(), WithBase(0.9))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		mks, err := NewMaxKernel(ref, kernel.NewLinear())
		require.NoError(t, err)

		_, _, err = mks.Search(ctx, rng.UniformMatrix(3, 4), 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("NegativeK", func(t *testing.T) {
		mks, err := NewMaxKernel(ref, kernel.NewLinear())
		require.NoError(t, err)

		_, _, err = mks.Search(ctx, queries, -2)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("ZeroK", func(t *testing.T) {
		mks, err := NewMaxKernel(ref, kernel.NewLinear())
		require.NoError(t, err)

		indices, values, err := mks.Search(ctx, queries, 0)
		require.NoError(t, err)

		require.Len(t, indices, queries.Rows())
		for q := range indices {
			assert.Empty(t, indices[q])
			assert.Empty(t, values[q])
		}
	})

	t.Run("KTooLarge", func(t *testing.T) {
		mks, err := NewMaxKernel(ref, kernel.NewLinear())
		require.NoError(t, err)

		_, _, err = mks.Search(ctx, queries, ref.Rows()+1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestMaxKernelWorkers(t *testing.T) {
	ctx := context.Background()

	rng := testutil.NewRNG(97)
	ref := rng.ClusteredMatrix(80, 3, 3, 0.3)
	queries := rng.GaussianMatrix(20, 3)

	for _, mode := range []Mode{ModeSingle, ModeNaive} {
		t.Run(mode.String(), func(t *testing.T) {
			sequential, err := NewMaxKernel(ref, kernel.NewLinear(), WithMode(mode))
			require.NoError(t, err)

			wantIndices, wantValues, err := sequential.Search(ctx, queries, 4)
			require.NoError(t, err)

			parallel, err := NewMaxKernel(ref, kernel.NewLinear(), WithMode(mode), WithWorkers(4))
			require.NoError(t, err)

			indices, values, err := parallel.Search(ctx, queries, 4)
			require.NoError(t, err)

			assert.Equal(t, wantIndices, indices)
			assert.Equal(t, wantValues, values)
		})
	}
}

func TestMaxKernelContextCancel(t *testing.T) {
	rng := testutil.NewRNG(101)
	ref := rng.UniformMatrix(40, 3)
	queries := rng.UniformMatrix(8, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, mode := range mksModes {
		t.Run(mode.name, func(t *testing.T) {
			mks, err := NewMaxKernel(ref, kernel.NewLinear(), mode.opts...)
			require.NoError(t, err)

			_, _, err = mks.Search(ctx, queries, 2)
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}
