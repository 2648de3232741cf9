package treesearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmapResults(t *testing.T) {
	t.Run("NilMapsAreIdentity", func(t *testing.T) {
		indices := [][]int{{2, 0}, {1, 2}}
		values := [][]float64{{0.5, 1.5}, {0.1, 0.2}}

		outIdx, outVal, err := UnmapResults(indices, values, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, indices, outIdx)
		assert.Equal(t, values, outVal)
	})

	t.Run("CopiesRows", func(t *testing.T) {
		indices := [][]int{{0}}
		values := [][]float64{{1.0}}

		outIdx, outVal, err := UnmapResults(indices, values, nil, nil)
		require.NoError(t, err)

		outIdx[0][0] = 99
		outVal[0][0] = 99

		assert.Equal(t, 0, indices[0][0])
		assert.Equal(t, 1.0, values[0][0])
	})

	t.Run("RefMapTranslatesCandidates", func(t *testing.T) {
		refMap := []int{7, 3, 5}

		outIdx, _, err := UnmapResults([][]int{{2, 0, 1}}, [][]float64{{1, 2, 3}}, refMap, nil)
		require.NoError(t, err)

		assert.Equal(t, [][]int{{5, 7, 3}}, outIdx)
	})

	t.Run("QueryMapRelocatesRows", func(t *testing.T) {
		queryMap := []int{1, 0}

		outIdx, outVal, err := UnmapResults([][]int{{0}, {1}}, [][]float64{{0.1}, {0.2}}, nil, queryMap)
		require.NoError(t, err)

		assert.Equal(t, [][]int{{1}, {0}}, outIdx)
		assert.Equal(t, [][]float64{{0.2}, {0.1}}, outVal)
	})

	t.Run("SentinelPassesThrough", func(t *testing.T) {
		refMap := []int{4, 2}

		outIdx, _, err := UnmapResults([][]int{{1, -1}}, [][]float64{{0.5, 0}}, refMap, nil)
		require.NoError(t, err)

		assert.Equal(t, [][]int{{2, -1}}, outIdx)
	})

	t.Run("RowCountMismatch", func(t *testing.T) {
		_, _, err := UnmapResults([][]int{{0}}, [][]float64{{1}, {2}}, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("QueryMapLengthMismatch", func(t *testing.T) {
		_, _, err := UnmapResults([][]int{{0}, {1}}, [][]float64{{1}, {2}}, nil, []int{0})
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("QueryMapEntryOutOfRange", func(t *testing.T) {
		_, _, err := UnmapResults([][]int{{0}}, [][]float64{{1}}, nil, []int{5})
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("CandidateOutOfRange", func(t *testing.T) {
		_, _, err := UnmapResults([][]int{{3}}, [][]float64{{1}}, []int{0, 1}, nil)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}
