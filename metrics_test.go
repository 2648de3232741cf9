package treesearch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treesearch/testutil"
)

func TestBasicMetricsCollector(t *testing.T) {
	t.Run("RecordBuild", func(t *testing.T) {
		c := &BasicMetricsCollector{}

		c.RecordBuild("kd", 15, 100*time.Millisecond)
		c.RecordBuild("cover", 25, 300*time.Millisecond)

		stats := c.GetStats()
		assert.Equal(t, int64(2), stats.BuildCount)
		assert.Equal(t, int64(40), stats.BuildNodes)
		assert.Equal(t, (200 * time.Millisecond).Nanoseconds(), stats.BuildAvgNanos)
	})

	t.Run("RecordSearch", func(t *testing.T) {
		c := &BasicMetricsCollector{}

		c.RecordSearch("dual", 10, 3, 120, 45, 50*time.Millisecond, nil)
		c.RecordSearch("dual", 5, 3, 0, 0, 10*time.Millisecond, errors.New("boom"))

		stats := c.GetStats()
		assert.Equal(t, int64(2), stats.SearchCount)
		assert.Equal(t, int64(1), stats.SearchErrors)
		assert.Equal(t, int64(15), stats.SearchQueries)
		assert.Equal(t, int64(120), stats.BaseCases)
		assert.Equal(t, int64(45), stats.Scores)
	})

	t.Run("EmptyStats", func(t *testing.T) {
		c := &BasicMetricsCollector{}

		stats := c.GetStats()
		assert.Zero(t, stats.BuildAvgNanos)
		assert.Zero(t, stats.SearchAvgNanos)
	})
}

func TestMetricsIntegration(t *testing.T) {
	ctx := context.Background()

	rng := testutil.NewRNG(103)
	ref := rng.UniformMatrix(50, 3)
	queries := rng.UniformMatrix(10, 3)

	t.Run("SingleTree", func(t *testing.T) {
		c := &BasicMetricsCollector{}

		knn, err := NewKNN(ref, WithMode(ModeSingle), WithMetricsCollector(c))
		require.NoError(t, err)

		assert.Equal(t, int64(1), c.GetStats().BuildCount)

		_, _, err = knn.Search(ctx, queries, 3)
		require.NoError(t, err)

		stats := c.GetStats()
		assert.Equal(t, int64(1), stats.SearchCount)
		assert.Equal(t, int64(10), stats.SearchQueries)
		assert.Positive(t, stats.BaseCases)
		assert.Positive(t, stats.Scores)
	})

	t.Run("DualTreeBuildsQueryTree", func(t *testing.T) {
		c := &BasicMetricsCollector{}

		knn, err := NewKNN(ref, WithMode(ModeDual), WithMetricsCollector(c))
		require.NoError(t, err)

		_, _, err = knn.Search(ctx, queries, 3)
		require.NoError(t, err)

		// One build for the reference tree, one for the query tree.
		assert.Equal(t, int64(2), c.GetStats().BuildCount)
	})

	t.Run("FailedSearchCounts", func(t *testing.T) {
		c := &BasicMetricsCollector{}

		knn, err := NewKNN(ref, WithMetricsCollector(c))
		require.NoError(t, err)

		_, _, err = knn.Search(ctx, queries, ref.Rows()+1)
		require.Error(t, err)

		assert.Equal(t, int64(1), c.GetStats().SearchErrors)
	})
}
