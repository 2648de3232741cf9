package treesearch

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// promstats package ships a Prometheus implementation.
type MetricsCollector interface {
	// RecordBuild is called after each tree construction.
	// kind names the tree, nodes is the built node count.
	RecordBuild(kind string, nodes int, duration time.Duration)

	// RecordSearch is called after each search operation.
	// mode names the traversal strategy, queries and k describe the
	// request, baseCases and scores count the traversal's work, err is
	// nil on success.
	RecordSearch(mode string, queries, k int, baseCases, scores int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(string, int, time.Duration)                            {}
func (NoopMetricsCollector) RecordSearch(string, int, int, int64, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount       atomic.Int64
	BuildNodes       atomic.Int64
	BuildTotalNanos  atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchQueries    atomic.Int64
	BaseCases        atomic.Int64
	Scores           atomic.Int64
	SearchTotalNanos atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(kind string, nodes int, duration time.Duration) {
	b.BuildCount.Add(1)
	b.BuildNodes.Add(int64(nodes))
	b.BuildTotalNanos.Add(duration.Nanoseconds())
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(mode string, queries, k int, baseCases, scores int64, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchQueries.Add(int64(queries))
	b.BaseCases.Add(baseCases)
	b.Scores.Add(scores)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:     b.BuildCount.Load(),
		BuildNodes:     b.BuildNodes.Load(),
		BuildAvgNanos:  b.getAvgBuildNanos(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchQueries:  b.SearchQueries.Load(),
		BaseCases:      b.BaseCases.Load(),
		Scores:         b.Scores.Load(),
		SearchAvgNanos: b.getAvgSearchNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgBuildNanos() int64 {
	count := b.BuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.BuildTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount     int64
	BuildNodes     int64
	BuildAvgNanos  int64
	SearchCount    int64
	SearchErrors   int64
	SearchQueries  int64
	BaseCases      int64
	Scores         int64
	SearchAvgNanos int64
}
