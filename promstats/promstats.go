// Package promstats exports treesearch build and search metrics to
// Prometheus.
//
// Wire it in with WithMetricsCollector:
//
//	collector, err := promstats.New()
//	if err != nil { ... }
//	defer collector.Unregister()
//
//	knn, err := treesearch.NewKNN(ref, treesearch.WithMetricsCollector(collector))
package promstats

import (
	"time"

	"github.com/hupe1980/treesearch"
	"github.com/prometheus/client_golang/prometheus"
)

// Options configures the collector.
type Options struct {
	// Namespace prefixes all metric names. Defaults to "treesearch".
	Namespace string

	// Registerer receives the metrics. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// DurationBuckets are the histogram buckets, in seconds, for build and
	// search durations. Defaults to prometheus.DefBuckets.
	DurationBuckets []float64
}

// Collector implements treesearch.MetricsCollector on top of Prometheus.
type Collector struct {
	reg prometheus.Registerer

	buildsTotal    *prometheus.CounterVec
	buildNodes     *prometheus.CounterVec
	buildDuration  *prometheus.HistogramVec
	searchesTotal  *prometheus.CounterVec
	searchQueries  *prometheus.CounterVec
	baseCases      *prometheus.CounterVec
	scores         *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec

	collectors []prometheus.Collector
}

var _ treesearch.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics.
func New(optFns ...func(o *Options)) (*Collector, error) {
	opts := Options{
		Namespace:       "treesearch",
		Registerer:      prometheus.DefaultRegisterer,
		DurationBuckets: prometheus.DefBuckets,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Collector{
		reg: opts.Registerer,

		buildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "builds_total",
			Help:      "Trees built, by tree kind.",
		}, []string{"tree"}),

		buildNodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "build_nodes_total",
			Help:      "Tree nodes created, by tree kind.",
		}, []string{"tree"}),

		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "build_duration_seconds",
			Help:      "Tree construction time, by tree kind.",
			Buckets:   opts.DurationBuckets,
		}, []string{"tree"}),

		searchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "searches_total",
			Help:      "Search operations, by traversal mode and outcome.",
		}, []string{"mode", "status"}),

		searchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "search_queries_total",
			Help:      "Query points answered, by traversal mode.",
		}, []string{"mode"}),

		baseCases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "search_base_cases_total",
			Help:      "Point-to-point evaluations performed, by traversal mode.",
		}, []string{"mode"}),

		scores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      "search_scores_total",
			Help:      "Node prune checks performed, by traversal mode.",
		}, []string{"mode"}),

		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: opts.Namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search time, by traversal mode.",
			Buckets:   opts.DurationBuckets,
		}, []string{"mode"}),
	}

	c.collectors = []prometheus.Collector{
		c.buildsTotal,
		c.buildNodes,
		c.buildDuration,
		c.searchesTotal,
		c.searchQueries,
		c.baseCases,
		c.scores,
		c.searchDuration,
	}

	for _, col := range c.collectors {
		if err := c.reg.Register(col); err != nil {
			c.Unregister()
			return nil, err
		}
	}

	return c, nil
}

// RecordBuild implements treesearch.MetricsCollector.
func (c *Collector) RecordBuild(kind string, nodes int, duration time.Duration) {
	c.buildsTotal.WithLabelValues(kind).Inc()
	c.buildNodes.WithLabelValues(kind).Add(float64(nodes))
	c.buildDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordSearch implements treesearch.MetricsCollector.
func (c *Collector) RecordSearch(mode string, queries, k int, baseCases, scores int64, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	c.searchesTotal.WithLabelValues(mode, status).Inc()
	c.searchQueries.WithLabelValues(mode).Add(float64(queries))
	c.baseCases.WithLabelValues(mode).Add(float64(baseCases))
	c.scores.WithLabelValues(mode).Add(float64(scores))
	c.searchDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// Unregister removes the metrics from the registerer. Call it when the
// collector is no longer needed, e.g. in tests that reuse a registry.
func (c *Collector) Unregister() {
	for _, col := range c.collectors {
		c.reg.Unregister(col)
	}
}
