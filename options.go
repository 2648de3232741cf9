package treesearch

import (
	"log/slog"

	"github.com/hupe1980/treesearch/metric"
	"github.com/hupe1980/treesearch/tree/rstar"
)

// TreeKind selects the spatial tree a search is built on.
type TreeKind int

const (
	// TreeKD is a binary kd-tree with median splits on the widest
	// dimension. The builder reorders points; results are mapped back to
	// input order automatically.
	TreeKD TreeKind = iota

	// TreeCover is a cover tree. Slower to build than a kd-tree but works
	// with any metric, including the kernel-induced one.
	TreeCover

	// TreeRStar is an R*-tree built by sequential insertion with forced
	// reinsertion.
	TreeRStar
)

// String returns a human readable tree name.
func (t TreeKind) String() string {
	switch t {
	case TreeKD:
		return "kd"
	case TreeCover:
		return "cover"
	case TreeRStar:
		return "rstar"
	default:
		return "unknown"
	}
}

// Mode selects the traversal strategy.
type Mode int

const (
	// ModeDual traverses a query tree and the reference tree
	// simultaneously. Best for large query sets.
	ModeDual Mode = iota

	// ModeSingle traverses the reference tree once per query point.
	ModeSingle

	// ModeNaive compares every query against every reference point. The
	// correctness baseline; quadratic.
	ModeNaive
)

// String returns a human readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeDual:
		return "dual"
	case ModeSingle:
		return "single"
	case ModeNaive:
		return "naive"
	default:
		return "unknown"
	}
}

type options struct {
	treeKind         TreeKind
	mode             Mode
	leafSize         int
	base             float64
	rstarOptions     []func(*rstar.Options)
	metric           *metric.LMetric
	workers          int
	filter           FilterFunc
	randomBasis      bool
	randomBasisSeed  int64
	logger           *Logger
	metricsCollector MetricsCollector
}

// Option configures search construction.
type Option func(*options)

// WithTree selects the spatial tree kind. KNN accepts any kind; MaxKernel
// always builds cover trees and ignores this option.
func WithTree(kind TreeKind) Option {
	return func(o *options) {
		o.treeKind = kind
	}
}

// WithMode selects the traversal strategy. The default is ModeDual.
func WithMode(mode Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithLeafSize sets the maximum number of points per leaf for kd-trees and
// R*-trees. The default is 20. Smaller leaves prune harder but build
// deeper trees.
func WithLeafSize(leafSize int) Option {
	return func(o *options) {
		o.leafSize = leafSize
	}
}

// WithBase sets the cover tree expansion constant. Must be greater than 1.
// The default is 1.3 for nearest-neighbor search and 2.0 for max-kernel
// search.
func WithBase(base float64) Option {
	return func(o *options) {
		o.base = base
	}
}

// WithRStarOptions forwards configuration to the R*-tree builder, e.g.
//
//	treesearch.WithRStarOptions(func(o *rstar.Options) {
//	    o.MaxFanout = 8
//	})
func WithRStarOptions(optFns ...func(*rstar.Options)) Option {
	return func(o *options) {
		o.rstarOptions = append(o.rstarOptions, optFns...)
	}
}

// WithMetric sets the L_p metric for nearest-neighbor search. The default
// is Euclidean. MaxKernel derives its metric from the kernel and ignores
// this option.
func WithMetric(m *metric.LMetric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithWorkers fans naive and single-tree query loops out over the given
// number of goroutines. Dual-tree traversal shares bound caches across
// queries and always runs sequentially.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

// WithFilter restricts results to reference points the filter admits.
// Indices passed to the filter are in input order. See BitmapFilter.
func WithFilter(filter FilterFunc) Option {
	return func(o *options) {
		o.filter = filter
	}
}

// WithRandomBasis projects the reference and query sets onto a random
// orthonormal basis derived from the seed before building. Distances are
// preserved, so results are unchanged; tree shapes stop depending on the
// input's axis alignment.
func WithRandomBasis(seed int64) Option {
	return func(o *options) {
		o.randomBasis = true
		o.randomBasisSeed = seed
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := treesearch.NewJSONLogger(slog.LevelInfo)
//	ns, _ := treesearch.NewKNN(ref, treesearch.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &treesearch.BasicMetricsCollector{}
//	ns, _ := treesearch.NewKNN(ref, treesearch.WithMetricsCollector(metrics))
//	// ... search ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		treeKind:         TreeKD,
		mode:             ModeDual,
		leafSize:         20,
		workers:          1,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
