package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hupe1980/treesearch"
	"github.com/hupe1980/treesearch/blobstore"
	"github.com/hupe1980/treesearch/data"
	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/resource"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runConfig string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch of searches described by a YAML job file",
	Long: `Run several searches from one job file, with shared limits on memory,
concurrency and IO throughput. Relative dataset paths resolve against
the working directory; URLs work like everywhere else.

Example job file:

  limits:
    memory_bytes: 1073741824      # hold at most 1 GiB of datasets
    max_concurrent: 2             # run two searches at a time
    io_bytes_per_sec: 8388608     # stage datasets at 8 MiB/s
  report: report.txt
  searches:
    - name: neighbors
      type: knn
      reference: ref.csv
      k: 3
      tree: kd                    # kd | cover | rstar
      mode: dual                  # dual | single | naive
      distances_out: distances.csv
      neighbors_out: neighbors.csv
    - name: similarities
      type: mks
      reference: ref.csv
      query: q.csv
      k: 1
      kernel: polynomial          # see 'treesearch mks --help'
      degree: 3
      kernels_out: kernels.csv
      indices_out: indices.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(runConfig)
		if err != nil {
			return err
		}

		job, err := parseJob(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", runConfig, err)
		}

		return runJob(cmd.Context(), job, newLogger())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runConfig, "config", "f", "", "YAML job file")

	_ = runCmd.MarkFlagRequired("config")
}

// Job is a parsed job file.
type Job struct {
	Limits   Limits   `yaml:"limits"`
	Report   string   `yaml:"report"`
	Searches []Search `yaml:"searches"`
}

// Limits bounds the whole job. Zero values mean unlimited.
type Limits struct {
	MemoryBytes   int64 `yaml:"memory_bytes"`
	MaxConcurrent int64 `yaml:"max_concurrent"`
	IOBytesPerSec int64 `yaml:"io_bytes_per_sec"`
}

// Search is one search of a job.
type Search struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"` // knn or mks
	Reference string `yaml:"reference"`
	Query     string `yaml:"query"`
	K         int    `yaml:"k"`

	// Tree and traversal, all types.
	Tree        string  `yaml:"tree"`
	Mode        string  `yaml:"mode"`
	LeafSize    int     `yaml:"leaf_size"`
	Base        float64 `yaml:"base"`
	RandomBasis bool    `yaml:"random_basis"`
	Seed        int64   `yaml:"seed"`

	// Kernel, mks only.
	Kernel    string  `yaml:"kernel"`
	Degree    float64 `yaml:"degree"`
	Offset    float64 `yaml:"offset"`
	Bandwidth float64 `yaml:"bandwidth"`
	Scale     float64 `yaml:"scale"`

	// Outputs. knn writes distances/neighbors, mks writes kernels/indices.
	DistancesOut string `yaml:"distances_out"`
	NeighborsOut string `yaml:"neighbors_out"`
	KernelsOut   string `yaml:"kernels_out"`
	IndicesOut   string `yaml:"indices_out"`
}

func parseJob(raw []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return nil, err
	}

	if len(job.Searches) == 0 {
		return nil, fmt.Errorf("job has no searches")
	}

	for i := range job.Searches {
		s := &job.Searches[i]

		if s.Name == "" {
			s.Name = fmt.Sprintf("search-%d", i)
		}

		if s.Type != "knn" && s.Type != "mks" {
			return nil, fmt.Errorf("search %s: unknown type %q (want knn or mks)", s.Name, s.Type)
		}

		if s.Reference == "" {
			return nil, fmt.Errorf("search %s: reference is required", s.Name)
		}

		if s.K <= 0 {
			return nil, fmt.Errorf("search %s: k must be positive", s.Name)
		}

		// Flag defaults, so job files only state what they change.
		if s.LeafSize == 0 {
			s.LeafSize = 20
		}

		if s.Kernel == "" {
			s.Kernel = "linear"
		}

		if s.Degree == 0 {
			s.Degree = 2
		}

		if s.Bandwidth == 0 {
			s.Bandwidth = 1
		}

		if s.Scale == 0 {
			s.Scale = 1
		}
	}

	return &job, nil
}

type searchResult struct {
	name     string
	duration time.Duration
	err      error
}

// runJob executes every search of the job under the configured limits. The
// first failure cancels the remaining searches; the report records what ran.
func runJob(ctx context.Context, job *Job, logger *treesearch.Logger) error {
	ctrl := resource.NewController(resource.Config{
		MemoryLimitBytes: job.Limits.MemoryBytes,
		MaxConcurrent:    job.Limits.MaxConcurrent,
		IOBytesPerSec:    job.Limits.IOBytesPerSec,
	})

	// With an IO limit, relative local paths are staged through a
	// throttled store sharing the job's budget.
	var store blobstore.BlobStore
	if limiter := ctrl.IOLimiter(); limiter != nil {
		store = blobstore.NewThrottledStore(blobstore.NewLocalStore("."), limiter)
	}

	results := make([]searchResult, len(job.Searches))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range job.Searches {
		i, s := i, s
		g.Go(func() error {
			if err := ctrl.AcquireSlot(gctx); err != nil {
				results[i] = searchResult{name: s.Name, err: err}
				return err
			}
			defer ctrl.ReleaseSlot()

			start := time.Now()
			err := runOneSearch(gctx, ctrl, store, s, logger)
			results[i] = searchResult{name: s.Name, duration: time.Since(start), err: err}

			if err != nil {
				return fmt.Errorf("search %s: %w", s.Name, err)
			}

			return nil
		})
	}

	err := g.Wait()

	if rerr := writeReport(ctx, ctrl, job.Report, results); rerr != nil && err == nil {
		err = rerr
	}

	return err
}

func runOneSearch(ctx context.Context, ctrl *resource.Controller, store blobstore.BlobStore, s Search, logger *treesearch.Logger) error {
	ref, err := loadMatrix(ctx, store, s.Reference)
	if err != nil {
		return fmt.Errorf("load reference: %w", err)
	}

	var query *matrix.Dense

	memBytes := matrixBytes(ref)
	if s.Query != "" {
		query, err = loadMatrix(ctx, store, s.Query)
		if err != nil {
			return fmt.Errorf("load query: %w", err)
		}

		memBytes += matrixBytes(query)
	}

	// The reservation covers the build-and-search phase, which holds the
	// datasets plus per-tree copies.
	if err := ctrl.AcquireMemory(ctx, memBytes); err != nil {
		return err
	}
	defer ctrl.ReleaseMemory(memBytes)

	switch s.Type {
	case "knn":
		return runJobKNN(ctx, store, s, ref, query, logger)
	case "mks":
		return runJobMKS(ctx, store, s, ref, query, logger)
	default:
		return fmt.Errorf("unknown type %q", s.Type)
	}
}

func runJobKNN(ctx context.Context, store blobstore.BlobStore, s Search, ref, query *matrix.Dense, logger *treesearch.Logger) error {
	kind, err := parseTreeKind(s.Tree)
	if err != nil {
		return err
	}

	mode, err := parseMode(s.Mode)
	if err != nil {
		return err
	}

	opts := []treesearch.Option{
		treesearch.WithTree(kind),
		treesearch.WithMode(mode),
		treesearch.WithLeafSize(s.LeafSize),
		treesearch.WithLogger(logger),
	}

	if s.Base > 0 {
		opts = append(opts, treesearch.WithBase(s.Base))
	}

	if s.RandomBasis {
		opts = append(opts, treesearch.WithRandomBasis(pickSeed(s.Seed)))
	}

	knn, err := treesearch.NewKNN(ref, opts...)
	if err != nil {
		return err
	}

	var (
		indices   [][]int
		distances [][]float64
	)

	if query != nil {
		indices, distances, err = knn.Search(ctx, query, s.K)
	} else {
		indices, distances, err = knn.SearchSelf(ctx, s.K)
	}
	if err != nil {
		return err
	}

	if s.DistancesOut != "" {
		dm, err := valuesToMatrix(distances)
		if err != nil {
			return err
		}

		if err := saveMatrix(ctx, store, s.DistancesOut, dm); err != nil {
			return err
		}
	}

	if s.NeighborsOut != "" {
		if err := saveMatrix(ctx, store, s.NeighborsOut, indicesToMatrix(indices)); err != nil {
			return err
		}
	}

	return nil
}

func runJobMKS(ctx context.Context, store blobstore.BlobStore, s Search, ref, query *matrix.Dense, logger *treesearch.Logger) error {
	kern, err := buildKernel(s.Kernel, s.Degree, s.Offset, s.Bandwidth, s.Scale)
	if err != nil {
		return err
	}

	mode, err := parseMode(s.Mode)
	if err != nil {
		return err
	}

	opts := []treesearch.Option{
		treesearch.WithMode(mode),
		treesearch.WithLogger(logger),
	}

	if s.Base > 0 {
		opts = append(opts, treesearch.WithBase(s.Base))
	}

	mks, err := treesearch.NewMaxKernel(ref, kern, opts...)
	if err != nil {
		return err
	}

	var (
		indices [][]int
		kernels [][]float64
	)

	if query != nil {
		indices, kernels, err = mks.Search(ctx, query, s.K)
	} else {
		indices, kernels, err = mks.SearchSelf(ctx, s.K)
	}
	if err != nil {
		return err
	}

	if s.KernelsOut != "" {
		km, err := valuesToMatrix(kernels)
		if err != nil {
			return err
		}

		if err := saveMatrix(ctx, store, s.KernelsOut, km); err != nil {
			return err
		}
	}

	if s.IndicesOut != "" {
		if err := saveMatrix(ctx, store, s.IndicesOut, indicesToMatrix(indices)); err != nil {
			return err
		}
	}

	return nil
}

func parseTreeKind(name string) (treesearch.TreeKind, error) {
	switch name {
	case "", "kd":
		return treesearch.TreeKD, nil
	case "cover":
		return treesearch.TreeCover, nil
	case "rstar":
		return treesearch.TreeRStar, nil
	default:
		return 0, fmt.Errorf("unknown tree kind %q (want kd, cover or rstar)", name)
	}
}

func parseMode(name string) (treesearch.Mode, error) {
	switch name {
	case "", "dual":
		return treesearch.ModeDual, nil
	case "single":
		return treesearch.ModeSingle, nil
	case "naive":
		return treesearch.ModeNaive, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want dual, single or naive)", name)
	}
}

// loadMatrix routes relative local paths through the job's throttled store
// when one is configured. URLs and absolute paths resolve normally.
func loadMatrix(ctx context.Context, store blobstore.BlobStore, path string) (*matrix.Dense, error) {
	if store != nil && isRelativeLocal(path) {
		return data.Load(ctx, path, data.WithStore(store))
	}

	return data.Load(ctx, path)
}

func saveMatrix(ctx context.Context, store blobstore.BlobStore, path string, m *matrix.Dense) error {
	if store != nil && isRelativeLocal(path) {
		return data.Save(ctx, path, m, data.WithStore(store))
	}

	return data.Save(ctx, path, m)
}

func isRelativeLocal(path string) bool {
	return !strings.Contains(path, "://") && !filepath.IsAbs(path)
}

func matrixBytes(m *matrix.Dense) int64 {
	return int64(m.Rows()) * int64(m.Cols()) * 8
}

// writeReport writes one line per search. Report IO counts against the
// job's IO budget like any other write.
func writeReport(ctx context.Context, ctrl *resource.Controller, path string, results []searchResult) error {
	if path == "" {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(resource.NewWriter(ctx, ctrl, f))
	for _, r := range results {
		status := "ok"
		if r.err != nil {
			status = r.err.Error()
		}

		fmt.Fprintf(w, "%s\t%s\t%s\n", r.name, r.duration.Round(time.Millisecond), status)
	}

	return w.Flush()
}
