package commands

import (
	"github.com/hupe1980/treesearch"
	"github.com/hupe1980/treesearch/data"
	"github.com/spf13/cobra"
)

var (
	knnReference    string
	knnQuery        string
	knnK            int
	knnLeafSize     int
	knnNaive        bool
	knnSingleMode   bool
	knnCoverTree    bool
	knnRTree        bool
	knnRandomBasis  bool
	knnSeed         int64
	knnDistancesOut string
	knnNeighborsOut string
)

var knnCmd = &cobra.Command{
	Use:   "knn",
	Short: "Find the k nearest neighbors of every query point",
	Long: `Find the k nearest reference points of every query point by Euclidean
distance. Results are exact for every tree and traversal mode.

Without --query the reference set is searched against itself and each
point's own entry is excluded.

Examples:
  treesearch knn --reference ref.csv -k 3 --distances-out d.csv --neighbors-out n.csv
  treesearch knn --reference ref.bin.gz --query q.bin.gz -k 10 --cover-tree \
      --distances-out d.csv --neighbors-out n.csv
  treesearch knn --reference s3://datasets/ref.bin -k 5 --single-mode \
      --distances-out d.csv --neighbors-out n.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKNN(cmd)
	},
}

func init() {
	knnCmd.Flags().StringVarP(&knnReference, "reference", "r", "", "reference dataset file or URL")
	knnCmd.Flags().StringVarP(&knnQuery, "query", "q", "", "query dataset file or URL (defaults to the reference set)")
	knnCmd.Flags().IntVarP(&knnK, "k", "k", 0, "number of neighbors to find")
	knnCmd.Flags().IntVarP(&knnLeafSize, "leaf-size", "l", 20, "leaf size for kd- and R*-trees")
	knnCmd.Flags().BoolVarP(&knnNaive, "naive", "N", false, "brute-force search instead of a tree traversal")
	knnCmd.Flags().BoolVarP(&knnSingleMode, "single-mode", "S", false, "single-tree traversal instead of dual-tree")
	knnCmd.Flags().BoolVar(&knnCoverTree, "cover-tree", false, "use a cover tree instead of a kd-tree")
	knnCmd.Flags().BoolVar(&knnRTree, "r-tree", false, "use an R*-tree instead of a kd-tree")
	knnCmd.Flags().BoolVar(&knnRandomBasis, "random-basis", false, "project the data onto a random orthonormal basis before building")
	knnCmd.Flags().Int64VarP(&knnSeed, "seed", "s", 0, "random seed (0 uses the current time)")
	knnCmd.Flags().StringVarP(&knnDistancesOut, "distances-out", "d", "", "output file for neighbor distances")
	knnCmd.Flags().StringVarP(&knnNeighborsOut, "neighbors-out", "n", "", "output file for neighbor indices")

	_ = knnCmd.MarkFlagRequired("reference")
	_ = knnCmd.MarkFlagRequired("k")
	_ = knnCmd.MarkFlagRequired("distances-out")
	_ = knnCmd.MarkFlagRequired("neighbors-out")
}

func runKNN(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := newLogger()

	ref, err := data.Load(ctx, knnReference)
	if err != nil {
		return err
	}

	logger.Info("loaded reference data", "path", knnReference, "rows", ref.Rows(), "cols", ref.Cols())

	opts := []treesearch.Option{
		treesearch.WithTree(pickTree(ctx, logger, knnCoverTree, knnRTree)),
		treesearch.WithMode(pickMode(ctx, logger, knnNaive, knnSingleMode, "single-mode")),
		treesearch.WithLeafSize(knnLeafSize),
		treesearch.WithLogger(logger),
	}

	if knnRandomBasis {
		opts = append(opts, treesearch.WithRandomBasis(pickSeed(knnSeed)))
	}

	knn, err := treesearch.NewKNN(ref, opts...)
	if err != nil {
		return err
	}

	var (
		indices   [][]int
		distances [][]float64
	)

	if knnQuery != "" {
		query, err := data.Load(ctx, knnQuery)
		if err != nil {
			return err
		}

		logger.Info("loaded query data", "path", knnQuery, "rows", query.Rows(), "cols", query.Cols())

		indices, distances, err = knn.Search(ctx, query, knnK)
		if err != nil {
			return err
		}
	} else {
		logger.Info("using reference dataset as query dataset")

		indices, distances, err = knn.SearchSelf(ctx, knnK)
		if err != nil {
			return err
		}
	}

	dm, err := valuesToMatrix(distances)
	if err != nil {
		return err
	}

	if err := data.Save(ctx, knnDistancesOut, dm); err != nil {
		return err
	}

	return data.Save(ctx, knnNeighborsOut, indicesToMatrix(indices))
}
