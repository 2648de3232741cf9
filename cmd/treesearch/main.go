// Command treesearch runs exact nearest-neighbor and max-kernel searches
// over spatial trees from the command line.
//
// Usage:
//
//	treesearch knn --reference ref.csv -k 3 --distances-out d.csv --neighbors-out n.csv
//	treesearch mks --reference ref.csv -k 1 --kernel linear --kernels-out k.csv
//	treesearch run --config job.yaml
//	treesearch version
package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/treesearch/cmd/treesearch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
