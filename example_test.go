package treesearch_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/treesearch"
	"github.com/hupe1980/treesearch/kernel"
	"github.com/hupe1980/treesearch/matrix"
)

// ExampleKNN finds the two nearest reference points for a single query.
func ExampleKNN() {
	ctx := context.Background()

	ref, err := matrix.FromRows([][]float64{{0, 0}, {1, 0}, {0, 1}, {5, 5}})
	if err != nil {
		log.Fatal(err)
	}

	queries, err := matrix.FromRows([][]float64{{0.1, 0.1}})
	if err != nil {
		log.Fatal(err)
	}

	knn, err := treesearch.NewKNN(ref)
	if err != nil {
		log.Fatal(err)
	}

	indices, distances, err := knn.Search(ctx, queries, 2)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(indices[0])
	fmt.Printf("%.3f %.3f\n", distances[0][0], distances[0][1])
	// Output:
	// [0 1]
	// 0.141 0.906
}

// ExampleKNN_searchSelf finds each point's nearest neighbor within one set.
func ExampleKNN_searchSelf() {
	ctx := context.Background()

	ref, err := matrix.FromRows([][]float64{{0, 0}, {0.5, 0}, {10, 10}})
	if err != nil {
		log.Fatal(err)
	}

	knn, err := treesearch.NewKNN(ref, treesearch.WithMode(treesearch.ModeSingle))
	if err != nil {
		log.Fatal(err)
	}

	indices, _, err := knn.SearchSelf(ctx, 1)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(indices)
	// Output: [[1] [0] [1]]
}

// ExampleMaxKernel finds the reference point with the largest kernel value.
func ExampleMaxKernel() {
	ctx := context.Background()

	ref, err := matrix.FromRows([][]float64{{1, 0}, {0, 1}, {2, 2}})
	if err != nil {
		log.Fatal(err)
	}

	queries, err := matrix.FromRows([][]float64{{1, 1}})
	if err != nil {
		log.Fatal(err)
	}

	mks, err := treesearch.NewMaxKernel(ref, kernel.NewLinear())
	if err != nil {
		log.Fatal(err)
	}

	indices, values, err := mks.Search(ctx, queries, 1)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(indices[0][0], values[0][0])
	// Output: 2 4
}
