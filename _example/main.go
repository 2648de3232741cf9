package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hupe1980/treesearch"
	"github.com/hupe1980/treesearch/testutil"
)

func main() {
	ctx := context.Background()

	seed := int64(4711)
	dim := 8
	size := 50000
	queries := 1000
	k := 10

	rng := testutil.NewRNG(seed)
	ref := rng.ClusteredMatrix(size, dim, 50, 0.05)
	query := rng.UniformMatrix(queries, dim)

	fmt.Println("--- Build ---")
	fmt.Println("Dimension:", dim)
	fmt.Println("Size:", size)

	start := time.Now()

	knn, err := treesearch.NewKNN(ref)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Seconds: %.2f\n\n", time.Since(start).Seconds())

	fmt.Println("--- Dual-tree ---")

	start = time.Now()

	indices, distances, err := knn.Search(ctx, query, k)
	if err != nil {
		log.Fatal(err)
	}

	end := time.Since(start)

	printResult(indices[0], distances[0])

	fmt.Printf("Seconds: %.8f\n\n", end.Seconds())

	fmt.Println("--- Naive ---")

	naive, err := treesearch.NewKNN(ref, treesearch.WithMode(treesearch.ModeNaive))
	if err != nil {
		log.Fatal(err)
	}

	start = time.Now()

	naiveIndices, naiveDistances, err := naive.Search(ctx, query, k)
	if err != nil {
		log.Fatal(err)
	}

	end = time.Since(start)

	printResult(naiveIndices[0], naiveDistances[0])

	fmt.Printf("Seconds: %.8f\n\n", end.Seconds())

	for q := range indices {
		for i := range indices[q] {
			if indices[q][i] != naiveIndices[q][i] {
				log.Fatalf("query %d slot %d: dual-tree found %d, naive found %d",
					q, i, indices[q][i], naiveIndices[q][i])
			}
		}
	}

	fmt.Println("Dual-tree and naive results match.")
}

func printResult(indices []int, distances []float64) {
	for i := range indices {
		fmt.Printf("Index: %d, Distance: %.4f\n", indices[i], distances[i])
	}
}
