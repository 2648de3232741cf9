package benchmark_test

import (
	"strconv"
	"testing"

	"github.com/hupe1980/treesearch/matrix"
	"github.com/hupe1980/treesearch/tree/cover"
	"github.com/hupe1980/treesearch/tree/kd"
	"github.com/hupe1980/treesearch/tree/rstar"
)

// BenchmarkBuild measures tree construction across tree kinds.
func BenchmarkBuild(b *testing.B) {
	ref, _ := makeDatasets(sizeMedium, 1, dimMedium)

	b.Run("kd", func(b *testing.B) {
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, err := kd.New(ref); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("cover", func(b *testing.B) {
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, err := cover.New(ref); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("rstar", func(b *testing.B) {
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, err := rstar.New(ref); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkBuildScaling measures kd-tree construction scaling with dataset
// size.
func BenchmarkBuildScaling(b *testing.B) {
	sizes := []int{sizeSmall, sizeMedium, sizeLarge}

	for _, n := range sizes {
		ref, _ := makeDatasets(n, 1, dimMedium)

		b.Run("n="+strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := kd.New(ref); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkBuildLeafSize measures how leaf capacity trades build time for
// tree depth.
func BenchmarkBuildLeafSize(b *testing.B) {
	leafSizes := []int{1, 5, 20, 100}
	ref, _ := makeDatasets(sizeMedium, 1, dimMedium)

	for _, leafSize := range leafSizes {
		b.Run("leaf="+strconv.Itoa(leafSize), func(b *testing.B) {
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := kd.New(ref, kd.WithLeafSize(leafSize)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

var sinkMatrix *matrix.Dense

// BenchmarkPermutedCopy isolates the point reordering step every kd-tree
// build pays for.
func BenchmarkPermutedCopy(b *testing.B) {
	ref, _ := makeDatasets(sizeMedium, 1, dimMedium)

	perm := make([]int, ref.Rows())
	for i := range perm {
		perm[i] = (i * 7919) % ref.Rows()
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m, err := ref.PermutedCopy(perm)
		if err != nil {
			b.Fatal(err)
		}

		sinkMatrix = m
	}
}
