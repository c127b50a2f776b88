package benchmark_test

import (
	"fmt"
	"testing"

	"github.com/dataview-go/dataview/filter"
	"github.com/dataview-go/dataview/item"
)

func BenchmarkSort(b *testing.B) {
	for _, size := range []int{1000, 10000, 100000} {
		b.Run(fmt.Sprintf("SingleKey/n=%d", size), func(b *testing.B) {
			benchmarkSort(b, size, []string{"total"}, []bool{true})
		})

		b.Run(fmt.Sprintf("MultiKey/n=%d", size), func(b *testing.B) {
			benchmarkSort(b, size, []string{"region", "status", "total"}, []bool{true, true, false})
		})
	}
}

func benchmarkSort(b *testing.B, size int, keys []string, dirs []bool) {
	b.ReportAllocs()

	c := buildContainer(b, size)
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Alternate direction so each pass reorders for real.
		dirs[0] = i%2 == 0
		if err := c.Sort(keys, dirs); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSortWhileFiltered(b *testing.B) {
	b.ReportAllocs()

	c := buildContainer(b, 100000)
	defer c.Close()
	c.AddFilter(filter.Eq("status", item.String("open")))

	dirs := []bool{true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dirs[0] = i%2 == 0
		if err := c.Sort([]string{"total"}, dirs); err != nil {
			b.Fatal(err)
		}
	}
}
