package benchmark_test

import (
	"fmt"
	"testing"

	"github.com/dataview-go/dataview/filter"
	"github.com/dataview-go/dataview/item"
)

// The equality filter walks the inverted index; the function filter
// forces a full scan. Comparing the two shows what the index buys.
func BenchmarkRefilter(b *testing.B) {
	for _, size := range []int{1000, 10000, 100000} {
		b.Run(fmt.Sprintf("IndexedEq/n=%d", size), func(b *testing.B) {
			benchmarkRefilter(b, size, func() filter.Filter {
				return filter.Eq("status", item.String("open"))
			})
		})

		b.Run(fmt.Sprintf("IndexedIn/n=%d", size), func(b *testing.B) {
			benchmarkRefilter(b, size, func() filter.Filter {
				return filter.In("region", item.String("eu-west"), item.String("apac"))
			})
		})

		b.Run(fmt.Sprintf("ScanFunc/n=%d", size), func(b *testing.B) {
			benchmarkRefilter(b, size, func() filter.Filter {
				return &filter.Func{ID: "open", Properties: []string{"status"}, Fn: func(it item.Item) bool {
					v, _ := it.Get("status")
					return v.StringValue() == "open"
				}}
			})
		})

		b.Run(fmt.Sprintf("RangeLt/n=%d", size), func(b *testing.B) {
			benchmarkRefilter(b, size, func() filter.Filter {
				return filter.Lt("total", item.Float(50))
			})
		})
	}
}

func benchmarkRefilter(b *testing.B, size int, newFilter func() filter.Filter) {
	b.ReportAllocs()

	c := buildContainer(b, size)
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.AddFilter(newFilter())
		c.RemoveAllFilters()
	}
}

func BenchmarkFilteredNavigation(b *testing.B) {
	b.ReportAllocs()

	c := buildContainer(b, 100000)
	defer c.Close()
	c.AddFilter(filter.Eq("status", item.String("open")))

	visible := c.Len()
	if visible == 0 {
		b.Fatal("filter hid everything")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := c.IDByIndex(i % visible); !ok {
			b.Fatal("missing index")
		}
	}
}
