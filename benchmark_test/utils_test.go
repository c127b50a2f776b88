package benchmark_test

import (
	"testing"

	"github.com/dataview-go/dataview"
	"github.com/dataview-go/dataview/item"
	"github.com/dataview-go/dataview/testutil"
)

// buildContainer returns a container preloaded with n generated items
// under sequential identifiers.
func buildContainer(b *testing.B, n int) *dataview.Container[int] {
	b.Helper()

	c, err := dataview.Indexed[int]().Build()
	if err != nil {
		b.Fatal(err)
	}
	rng := testutil.NewRNG(1)
	for i, it := range rng.Items(n) {
		if err := c.Add(i, it); err != nil {
			b.Fatal(err)
		}
	}
	return c
}

// generateItems returns n deterministic items without touching the
// timed region.
func generateItems(n int) []item.Item {
	return testutil.NewRNG(1).Items(n)
}
