package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dataview-go/dataview"
	"github.com/dataview-go/dataview/filter"
	"github.com/dataview-go/dataview/item"
	"github.com/dataview-go/dataview/journal"
	"github.com/dataview-go/dataview/testutil"
)

func main() {
	seed := int64(4711)
	size := 50000

	dir, err := os.MkdirTemp("", "dataview-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	journalPath := filepath.Join(dir, "orders.dvj")
	snapshotPath := filepath.Join(dir, "orders.dvw")

	metrics := &dataview.BasicMetricsCollector{}

	c, err := dataview.Indexed[int]().
		Metrics(metrics).
		Journal(journalPath, func(o *journal.Options) {
			o.SyncMode = journal.SyncOnClose
			o.AutoCheckpointEntries = 100000
		}).
		SnapshotPath(snapshotPath).
		Build()
	if err != nil {
		log.Fatal(err)
	}

	rng := testutil.NewRNG(seed)
	items := rng.Items(size)

	fmt.Println("--- Add ---")
	fmt.Println("Size:", size)

	start := time.Now()

	for i, it := range items {
		if err := c.Add(i, it); err != nil {
			log.Fatal(err)
		}
	}

	end := time.Since(start)

	fmt.Printf("Seconds: %.2f (%.0f items/s)\n\n", end.Seconds(), float64(size)/end.Seconds())

	fmt.Println("--- Filter ---")

	start = time.Now()

	c.AddFilter(filter.Eq("status", item.String("open")))
	c.AddFilter(filter.Gte("priority", item.Int(3)))

	end = time.Since(start)

	fmt.Printf("Visible: %d of %d\n", c.Len(), c.TotalLen())
	fmt.Printf("Seconds: %.4f\n\n", end.Seconds())

	fmt.Println("--- Sort ---")

	start = time.Now()

	if err := c.Sort([]string{"region", "total"}, []bool{true, false}); err != nil {
		log.Fatal(err)
	}

	end = time.Since(start)

	printHead(c, 5)
	fmt.Printf("Seconds: %.4f\n\n", end.Seconds())

	fmt.Println("--- Snapshot ---")

	start = time.Now()

	if err := c.Checkpoint(); err != nil {
		log.Fatal(err)
	}
	if err := c.Close(); err != nil {
		log.Fatal(err)
	}

	end = time.Since(start)

	fmt.Printf("Seconds: %.4f\n\n", end.Seconds())

	fmt.Println("--- Rebuild ---")

	start = time.Now()

	c, err = dataview.Indexed[int]().
		Journal(journalPath).
		SnapshotPath(snapshotPath).
		Build()
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	end = time.Since(start)

	fmt.Printf("Items: %d\n", c.TotalLen())
	fmt.Printf("Seconds: %.4f\n\n", end.Seconds())

	stats := metrics.GetStats()
	fmt.Println("--- Metrics ---")
	fmt.Printf("Adds: %d (avg %s)\n", stats.AddCount, time.Duration(stats.AddAvgNanos))
	fmt.Printf("Filters: %d (avg %s)\n", stats.FilterCount, time.Duration(stats.FilterAvgNanos))
	fmt.Printf("Sorts: %d\n", stats.SortCount)
	fmt.Printf("Snapshots: %d\n", stats.SnapshotCount)
}

func printHead(c *dataview.Container[int], n int) {
	for i := 0; i < n && i < c.Len(); i++ {
		id, _ := c.IDByIndex(i)
		it, _ := c.Item(id)
		total := "-"
		if v, ok := it.Get("total"); ok {
			total = fmt.Sprintf("%.2f", v.F64)
		}
		fmt.Printf("ID: %d, Region: %s, Total: %s\n", id, it["region"].StringValue(), total)
	}
}
