// Package dataview provides an embeddable, observable in-memory container
// of identified items for Go.
//
// Dataview keeps items in insertion order behind a filterable, sortable
// view with production-ready features including:
//
//   - Two-layer index model: the full sequence holds every identifier,
//     the visible sequence is derived from it by the active filters
//   - Ordered and indexed access: navigation, index lookup, ranges
//   - Typed property values with a Roaring Bitmap inverted index that
//     accelerates equality and membership filters
//   - Pluggable multi-key sorting with stable order
//   - Synchronous change notifications with precise change kinds
//   - Snapshot persistence with block compression and CRC32-C checksums
//   - Operation journal with torn-tail repair for crash recovery
//   - Blob store backends: local disk, memory, MinIO, S3 (+ DynamoDB
//     commit pointer)
//
// # Quick Start
//
// Create a container with the fluent builder:
//
//	c, err := dataview.Indexed[string]().
//	    Journal("./orders.dvj", func(o *journal.Options) {
//	        o.AutoCheckpointEntries = 10000
//	    }).
//	    SnapshotPath("./orders.dvw").
//	    Build()
//	if err != nil {
//	    panic(err)
//	}
//	defer c.Close()
//
// Add items and filter the view:
//
//	_ = c.Add("o-1", item.Item{
//	    "status": item.String("open"),
//	    "total":  item.Int(250),
//	})
//	c.AddFilter(filter.Eq("status", item.String("open")))
//
//	for id, it := range c.Items() {
//	    process(id, it)
//	}
//
// Observe changes:
//
//	unsubscribe := c.Subscribe(func(change dataview.ItemSetChange[string]) {
//	    log.Printf("%s at %d, %d visible", change.Kind, change.Index, change.Len)
//	})
//	defer unsubscribe()
//
// A Container performs no internal locking: callers serialize access.
// The supporting infrastructure (inverted index, journal, blob stores) is
// independently safe for concurrent use.
package dataview
