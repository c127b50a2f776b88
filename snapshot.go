package dataview

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/dataview-go/dataview/blobstore"
	"github.com/dataview-go/dataview/item"
	"github.com/dataview-go/dataview/resource"
	"github.com/dataview-go/dataview/snapshot"
)

// snapshot captures the full sequence and every record. Filters are
// runtime state and are not part of the capture.
func (c *Container[ID]) snapshot() *snapshot.Snapshot[ID] {
	order := slices.Clone(c.seq.Full())
	items := make([]item.Item, len(order))
	for i, id := range order {
		it, _ := c.store.Get(id)
		items[i] = it
	}
	return &snapshot.Snapshot[ID]{
		Order:     order,
		Items:     items,
		CreatedAt: time.Now(),
	}
}

// snapshotOptions seeds the snapshot encoding with the container codec;
// caller options run later and may override it.
func (c *Container[ID]) snapshotOptions(opts []snapshot.Option) []snapshot.Option {
	return append([]snapshot.Option{snapshot.WithCodec(c.codec)}, opts...)
}

// SaveTo writes a snapshot of the container to w.
func (c *Container[ID]) SaveTo(w io.Writer, opts ...snapshot.Option) error {
	start := time.Now()
	err := snapshot.Write(w, c.snapshot(), c.snapshotOptions(opts)...)
	c.metrics.RecordSnapshot(time.Since(start), err)
	c.logger.LogSnapshot(context.Background(), "stream", c.seq.TotalLen(), err)
	return err
}

// SaveToFile writes a snapshot to path atomically: the bytes go to a
// temporary file that replaces path only after a successful sync.
func (c *Container[ID]) SaveToFile(path string, opts ...snapshot.Option) error {
	start := time.Now()
	err := snapshot.WriteFile(path, c.snapshot(), c.snapshotOptions(opts)...)
	c.metrics.RecordSnapshot(time.Since(start), err)
	c.logger.LogSnapshot(context.Background(), path, c.seq.TotalLen(), err)
	return err
}

// SaveToStore writes a snapshot to a blob store under name. Writes are
// rate limited when the container carries a resource controller.
func (c *Container[ID]) SaveToStore(ctx context.Context, store blobstore.Store, name string, opts ...snapshot.Option) error {
	start := time.Now()
	err := c.saveToStore(ctx, store, name, opts...)
	c.metrics.RecordSnapshot(time.Since(start), err)
	c.logger.LogSnapshot(ctx, name, c.seq.TotalLen(), err)
	return err
}

func (c *Container[ID]) saveToStore(ctx context.Context, store blobstore.Store, name string, opts ...snapshot.Option) error {
	wb, err := store.Create(ctx, name)
	if err != nil {
		return err
	}

	var w io.Writer = wb
	if c.resources != nil {
		w = resource.NewRateLimitedWriter(ctx, wb, c.resources)
	}
	if err := snapshot.Write(w, c.snapshot(), c.snapshotOptions(opts)...); err != nil {
		wb.Close()
		return err
	}
	if err := wb.Sync(); err != nil {
		wb.Close()
		return err
	}
	return wb.Close()
}

// restore replays a snapshot into an empty container. No journal entries
// are written and no subscribers exist yet, so this is a silent rebuild.
func (c *Container[ID]) restore(snap *snapshot.Snapshot[ID]) {
	for i, id := range snap.Order {
		c.seq.Append(id)
		c.store.Set(id, snap.Items[i])
	}
}

// Load reads a snapshot from r into a new container.
func Load[ID comparable](r io.Reader, optFns ...Option) (*Container[ID], error) {
	snap, err := snapshot.Read[ID](r)
	if err != nil {
		return nil, err
	}
	c := New[ID](optFns...)
	c.restore(snap)
	return c, nil
}

// LoadFromFile reads a snapshot file into a new container.
func LoadFromFile[ID comparable](path string, optFns ...Option) (*Container[ID], error) {
	snap, err := snapshot.ReadFile[ID](path)
	if err != nil {
		return nil, err
	}
	c := New[ID](optFns...)
	c.restore(snap)
	return c, nil
}

// LoadFromStore reads a snapshot blob into a new container. Reads are
// rate limited when the options carry a resource controller.
func LoadFromStore[ID comparable](ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*Container[ID], error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	c := New[ID](optFns...)
	var r io.Reader = rc
	if c.resources != nil {
		r = resource.NewRateLimitedReader(ctx, rc, c.resources)
	}
	snap, err := snapshot.Read[ID](r)
	if err != nil {
		return nil, err
	}
	c.restore(snap)
	return c, nil
}
