package dataview

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/dataview-go/dataview/codec"
	"github.com/dataview-go/dataview/filter"
	"github.com/dataview-go/dataview/idseq"
	"github.com/dataview-go/dataview/invindex"
	"github.com/dataview-go/dataview/item"
	"github.com/dataview-go/dataview/journal"
	"github.com/dataview-go/dataview/resource"
	"github.com/dataview-go/dataview/sorter"
)

// Container is an ordered collection of identified items with filtering,
// sorting, and change notification.
//
// All positional operations (Len, IndexOfID, navigation) work on the
// visible sequence; an item hidden by a filter stays in the container and
// remains retrievable via Item.
type Container[ID comparable] struct {
	seq     *idseq.List[ID]
	store   *invindex.Index[ID]
	filters *filter.Set
	sorter  sorter.Sorter

	codec        codec.Codec
	metrics      MetricsCollector
	logger       *Logger
	resources    *resource.Controller
	journal      *journal.Journal[ID]
	snapshotPath string

	subscribers []subscriber[ID]
	nextToken   int
}

// New creates an empty container.
//
// For journal-backed containers use the Indexed builder, which needs the
// identifier type to open the journal.
func New[ID comparable](optFns ...Option) *Container[ID] {
	opts := applyOptions(optFns)

	return &Container[ID]{
		seq:          idseq.New[ID](),
		store:        invindex.New[ID](),
		filters:      filter.NewSet(),
		sorter:       opts.sorter,
		codec:        opts.codec,
		metrics:      opts.metricsCollector,
		logger:       opts.logger,
		resources:    opts.resources,
		snapshotPath: opts.snapshotPath,
	}
}

// Len returns the number of visible items.
func (c *Container[ID]) Len() int {
	return c.seq.Len()
}

// TotalLen returns the number of items in the container, filtered out or
// not.
func (c *Container[ID]) TotalLen() int {
	return c.seq.TotalLen()
}

// ContainsID reports whether id is visible. An item hidden by a filter is
// not contained in the view it exposes.
func (c *Container[ID]) ContainsID(id ID) bool {
	return c.seq.Contains(id)
}

// Item retrieves the record for an identifier, visible or not.
func (c *Container[ID]) Item(id ID) (item.Item, bool) {
	return c.store.Get(id)
}

// NextID returns the identifier following id in the visible sequence.
func (c *Container[ID]) NextID(id ID) (ID, bool) {
	return c.seq.Next(id)
}

// PrevID returns the identifier preceding id in the visible sequence.
func (c *Container[ID]) PrevID(id ID) (ID, bool) {
	return c.seq.Prev(id)
}

// FirstID returns the first visible identifier.
func (c *Container[ID]) FirstID() (ID, bool) {
	return c.seq.First()
}

// LastID returns the last visible identifier.
func (c *Container[ID]) LastID() (ID, bool) {
	return c.seq.Last()
}

// IsFirstID reports whether id is the first visible identifier.
func (c *Container[ID]) IsFirstID(id ID) bool {
	return c.seq.IsFirst(id)
}

// IsLastID reports whether id is the last visible identifier.
func (c *Container[ID]) IsLastID(id ID) bool {
	return c.seq.IsLast(id)
}

// IDByIndex returns the identifier at a visible index.
func (c *Container[ID]) IDByIndex(index int) (ID, bool) {
	return c.seq.ByIndex(index)
}

// IndexOfID returns the visible index of an identifier, -1 when not
// visible.
func (c *Container[ID]) IndexOfID(id ID) int {
	return c.seq.IndexOf(id)
}

// IDs returns a copy of the visible sequence.
func (c *Container[ID]) IDs() []ID {
	return slices.Clone(c.seq.Visible())
}

// IDRange returns a copy of the visible subsequence [start, start+count),
// clamped at the visible end.
func (c *Container[ID]) IDRange(start, count int) ([]ID, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrInvalidPosition, count)
	}
	ids, ok := c.seq.Range(start, count)
	if !ok {
		return nil, &PositionError{Index: start, Len: c.seq.Len()}
	}
	return ids, nil
}

// Items returns an iterator over the visible items in order.
//
// The iterator works on a snapshot of the visible sequence taken when
// iteration starts; mutations during iteration affect later iterations
// only.
func (c *Container[ID]) Items() iter.Seq2[ID, item.Item] {
	return func(yield func(ID, item.Item) bool) {
		for _, id := range slices.Clone(c.seq.Visible()) {
			it, ok := c.store.Get(id)
			if !ok {
				continue
			}
			if !yield(id, it) {
				return
			}
		}
	}
}

// Add appends an item at the end of the full sequence.
func (c *Container[ID]) Add(id ID, it item.Item) error {
	start := time.Now()
	err := c.addAt(c.seq.TotalLen(), id, it)
	c.metrics.RecordAdd(time.Since(start), err)
	c.logger.LogAdd(id, err)
	return err
}

// AddFirst inserts an item at the beginning of the full sequence, before
// any item, visible or not.
func (c *Container[ID]) AddFirst(id ID, it item.Item) error {
	start := time.Now()
	err := c.addAt(0, id, it)
	c.metrics.RecordAdd(time.Since(start), err)
	c.logger.LogAdd(id, err)
	return err
}

// AddAfter inserts an item immediately after prev in the full sequence.
// prev must be visible; anchoring on a filtered-out identifier fails with
// ErrIDNotVisible.
func (c *Container[ID]) AddAfter(prev, id ID, it item.Item) error {
	start := time.Now()
	err := c.addAfter(prev, id, it)
	c.metrics.RecordAdd(time.Since(start), err)
	c.logger.LogAdd(id, err)
	return err
}

func (c *Container[ID]) addAfter(prev, id ID, it item.Item) error {
	if !c.seq.Contains(prev) {
		return fmt.Errorf("%w: %v", ErrIDNotVisible, prev)
	}
	return c.addAt(c.seq.FullIndexOf(prev)+1, id, it)
}

// AddAt inserts an item at a visible index. Index 0 inserts at the very
// beginning of the full sequence; index Len() appends immediately after
// the last visible item; any other index places the item immediately
// after the visible item at index-1. When filters hide trailing items the
// insert is therefore not necessarily at the full-sequence end.
func (c *Container[ID]) AddAt(index int, id ID, it item.Item) error {
	start := time.Now()
	err := c.addAtVisible(index, id, it)
	c.metrics.RecordAdd(time.Since(start), err)
	c.logger.LogAdd(id, err)
	return err
}

func (c *Container[ID]) addAtVisible(index int, id ID, it item.Item) error {
	switch {
	case index < 0 || index > c.seq.Len():
		return &PositionError{Index: index, Len: c.seq.Len()}
	case index == 0:
		// Before any item, visible or not.
		return c.addAt(0, id, it)
	default:
		prev, _ := c.seq.ByIndex(index - 1)
		return c.addAt(c.seq.FullIndexOf(prev)+1, id, it)
	}
}

// addAt inserts at a full-sequence position, refilters, and notifies.
// The journal entry is appended before any state changes; a failed append
// aborts the insertion.
func (c *Container[ID]) addAt(position int, id ID, it item.Item) error {
	if it == nil {
		return ErrNilItem
	}
	if c.seq.InFull(id) {
		return fmt.Errorf("%w: %v", ErrDuplicateID, id)
	}
	if c.journal != nil {
		if err := c.journal.LogAddAt(position, id, it); err != nil {
			return fmt.Errorf("dataview: journal add: %w", err)
		}
	}

	c.seq.InsertAt(position, id)
	c.registerItem(id, it)

	if c.filters.Len() > 0 {
		// The new item is the only candidate change; the refilter
		// reports it exactly when the item is visible.
		if c.refilter() {
			c.fire(ItemSetChange[ID]{Kind: ChangeItemAdded, ID: id, Index: c.seq.IndexOf(id), Len: c.seq.Len()})
		}
	} else {
		c.fire(ItemSetChange[ID]{Kind: ChangeItemAdded, ID: id, Index: c.seq.IndexOf(id), Len: c.seq.Len()})
	}
	c.maybeCheckpoint()
	return nil
}

// registerItem stores the record and indexes its property values. The
// full sequence already holds the identifier when this runs. The record
// is cloned so later mutations of the caller's map cannot desync the
// postings from the stored values.
func (c *Container[ID]) registerItem(id ID, it item.Item) {
	c.store.Set(id, it.Clone())
}

// Update replaces the record for an identifier. When the new record
// equals the old one nothing happens. Refiltering runs only when an
// active filter declares a dependency on a property whose value changed.
func (c *Container[ID]) Update(id ID, it item.Item) error {
	start := time.Now()
	err := c.update(id, it)
	c.metrics.RecordUpdate(time.Since(start), err)
	c.logger.LogUpdate(id, err)
	return err
}

func (c *Container[ID]) update(id ID, it item.Item) error {
	if it == nil {
		return ErrNilItem
	}
	old, ok := c.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	if item.EqualItems(old, it) {
		return nil
	}
	if c.journal != nil {
		if err := c.journal.LogUpdate(id, it); err != nil {
			return fmt.Errorf("dataview: journal update: %w", err)
		}
	}

	c.store.Set(id, it.Clone())
	if c.filters.Len() > 0 && c.filters.AppliesToAny(item.ChangedProperties(old, it)) {
		c.refilter()
	}
	c.fire(ItemSetChange[ID]{Kind: ChangeItemUpdated, ID: id, Index: c.seq.IndexOf(id), Len: c.seq.Len()})
	c.maybeCheckpoint()
	return nil
}

// Remove strikes an item from the container. It reports whether an item
// was removed; a journal append failure leaves the container unchanged
// and reports false.
func (c *Container[ID]) Remove(id ID) bool {
	start := time.Now()
	removed, err := c.remove(id)
	c.metrics.RecordRemove(time.Since(start), removed)
	c.logger.LogRemove(id, removed, err)
	return removed
}

func (c *Container[ID]) remove(id ID) (bool, error) {
	if !c.seq.InFull(id) {
		return false, nil
	}
	if c.journal != nil {
		if err := c.journal.LogRemove(id); err != nil {
			return false, fmt.Errorf("dataview: journal remove: %w", err)
		}
	}

	wasVisible := c.seq.Contains(id)
	index := -1
	if wasVisible {
		index = c.seq.IndexOf(id)
	}
	c.seq.Remove(id)
	c.store.Delete(id)
	if wasVisible {
		c.fire(ItemSetChange[ID]{Kind: ChangeItemRemoved, ID: id, Index: index, Len: c.seq.Len()})
	}
	c.maybeCheckpoint()
	return true, nil
}

// Clear removes every item. Subscribers are always notified, even when
// the container was already empty.
func (c *Container[ID]) Clear() {
	count := c.seq.TotalLen()
	if c.journal != nil {
		if err := c.journal.LogClear(); err != nil {
			c.logger.LogClear(count, fmt.Errorf("dataview: journal clear: %w", err))
			return
		}
	}

	c.seq.Clear()
	c.store.Clear()
	c.logger.LogClear(count, nil)
	c.fire(ItemSetChange[ID]{Kind: ChangeCleared, Index: -1, Len: 0})
	c.maybeCheckpoint()
}

// refilter rebuilds the visible sequence from the full sequence and the
// active filter set, reporting whether the visible sequence changed. The
// membership test is bitmap-backed when every filter compiles against the
// inverted index.
func (c *Container[ID]) refilter() bool {
	pred := c.store.Matcher(c.filters)
	return c.seq.Refilter(pred, pred != nil)
}
