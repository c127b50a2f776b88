package dataview

import (
	"fmt"
	"slices"
	"time"
)

// Sortable reports whether the container can sort. Containers built with
// WithSorter(nil) are unsortable.
func (c *Container[ID]) Sortable() bool {
	return c.sorter != nil
}

// Sort reorders the full sequence by the given properties and rebuilds
// the visible sequence. ascending[i] applies to propertyIDs[i]; missing
// entries default to ascending. The sort is stable, so the insertion
// order of equal items survives.
func (c *Container[ID]) Sort(propertyIDs []string, ascending []bool) error {
	start := time.Now()
	err := c.sort(propertyIDs, ascending)
	c.metrics.RecordSort(time.Since(start), err)
	c.logger.LogSort(propertyIDs, err)
	return err
}

func (c *Container[ID]) sort(propertyIDs []string, ascending []bool) error {
	if c.sorter == nil {
		return ErrSortingUnsupported
	}
	c.sorter.Bind(propertyIDs, ascending)

	order := slices.Clone(c.seq.Full())
	slices.SortStableFunc(order, func(a, b ID) int {
		ia, _ := c.store.Get(a)
		ib, _ := c.store.Get(b)
		switch {
		case c.sorter.Less(ia, ib):
			return -1
		case c.sorter.Less(ib, ia):
			return 1
		default:
			return 0
		}
	})

	if c.journal != nil {
		if err := c.journal.LogReorder(order); err != nil {
			return fmt.Errorf("dataview: journal reorder: %w", err)
		}
	}
	c.seq.Reorder(order)

	if c.seq.Filtered() {
		// The visible sequence is derived, so its order only changes
		// when the refilter says so.
		if c.refilter() {
			c.fire(ItemSetChange[ID]{Kind: ChangeSorted, Index: -1, Len: c.seq.Len()})
		}
	} else {
		c.fire(ItemSetChange[ID]{Kind: ChangeSorted, Index: -1, Len: c.seq.Len()})
	}
	c.maybeCheckpoint()
	return nil
}
