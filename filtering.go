package dataview

import (
	"time"

	"github.com/dataview-go/dataview/filter"
)

// AddFilter activates a filter and rebuilds the visible sequence. Adding
// a filter already in the set (same key) is a no-op. Subscribers are
// notified only when the visible sequence actually changed.
func (c *Container[ID]) AddFilter(f filter.Filter) {
	start := time.Now()
	c.filters.Add(f)
	changed := c.filterAll()
	c.metrics.RecordFilter(time.Since(start), changed)
	c.logger.LogFilter(c.filters.Len(), c.seq.Len(), changed)
}

// RemoveAllFilters deactivates every filter. With no filters active the
// visible sequence is the full sequence again.
func (c *Container[ID]) RemoveAllFilters() {
	if c.filters.Len() == 0 {
		return
	}
	start := time.Now()
	c.filters.Clear()
	changed := c.filterAll()
	c.metrics.RecordFilter(time.Since(start), changed)
	c.logger.LogFilter(c.filters.Len(), c.seq.Len(), changed)
}

// RemoveFilters deactivates every filter applying to a property and
// returns them. A filter spanning several properties is removed as soon
// as one of them matches. When no filter applies, the view is left
// untouched.
func (c *Container[ID]) RemoveFilters(propertyID string) []filter.Filter {
	removed := c.filters.RemoveByProperty(propertyID)
	if len(removed) == 0 {
		return nil
	}
	start := time.Now()
	changed := c.filterAll()
	c.metrics.RecordFilter(time.Since(start), changed)
	c.logger.LogFilter(c.filters.Len(), c.seq.Len(), changed)
	return removed
}

// Filters returns the active filters in activation order.
func (c *Container[ID]) Filters() []filter.Filter {
	return c.filters.All()
}

// filterAll rebuilds the visible sequence and notifies subscribers when
// it changed.
func (c *Container[ID]) filterAll() bool {
	changed := c.refilter()
	if changed {
		c.fire(ItemSetChange[ID]{Kind: ChangeFiltered, Index: -1, Len: c.seq.Len()})
	}
	return changed
}
