// Package invindex provides an inverted property index over container
// items using Roaring Bitmaps.
//
// Architecture:
//   - Primary storage: item records keyed by container identifier
//   - Slot table: dense uint32 slots assigned per identifier, so bitmaps
//     stay compact for arbitrary identifier types
//   - Inverted index: property -> value key -> bitmap of slots
//
// Filter sets whose members all compile to bitmap queries are answered by
// set operations; everything else falls back to evaluating predicates
// against the stored items. Both paths are observationally equivalent.
package invindex

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/dataview-go/dataview/filter"
	"github.com/dataview-go/dataview/item"
)

// Index is a thread-safe inverted property index.
type Index[ID comparable] struct {
	mu sync.RWMutex

	items map[ID]item.Item

	// Slot assignment. Freed slots are reused so bitmaps stay dense.
	slots map[ID]uint32
	free  []uint32
	next  uint32

	// universe holds every live slot; it makes negation compilable.
	universe *roaring.Bitmap

	// inverted maps property -> value key -> bitmap of slots.
	inverted map[string]map[string]*roaring.Bitmap
}

// New creates an empty index.
func New[ID comparable]() *Index[ID] {
	return &Index[ID]{
		items:    make(map[ID]item.Item),
		slots:    make(map[ID]uint32),
		universe: roaring.New(),
		inverted: make(map[string]map[string]*roaring.Bitmap),
	}
}

// Set stores the item for an identifier and updates the inverted index,
// replacing any previous record.
func (x *Index[ID]) Set(id ID, it item.Item) {
	if it == nil {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	slot, ok := x.slots[id]
	if !ok {
		slot = x.allocSlotLocked()
		x.slots[id] = slot
		x.universe.Add(slot)
	} else if old, exists := x.items[id]; exists {
		x.removePostingsLocked(slot, old)
	}

	x.items[id] = it
	x.addPostingsLocked(slot, it)
}

// Get retrieves the item for an identifier.
func (x *Index[ID]) Get(id ID) (item.Item, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	it, ok := x.items[id]
	return it, ok
}

// Delete removes an identifier and its postings.
func (x *Index[ID]) Delete(id ID) {
	x.mu.Lock()
	defer x.mu.Unlock()

	slot, ok := x.slots[id]
	if !ok {
		return
	}
	if it, exists := x.items[id]; exists {
		x.removePostingsLocked(slot, it)
	}
	delete(x.items, id)
	delete(x.slots, id)
	x.universe.Remove(slot)
	x.free = append(x.free, slot)
}

// Clear removes everything.
func (x *Index[ID]) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.items = make(map[ID]item.Item)
	x.slots = make(map[ID]uint32)
	x.free = nil
	x.next = 0
	x.universe = roaring.New()
	x.inverted = make(map[string]map[string]*roaring.Bitmap)
}

// Len returns the number of stored items.
func (x *Index[ID]) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return len(x.items)
}

// Slot returns the bitmap slot assigned to an identifier.
func (x *Index[ID]) Slot(id ID) (uint32, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	slot, ok := x.slots[id]
	return slot, ok
}

func (x *Index[ID]) allocSlotLocked() uint32 {
	if n := len(x.free); n > 0 {
		slot := x.free[n-1]
		x.free = x.free[:n-1]
		return slot
	}
	slot := x.next
	x.next++
	return slot
}

func (x *Index[ID]) addPostingsLocked(slot uint32, it item.Item) {
	for prop, value := range it {
		valueMap, ok := x.inverted[prop]
		if !ok {
			valueMap = make(map[string]*roaring.Bitmap)
			x.inverted[prop] = valueMap
		}

		valueKey := value.Key()
		bitmap, ok := valueMap[valueKey]
		if !ok {
			bitmap = roaring.New()
			valueMap[valueKey] = bitmap
		}
		bitmap.Add(slot)
	}
}

func (x *Index[ID]) removePostingsLocked(slot uint32, it item.Item) {
	for prop, value := range it {
		valueMap, ok := x.inverted[prop]
		if !ok {
			continue
		}

		valueKey := value.Key()
		bitmap, ok := valueMap[valueKey]
		if !ok {
			continue
		}

		bitmap.Remove(slot)

		// Clean up empty bitmaps.
		if bitmap.IsEmpty() {
			delete(valueMap, valueKey)
			if len(valueMap) == 0 {
				delete(x.inverted, prop)
			}
		}
	}
}

// Compile compiles a filter set into a bitmap of matching slots. It returns
// nil when any member cannot be answered from the index alone; the caller
// then falls back to predicate evaluation.
//
// Compilable members: Compare with OpEqual or OpIn over non-numeric
// operands, And and Or of compilable children, and Not of a compilable
// child. Numeric operands are excluded because equality treats ints and
// floats as one domain while posting keys separate them by kind; the
// predicate path answers those exactly.
func (x *Index[ID]) Compile(fs *filter.Set) *roaring.Bitmap {
	if fs == nil || fs.Len() == 0 {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var result *roaring.Bitmap
	for _, f := range fs.All() {
		fb, ok := x.compileLocked(f)
		if !ok {
			return nil
		}

		if result == nil {
			result = fb
		} else {
			result.And(fb)
		}
		// Early termination once nothing can match.
		if result.IsEmpty() {
			return result
		}
	}
	return result
}

func (x *Index[ID]) compileLocked(f filter.Filter) (*roaring.Bitmap, bool) {
	switch f := f.(type) {
	case *filter.Compare:
		switch f.Op {
		case filter.OpEqual:
			if !indexable(f.Operand) {
				return nil, false
			}
			return x.valueBitmapLocked(f.PropertyID, f.Operand), true
		case filter.OpIn:
			operands, ok := f.Operand.AsArray()
			if !ok {
				return nil, false
			}
			union := roaring.New()
			for _, v := range operands {
				if !indexable(v) {
					return nil, false
				}
				union.Or(x.valueBitmapLocked(f.PropertyID, v))
			}
			return union, true
		default:
			return nil, false
		}

	case *filter.And:
		// An empty conjunction passes every item.
		result := x.universe.Clone()
		for _, c := range f.Children {
			cb, ok := x.compileLocked(c)
			if !ok {
				return nil, false
			}
			result.And(cb)
		}
		return result, true

	case *filter.Or:
		result := roaring.New()
		for _, c := range f.Children {
			cb, ok := x.compileLocked(c)
			if !ok {
				return nil, false
			}
			result.Or(cb)
		}
		return result, true

	case *filter.Not:
		inner, ok := x.compileLocked(f.Inner)
		if !ok {
			return nil, false
		}
		// Items missing the property fail the inner filter, so they pass
		// the negation. The universe complement covers exactly that.
		result := x.universe.Clone()
		result.AndNot(inner)
		return result, true

	default:
		return nil, false
	}
}

// indexable reports whether equality on the value can be answered by a
// posting key lookup. Ints and floats cannot: equality crosses the two
// kinds but posting keys do not.
func indexable(v item.Value) bool {
	switch v.Kind {
	case item.KindInt, item.KindFloat:
		return false
	case item.KindArray:
		for _, e := range v.A {
			if !indexable(e) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// valueBitmapLocked returns a copy-safe bitmap for property == value.
// Missing postings yield an empty bitmap.
func (x *Index[ID]) valueBitmapLocked(prop string, value item.Value) *roaring.Bitmap {
	valueMap, ok := x.inverted[prop]
	if !ok {
		return roaring.New()
	}
	bitmap, ok := valueMap[value.Key()]
	if !ok {
		return roaring.New()
	}
	return bitmap.Clone()
}

// Matcher returns a membership test for the filter set, or nil when the set
// is empty. The fast path answers from a compiled bitmap; the fallback
// evaluates every filter against the stored item.
//
// The returned function captures the index state at call time; recompute it
// after mutations.
func (x *Index[ID]) Matcher(fs *filter.Set) func(ID) bool {
	if fs == nil || fs.Len() == 0 {
		return nil
	}

	if bitmap := x.Compile(fs); bitmap != nil {
		return func(id ID) bool {
			slot, ok := x.Slot(id)
			return ok && bitmap.Contains(slot)
		}
	}

	return func(id ID) bool {
		it, ok := x.Get(id)
		return ok && fs.PassesAll(it)
	}
}

// Stats describes index shape and size.
type Stats struct {
	ItemCount        int    // Stored items
	PropertyCount    int    // Indexed properties
	BitmapCount      int    // Posting lists
	TotalCardinality uint64 // Sum of posting list cardinalities
	MemoryBytes      uint64 // Estimated posting memory
}

// GetStats returns statistics about the index.
func (x *Index[ID]) GetStats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	stats := Stats{
		ItemCount:     len(x.items),
		PropertyCount: len(x.inverted),
	}
	for _, valueMap := range x.inverted {
		for _, bitmap := range valueMap {
			stats.BitmapCount++
			stats.TotalCardinality += bitmap.GetCardinality()
			stats.MemoryBytes += bitmap.GetSizeInBytes()
		}
	}
	return stats
}
