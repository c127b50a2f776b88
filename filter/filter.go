// Package filter defines the predicates that decide which items of a
// container are visible, plus the ordered set they live in.
//
// A filter tests one item at a time and declares which property identifiers
// its verdict may depend on. The dependency declaration lets a container
// skip refiltering when an update touches only unrelated properties.
package filter

import (
	"strings"

	"github.com/dataview-go/dataview/item"
)

// Filter decides whether an item is visible.
type Filter interface {
	// Passes reports whether the item passes the filter.
	Passes(it item.Item) bool

	// AppliesTo reports whether the filter verdict may depend on the given
	// property.
	AppliesTo(propertyID string) bool

	// Key returns a stable identity used for set deduplication and for
	// index compilation caching. Two filters with equal keys must be
	// observationally equivalent.
	Key() string
}

// Func adapts a plain predicate into a Filter.
//
// Properties lists the property identifiers the predicate reads; leave it
// empty when unknown, which makes the filter apply to every property.
type Func struct {
	// ID distinguishes this predicate from others; it becomes part of Key.
	ID         string
	Properties []string
	Fn         func(it item.Item) bool
}

// Passes implements Filter.
func (f *Func) Passes(it item.Item) bool { return f.Fn(it) }

// AppliesTo implements Filter.
func (f *Func) AppliesTo(propertyID string) bool {
	if len(f.Properties) == 0 {
		return true
	}
	for _, p := range f.Properties {
		if p == propertyID {
			return true
		}
	}
	return false
}

// Key implements Filter.
func (f *Func) Key() string { return "func:" + f.ID }

// Set is an ordered collection of filters deduplicated by Key. An item is
// visible only when it passes every filter in the set.
//
// Set is owned by a single container and is not safe for concurrent use.
type Set struct {
	filters []Filter
}

// NewSet creates a filter set.
func NewSet(filters ...Filter) *Set {
	s := &Set{}
	for _, f := range filters {
		s.Add(f)
	}
	return s
}

// Add appends a filter; a filter whose Key is already present is ignored.
// Reports whether the set changed.
func (s *Set) Add(f Filter) bool {
	if f == nil {
		return false
	}
	key := f.Key()
	for _, existing := range s.filters {
		if existing.Key() == key {
			return false
		}
	}
	s.filters = append(s.filters, f)
	return true
}

// RemoveByProperty removes every filter applying to the given property and
// returns the removed filters in set order.
func (s *Set) RemoveByProperty(propertyID string) []Filter {
	var removed []Filter
	kept := s.filters[:0]
	for _, f := range s.filters {
		if f.AppliesTo(propertyID) {
			removed = append(removed, f)
		} else {
			kept = append(kept, f)
		}
	}
	s.filters = kept
	return removed
}

// Clear removes all filters and returns them.
func (s *Set) Clear() []Filter {
	removed := s.filters
	s.filters = nil
	return removed
}

// Len returns the number of filters.
func (s *Set) Len() int { return len(s.filters) }

// All returns a copy of the filters in set order.
func (s *Set) All() []Filter {
	out := make([]Filter, len(s.filters))
	copy(out, s.filters)
	return out
}

// AppliesToAny reports whether any filter applies to one of the given
// properties.
func (s *Set) AppliesToAny(propertyIDs []string) bool {
	for _, f := range s.filters {
		for _, p := range propertyIDs {
			if f.AppliesTo(p) {
				return true
			}
		}
	}
	return false
}

// PassesAll reports whether the item passes every filter in the set.
// An empty set passes everything.
func (s *Set) PassesAll(it item.Item) bool {
	for _, f := range s.filters {
		if !f.Passes(it) {
			return false
		}
	}
	return true
}

// Key returns a stable identity for the whole set.
func (s *Set) Key() string {
	if len(s.filters) == 0 {
		return "set()"
	}
	parts := make([]string, len(s.filters))
	for i, f := range s.filters {
		parts[i] = f.Key()
	}
	return "set(" + strings.Join(parts, ",") + ")"
}
