// Package sorter provides the pluggable ordering strategies used by
// container sorting.
package sorter

import (
	"github.com/dataview-go/dataview/item"
)

// Sorter orders items by a bound list of property/direction pairs. A
// container binds the sorter before each sort, then calls Less from a
// stable sort over its full sequence.
type Sorter interface {
	// Bind configures the sort keys. When ascending is shorter than
	// propertyIDs the remaining directions default to ascending.
	Bind(propertyIDs []string, ascending []bool)

	// Less reports whether item a orders strictly before item b under the
	// bound keys.
	Less(a, b item.Item) bool
}

type sortKey struct {
	propertyID string
	ascending  bool
}

// Default is a multi-key Sorter using the typed value ordering of the item
// package: missing properties sort first, ints and floats compare
// numerically, strings lexicographically.
type Default struct {
	keys []sortKey
}

// NewDefault creates an unbound Default sorter.
func NewDefault() *Default { return &Default{} }

// Bind implements Sorter.
func (s *Default) Bind(propertyIDs []string, ascending []bool) {
	s.keys = make([]sortKey, len(propertyIDs))
	for i, p := range propertyIDs {
		asc := true
		if i < len(ascending) {
			asc = ascending[i]
		}
		s.keys[i] = sortKey{propertyID: p, ascending: asc}
	}
}

// Less implements Sorter.
func (s *Default) Less(a, b item.Item) bool {
	for _, k := range s.keys {
		c := item.Compare(a[k.propertyID], b[k.propertyID])
		if c == 0 {
			continue
		}
		if k.ascending {
			return c < 0
		}
		return c > 0
	}
	return false
}
