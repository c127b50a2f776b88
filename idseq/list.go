// Package idseq maintains the two-layer identifier sequence at the heart of
// a container: the full insertion-ordered sequence of all identifiers, and
// the visible sequence derived from it by filtering.
//
// The visible sequence is the full sequence itself while no filter view is
// active and a strictly order-preserving subsequence of it otherwise. All
// positional operations (index lookup, navigation, ranges) work on the
// visible sequence; mutations work on the full sequence with the caller
// refiltering afterwards.
//
// A List is owned by a single container and is not safe for concurrent use.
package idseq

import "slices"

// List is the two-layer identifier sequence.
type List[ID comparable] struct {
	all    []ID
	allSet map[ID]struct{}

	// visible and visibleSet are only meaningful while filtered is true.
	// An inactive filter view means the visible sequence IS the full one.
	visible    []ID
	visibleSet map[ID]struct{}
	filtered   bool
}

// New creates an empty sequence.
func New[ID comparable]() *List[ID] {
	return &List[ID]{allSet: make(map[ID]struct{})}
}

// Len returns the length of the visible sequence.
func (l *List[ID]) Len() int {
	if l.filtered {
		return len(l.visible)
	}
	return len(l.all)
}

// TotalLen returns the length of the full sequence.
func (l *List[ID]) TotalLen() int { return len(l.all) }

// Filtered reports whether a filter view is active.
func (l *List[ID]) Filtered() bool { return l.filtered }

// Contains reports membership in the visible sequence only.
func (l *List[ID]) Contains(id ID) bool {
	if l.filtered {
		_, ok := l.visibleSet[id]
		return ok
	}
	_, ok := l.allSet[id]
	return ok
}

// InFull reports membership in the full sequence, filtered out or not.
func (l *List[ID]) InFull(id ID) bool {
	_, ok := l.allSet[id]
	return ok
}

// Visible returns the live visible sequence. Callers must treat it as
// read-only; it is invalidated by any mutation or refilter.
func (l *List[ID]) Visible() []ID {
	if l.filtered {
		return l.visible
	}
	return l.all
}

// Full returns the live full sequence. Callers must treat it as read-only.
func (l *List[ID]) Full() []ID { return l.all }

// ByIndex returns the identifier at a visible index.
func (l *List[ID]) ByIndex(index int) (ID, bool) {
	v := l.Visible()
	if index < 0 || index >= len(v) {
		var zero ID
		return zero, false
	}
	return v[index], true
}

// IndexOf returns the visible index of an identifier, -1 when not visible.
func (l *List[ID]) IndexOf(id ID) int {
	if !l.Contains(id) {
		return -1
	}
	return slices.Index(l.Visible(), id)
}

// FullIndexOf returns the full-sequence index of an identifier, -1 when
// absent.
func (l *List[ID]) FullIndexOf(id ID) int {
	if !l.InFull(id) {
		return -1
	}
	return slices.Index(l.all, id)
}

// Next returns the identifier following id in the visible sequence.
func (l *List[ID]) Next(id ID) (ID, bool) {
	index := l.IndexOf(id)
	if index >= 0 && index < l.Len()-1 {
		return l.ByIndex(index + 1)
	}
	var zero ID
	return zero, false
}

// Prev returns the identifier preceding id in the visible sequence.
func (l *List[ID]) Prev(id ID) (ID, bool) {
	index := l.IndexOf(id)
	if index > 0 {
		return l.ByIndex(index - 1)
	}
	var zero ID
	return zero, false
}

// First returns the first visible identifier.
func (l *List[ID]) First() (ID, bool) {
	return l.ByIndex(0)
}

// Last returns the last visible identifier.
func (l *List[ID]) Last() (ID, bool) {
	return l.ByIndex(l.Len() - 1)
}

// IsFirst reports whether id is the first visible identifier.
func (l *List[ID]) IsFirst(id ID) bool {
	first, ok := l.First()
	return ok && first == id
}

// IsLast reports whether id is the last visible identifier.
func (l *List[ID]) IsLast(id ID) bool {
	last, ok := l.Last()
	return ok && last == id
}

// Range returns a copy of the visible subsequence [start, start+count),
// clamped at the visible end. It fails when start lies outside [0, Len()]
// or count is negative.
func (l *List[ID]) Range(start, count int) ([]ID, bool) {
	if start < 0 || start > l.Len() || count < 0 {
		return nil, false
	}
	v := l.Visible()
	end := min(start+count, len(v))
	out := make([]ID, end-start)
	copy(out, v[start:end])
	return out, true
}

// InsertAt inserts an identifier at a full-sequence position. It fails when
// the position lies outside [0, TotalLen()] or the identifier is already
// present; the sequence is unchanged in that case.
//
// The visible sequence is NOT updated; the caller refilters afterwards.
func (l *List[ID]) InsertAt(position int, id ID) bool {
	if position < 0 || position > len(l.all) {
		return false
	}
	if _, dup := l.allSet[id]; dup {
		return false
	}
	l.all = slices.Insert(l.all, position, id)
	l.allSet[id] = struct{}{}
	return true
}

// Append inserts an identifier at the end of the full sequence.
func (l *List[ID]) Append(id ID) bool {
	return l.InsertAt(len(l.all), id)
}

// Remove strikes an identifier from both sequences. Reports whether it was
// present in the full sequence. No refiltering is needed afterwards.
func (l *List[ID]) Remove(id ID) bool {
	if _, ok := l.allSet[id]; !ok {
		return false
	}
	delete(l.allSet, id)
	if i := slices.Index(l.all, id); i >= 0 {
		l.all = slices.Delete(l.all, i, i+1)
	}
	if l.filtered {
		if _, ok := l.visibleSet[id]; ok {
			delete(l.visibleSet, id)
			if i := slices.Index(l.visible, id); i >= 0 {
				l.visible = slices.Delete(l.visible, i, i+1)
			}
		}
	}
	return true
}

// Clear empties both sequences, keeping the filter view state.
func (l *List[ID]) Clear() {
	l.all = nil
	l.allSet = make(map[ID]struct{})
	if l.filtered {
		l.visible = nil
		l.visibleSet = make(map[ID]struct{})
	}
}

// Refilter rebuilds the visible sequence. With active false the visible
// sequence degenerates to the full sequence and a change is reported only
// when the previous visible length differed from the full length. With
// active true the visible sequence is rebuilt by scanning the full sequence
// in order, retaining identifiers accepted by pred; the report compares the
// new sequence element-by-element against the previous one and accounts for
// length differences in either direction.
func (l *List[ID]) Refilter(pred func(ID) bool, active bool) bool {
	if !active {
		changed := len(l.all) != l.Len()
		l.visible = nil
		l.visibleSet = nil
		l.filtered = false
		return changed
	}

	// With no filter view active the visible sequence is the full one, so
	// that is what the new sequence must be compared against. Activating
	// filters that pass every item is then not a change.
	orig := l.visible
	if !l.filtered {
		orig = l.all
	}

	newVisible := make([]ID, 0, len(l.all))
	newSet := make(map[ID]struct{}, len(l.all))

	equal := true
	oi := 0
	for _, id := range l.all {
		if !pred(id) {
			continue
		}
		if equal {
			if oi < len(orig) && orig[oi] == id {
				oi++
			} else {
				equal = false
			}
		}
		newVisible = append(newVisible, id)
		newSet[id] = struct{}{}
	}

	l.visible = newVisible
	l.visibleSet = newSet
	l.filtered = true

	return !equal || oi < len(orig)
}

// Reorder replaces the full sequence with a permutation of itself. It
// fails when order is not exactly the current identifier set, once each;
// the sequence is unchanged in that case.
//
// The visible sequence is NOT rebuilt; the caller refilters (or treats
// the whole view as changed) afterwards.
func (l *List[ID]) Reorder(order []ID) bool {
	if len(order) != len(l.all) {
		return false
	}
	seen := make(map[ID]struct{}, len(order))
	for _, id := range order {
		if _, ok := l.allSet[id]; !ok {
			return false
		}
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	l.all = slices.Clone(order)
	return true
}
