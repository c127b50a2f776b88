package dataview

import "slices"

// ChangeKind describes what kind of mutation changed the visible item
// set.
type ChangeKind uint8

const (
	// ChangeItemAdded fires when an inserted item becomes visible.
	ChangeItemAdded ChangeKind = iota + 1
	// ChangeItemRemoved fires when a visible item is removed.
	ChangeItemRemoved
	// ChangeItemUpdated fires when a stored item's record changes.
	ChangeItemUpdated
	// ChangeFiltered fires when a filter mutation changed the visible
	// sequence.
	ChangeFiltered
	// ChangeSorted fires after a sort.
	ChangeSorted
	// ChangeCleared fires when the container is emptied.
	ChangeCleared
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeItemAdded:
		return "item-added"
	case ChangeItemRemoved:
		return "item-removed"
	case ChangeItemUpdated:
		return "item-updated"
	case ChangeFiltered:
		return "filtered"
	case ChangeSorted:
		return "sorted"
	case ChangeCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// ItemSetChange is delivered to subscribers after a mutation that changed
// the visible item set, plus after every update to a stored record.
//
// ID and Index are meaningful for the item-level kinds only. Index is the
// visible index of the affected item (for ChangeItemRemoved, its index
// prior to removal), -1 when the item is not visible or the change is not
// item-level. Len is the visible length after the change.
type ItemSetChange[ID comparable] struct {
	Kind  ChangeKind
	ID    ID
	Index int
	Len   int
}

type subscriber[ID comparable] struct {
	token int
	fn    func(change ItemSetChange[ID])
}

// Subscribe registers a change listener and returns a function that
// removes it again. Delivery is synchronous on the mutating goroutine, in
// registration order. A nil fn registers nothing.
func (c *Container[ID]) Subscribe(fn func(change ItemSetChange[ID])) func() {
	if fn == nil {
		return func() {}
	}
	c.nextToken++
	token := c.nextToken
	c.subscribers = append(c.subscribers, subscriber[ID]{token: token, fn: fn})
	return func() {
		for i, s := range c.subscribers {
			if s.token == token {
				c.subscribers = slices.Delete(c.subscribers, i, i+1)
				return
			}
		}
	}
}

// fire delivers a change to all subscribers. It iterates over a snapshot
// of the subscriber list so listeners may unsubscribe during delivery.
func (c *Container[ID]) fire(change ItemSetChange[ID]) {
	if len(c.subscribers) == 0 {
		return
	}
	for _, s := range slices.Clone(c.subscribers) {
		s.fn(change)
	}
}
