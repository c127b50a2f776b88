package filter

import (
	"strings"

	"github.com/dataview-go/dataview/item"
)

// And passes when every child filter passes. An empty And passes.
type And struct {
	Children []Filter
}

// NewAnd creates a conjunction of filters.
func NewAnd(children ...Filter) *And { return &And{Children: children} }

// Passes implements Filter.
func (f *And) Passes(it item.Item) bool {
	for _, c := range f.Children {
		if !c.Passes(it) {
			return false
		}
	}
	return true
}

// AppliesTo implements Filter.
func (f *And) AppliesTo(propertyID string) bool { return anyApplies(f.Children, propertyID) }

// Key implements Filter.
func (f *And) Key() string { return "and(" + joinKeys(f.Children) + ")" }

// Or passes when at least one child filter passes. An empty Or fails.
type Or struct {
	Children []Filter
}

// NewOr creates a disjunction of filters.
func NewOr(children ...Filter) *Or { return &Or{Children: children} }

// Passes implements Filter.
func (f *Or) Passes(it item.Item) bool {
	for _, c := range f.Children {
		if c.Passes(it) {
			return true
		}
	}
	return false
}

// AppliesTo implements Filter.
func (f *Or) AppliesTo(propertyID string) bool { return anyApplies(f.Children, propertyID) }

// Key implements Filter.
func (f *Or) Key() string { return "or(" + joinKeys(f.Children) + ")" }

// Not inverts a filter.
type Not struct {
	Inner Filter
}

// NewNot creates a negation of a filter.
func NewNot(inner Filter) *Not { return &Not{Inner: inner} }

// Passes implements Filter.
func (f *Not) Passes(it item.Item) bool { return !f.Inner.Passes(it) }

// AppliesTo implements Filter.
func (f *Not) AppliesTo(propertyID string) bool { return f.Inner.AppliesTo(propertyID) }

// Key implements Filter.
func (f *Not) Key() string { return "not(" + f.Inner.Key() + ")" }

func anyApplies(filters []Filter, propertyID string) bool {
	for _, f := range filters {
		if f.AppliesTo(propertyID) {
			return true
		}
	}
	return false
}

func joinKeys(filters []Filter) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.Key()
	}
	return strings.Join(parts, ",")
}
