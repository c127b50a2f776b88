package dataview

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an identifier is not in the container.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when an insertion reuses an identifier
	// that is already in the container, visible or not.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrNilItem is returned when an insertion or update carries a nil
	// item.
	ErrNilItem = errors.New("nil item")

	// ErrInvalidPosition is returned when an insertion index or range
	// start lies outside the visible sequence.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrIDNotVisible is returned when AddAfter names a previous
	// identifier that is not visible. An identifier hidden by a filter
	// cannot anchor an insertion.
	ErrIDNotVisible = errors.New("identifier not visible")

	// ErrSortingUnsupported is returned by Sort on a container built
	// without a sorter.
	ErrSortingUnsupported = errors.New("sorting not supported")
)

// PositionError reports an index outside the valid visible range.
//
// It satisfies errors.Is(err, ErrInvalidPosition).
type PositionError struct {
	Index int
	Len   int
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("position %d out of range [0, %d]", e.Index, e.Len)
}

func (e *PositionError) Unwrap() error { return ErrInvalidPosition }
