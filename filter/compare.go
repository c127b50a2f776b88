package filter

import (
	"strings"

	"github.com/dataview-go/dataview/item"
)

// Operator represents a comparison operator.
type Operator string

const (
	// OpEqual represents the equality operator.
	OpEqual Operator = "eq"
	// OpNotEqual represents the inequality operator.
	OpNotEqual Operator = "ne"
	// OpGreaterThan represents the greater than operator.
	OpGreaterThan Operator = "gt"
	// OpGreaterEqual represents the greater than or equal operator.
	OpGreaterEqual Operator = "gte"
	// OpLessThan represents the less than operator.
	OpLessThan Operator = "lt"
	// OpLessEqual represents the less than or equal operator.
	OpLessEqual Operator = "lte"
	// OpIn represents the in list operator.
	OpIn Operator = "in"
	// OpContains represents the contains substring operator.
	OpContains Operator = "contains"
)

// Compare filters on a single property against an operand value.
//
// An item missing the property fails the filter for every operator,
// including OpNotEqual.
type Compare struct {
	PropertyID string
	Op         Operator
	Operand    item.Value
}

// Eq creates an equality filter.
func Eq(propertyID string, operand item.Value) *Compare {
	return &Compare{PropertyID: propertyID, Op: OpEqual, Operand: operand}
}

// Ne creates an inequality filter.
func Ne(propertyID string, operand item.Value) *Compare {
	return &Compare{PropertyID: propertyID, Op: OpNotEqual, Operand: operand}
}

// Gt creates a greater-than filter.
func Gt(propertyID string, operand item.Value) *Compare {
	return &Compare{PropertyID: propertyID, Op: OpGreaterThan, Operand: operand}
}

// Gte creates a greater-or-equal filter.
func Gte(propertyID string, operand item.Value) *Compare {
	return &Compare{PropertyID: propertyID, Op: OpGreaterEqual, Operand: operand}
}

// Lt creates a less-than filter.
func Lt(propertyID string, operand item.Value) *Compare {
	return &Compare{PropertyID: propertyID, Op: OpLessThan, Operand: operand}
}

// Lte creates a less-or-equal filter.
func Lte(propertyID string, operand item.Value) *Compare {
	return &Compare{PropertyID: propertyID, Op: OpLessEqual, Operand: operand}
}

// In creates a membership filter; operands is the accepted value list.
func In(propertyID string, operands ...item.Value) *Compare {
	return &Compare{PropertyID: propertyID, Op: OpIn, Operand: item.Array(operands)}
}

// Contains creates a substring filter on string properties.
func Contains(propertyID string, substring string) *Compare {
	return &Compare{PropertyID: propertyID, Op: OpContains, Operand: item.String(substring)}
}

// Passes implements Filter.
func (f *Compare) Passes(it item.Item) bool {
	value, exists := it[f.PropertyID]
	if !exists {
		return false
	}

	switch f.Op {
	case OpEqual:
		return item.Equal(value, f.Operand)
	case OpNotEqual:
		return !item.Equal(value, f.Operand)
	case OpGreaterThan:
		return compareGreater(value, f.Operand)
	case OpGreaterEqual:
		return compareGreater(value, f.Operand) || item.Equal(value, f.Operand)
	case OpLessThan:
		return compareLess(value, f.Operand)
	case OpLessEqual:
		return compareLess(value, f.Operand) || item.Equal(value, f.Operand)
	case OpIn:
		return compareIn(value, f.Operand)
	case OpContains:
		return compareContains(value, f.Operand)
	default:
		return false
	}
}

// AppliesTo implements Filter.
func (f *Compare) AppliesTo(propertyID string) bool {
	return f.PropertyID == propertyID
}

// Key implements Filter.
func (f *Compare) Key() string {
	return "cmp:" + f.PropertyID + ":" + string(f.Op) + ":" + f.Operand.Key()
}

func compareGreater(a, b item.Value) bool {
	if !isNumber(a) || !isNumber(b) {
		return false
	}
	return asFloat64(a) > asFloat64(b)
}

func compareLess(a, b item.Value) bool {
	if !isNumber(a) || !isNumber(b) {
		return false
	}
	return asFloat64(a) < asFloat64(b)
}

func compareIn(a, b item.Value) bool {
	list, ok := b.AsArray()
	if !ok {
		return false
	}
	for _, candidate := range list {
		if item.Equal(a, candidate) {
			return true
		}
	}
	return false
}

func compareContains(a, b item.Value) bool {
	as, ok := a.AsString()
	if !ok {
		return false
	}
	bs, ok := b.AsString()
	if !ok {
		return false
	}
	return strings.Contains(as, bs)
}

func isNumber(v item.Value) bool {
	return v.Kind == item.KindInt || v.Kind == item.KindFloat
}

func asFloat64(v item.Value) float64 {
	switch v.Kind {
	case item.KindInt:
		return float64(v.I64)
	case item.KindFloat:
		return v.F64
	default:
		return 0
	}
}
