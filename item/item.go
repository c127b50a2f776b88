package item

import (
	"fmt"
	"math"
)

// Item is the record associated with one container identifier: a flat map
// of property identifier to typed value.
type Item map[string]Value

// Get returns the value of a property.
func (it Item) Get(propertyID string) (Value, bool) {
	v, ok := it[propertyID]
	return v, ok
}

// Clone creates a deep copy of the item.
//
// This is the safe default to prevent external mutation after an item has
// been handed to a container. Values are deep copied, including arrays.
func (it Item) Clone() Item {
	if it == nil {
		return nil
	}

	clone := make(Item, len(it))
	for k, v := range it {
		clone[k] = v.clone()
	}
	return clone
}

// CloneIfNeeded clones an item only if it is non-nil and non-empty.
func CloneIfNeeded(it Item) Item {
	if len(it) == 0 {
		return nil
	}
	return it.Clone()
}

// EqualItems reports whether two items hold equal values for the same
// property set.
func EqualItems(a, b Item) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

// ChangedProperties returns the property identifiers whose values differ
// between old and new, including properties present on only one side.
func ChangedProperties(old, new Item) []string {
	var changed []string
	for k, ov := range old {
		nv, ok := new[k]
		if !ok || !Equal(ov, nv) {
			changed = append(changed, k)
		}
	}
	for k := range new {
		if _, ok := old[k]; !ok {
			changed = append(changed, k)
		}
	}
	return changed
}

// FromAny converts a Go value into a typed Value.
//
// This exists as an adapter layer for user input, for example maps produced
// by JSON decoding.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case float64:
		return Float(x), nil
	case float32:
		return Float(float64(x)), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Int(int64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			// Avoid silently truncating large values.
			return Value{}, fmt.Errorf("item uint64 out of range: %d", x)
		}
		return Int(int64(x)), nil
	case []Value:
		return Array(x), nil
	case []any:
		arr := make([]Value, len(x))
		for i := range x {
			vv, err := FromAny(x[i])
			if err != nil {
				return Value{}, err
			}
			arr[i] = vv
		}
		return Array(arr), nil
	case []string:
		arr := make([]Value, len(x))
		for i := range x {
			arr[i] = String(x[i])
		}
		return Array(arr), nil
	case []int:
		arr := make([]Value, len(x))
		for i := range x {
			arr[i] = Int(int64(x[i]))
		}
		return Array(arr), nil
	case []float64:
		arr := make([]Value, len(x))
		for i := range x {
			arr[i] = Float(x[i])
		}
		return Array(arr), nil
	default:
		return Value{}, fmt.Errorf("unsupported item value type %T", v)
	}
}

// ItemFromAny converts an untyped map[string]any record to a typed Item.
func ItemFromAny(m map[string]any) (Item, error) {
	it := make(Item, len(m))
	for k, v := range m {
		vv, err := FromAny(v)
		if err != nil {
			return nil, err
		}
		it[k] = vv
	}
	return it, nil
}
