package value

import (
	"cmp"
	"strings"
)

// Equal reports deep structural equality.
// Values of different kinds are never equal: Number(1) != Bool(true).
func Equal(a, b Value) bool {
	switch x := normalize(a).(type) {
	case Null:
		_, ok := normalize(b).(Null)
		return ok
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case Text:
		y, ok := b.(Text)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Record:
		y, ok := b.(Record)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, exists := y[k]
			if !exists || !Equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two values of the same kind.
// Numbers compare numerically, Text lexicographically by bytes, Bool as
// false < true, and Lists element by element. ok is false when the values
// have no common order (different kinds, Null, Record).
func Compare(a, b Value) (c int, ok bool) {
	switch x := a.(type) {
	case Number:
		y, isNum := b.(Number)
		if !isNum {
			return 0, false
		}
		return cmp.Compare(x, y), true
	case Text:
		y, isText := b.(Text)
		if !isText {
			return 0, false
		}
		return strings.Compare(string(x), string(y)), true
	case Bool:
		y, isBool := b.(Bool)
		if !isBool {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !bool(x):
			return -1, true
		default:
			return 1, true
		}
	case List:
		y, isList := b.(List)
		if !isList {
			return 0, false
		}
		for i := 0; i < len(x) && i < len(y); i++ {
			c, ok := Compare(x[i], y[i])
			if !ok {
				return 0, false
			}
			if c != 0 {
				return c, true
			}
		}
		return cmp.Compare(len(x), len(y)), true
	default:
		return 0, false
	}
}

// Truthy reports the boolean reading of v.
// Null is false, Bool is itself, Number is true when non-zero, and Text,
// List and Record are true when non-empty.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Number:
		return val != 0
	case Text:
		return val != ""
	case List:
		return len(val) > 0
	case Record:
		return len(val) > 0
	default:
		return false
	}
}

// AsNumber returns v as a float64 when it is a Number.
func AsNumber(v Value) (float64, bool) {
	n, ok := v.(Number)
	return float64(n), ok
}

// Contains reports whether needle is a member of haystack.
// A List is searched element-wise; a Text matches a Text substring.
// Any other haystack contains nothing.
func Contains(haystack, needle Value) bool {
	switch h := haystack.(type) {
	case List:
		for _, item := range h {
			if Equal(item, needle) {
				return true
			}
		}
		return false
	case Text:
		s, ok := needle.(Text)
		return ok && strings.Contains(string(h), string(s))
	default:
		return false
	}
}

// Elements returns the members of v viewed as a collection.
// Lists yield their items, Null yields nothing, and any scalar is a
// single-element collection.
func Elements(v Value) []Value {
	switch val := v.(type) {
	case List:
		return val
	case Null, nil:
		return nil
	default:
		return []Value{val}
	}
}

// normalize maps a Go nil to Null so callers never see both.
func normalize(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}
