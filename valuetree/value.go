// Package valuetree implements the dynamically-typed argument value
// described in spec.md §9 ("Dynamic typing of tool_args"): a recursive tree
// of Null | Bool | Number | String | Array | Object, canonicalized by
// key-sorted serialization rather than by source syntax, so that two
// structurally-equal argument trees always hash identically regardless of
// how they were constructed (map literal order, JSON field order, etc).
package valuetree

import "fmt"

// Kind tags which arm of the Value union is populated.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a single node of a canonical argument tree.
type Value struct {
	kind Kind

	boolVal   bool
	numberVal float64
	stringVal string
	arrayVal  []Value
	objectVal map[string]Value
}

func (v Value) Kind() Kind { return v.kind }

// NewNull returns the Null value.
func NewNull() Value { return Value{kind: Null} }

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{kind: Bool, boolVal: b} }

// NewNumber wraps a float64.
func NewNumber(n float64) Value { return Value{kind: Number, numberVal: n} }

// NewString wraps a string.
func NewString(s string) Value { return Value{kind: String, stringVal: s} }

// NewArray wraps a slice of values, copied defensively.
func NewArray(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: Array, arrayVal: cp}
}

// NewObject wraps a map of values, copied defensively.
func NewObject(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: Object, objectVal: cp}
}

// AsBool returns the wrapped bool and whether v is a Bool.
func (v Value) AsBool() (bool, bool) { return v.boolVal, v.kind == Bool }

// AsNumber returns the wrapped number and whether v is a Number.
func (v Value) AsNumber() (float64, bool) { return v.numberVal, v.kind == Number }

// AsString returns the wrapped string and whether v is a String.
func (v Value) AsString() (string, bool) { return v.stringVal, v.kind == String }

// AsArray returns the wrapped slice and whether v is an Array.
func (v Value) AsArray() ([]Value, bool) { return v.arrayVal, v.kind == Array }

// AsObject returns the wrapped map and whether v is an Object.
func (v Value) AsObject() (map[string]Value, bool) { return v.objectVal, v.kind == Object }

// Equal reports structural equality: same kind and same recursively-equal
// contents, independent of map iteration order or source syntax.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool:
		return a.boolVal == b.boolVal
	case Number:
		return a.numberVal == b.numberVal
	case String:
		return a.stringVal == b.stringVal
	case Array:
		if len(a.arrayVal) != len(b.arrayVal) {
			return false
		}
		for i := range a.arrayVal {
			if !Equal(a.arrayVal[i], b.arrayVal[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(a.objectVal) != len(b.objectVal) {
			return false
		}
		for k, av := range a.objectVal {
			bv, ok := b.objectVal[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v Value) String() string {
	return fmt.Sprintf("Value(%s)", v.kind)
}
