package valuetree

import "fmt"

// FromAny converts a Go native value — the shape produced by
// encoding/json.Unmarshal into interface{}, or a literal map built by a
// host — into a Value tree. Supported inputs: nil, bool, string, any
// numeric kind (normalized to float64), []interface{}/[]Value,
// map[string]interface{}/map[string]Value, and Value itself.
func FromAny(v interface{}) (Value, error) {
	switch x := v.(type) {
	case nil:
		return NewNull(), nil
	case Value:
		return x, nil
	case bool:
		return NewBool(x), nil
	case string:
		return NewString(x), nil
	case float64:
		return NewNumber(x), nil
	case float32:
		return NewNumber(float64(x)), nil
	case int:
		return NewNumber(float64(x)), nil
	case int8:
		return NewNumber(float64(x)), nil
	case int16:
		return NewNumber(float64(x)), nil
	case int32:
		return NewNumber(float64(x)), nil
	case int64:
		return NewNumber(float64(x)), nil
	case uint:
		return NewNumber(float64(x)), nil
	case uint8:
		return NewNumber(float64(x)), nil
	case uint16:
		return NewNumber(float64(x)), nil
	case uint32:
		return NewNumber(float64(x)), nil
	case uint64:
		return NewNumber(float64(x)), nil
	case []interface{}:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			cv, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, cv)
		}
		return NewArray(items...), nil
	case []Value:
		return NewArray(x...), nil
	case map[string]interface{}:
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			cv, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			fields[k] = cv
		}
		return NewObject(fields), nil
	case map[string]Value:
		return NewObject(x), nil
	default:
		return Value{}, fmt.Errorf("valuetree: unsupported type %T", v)
	}
}

// MustFromAny is FromAny but panics on error; useful for literal test
// fixtures and built-in rule tables where the shape is known statically.
func MustFromAny(v interface{}) Value {
	val, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return val
}

// ToAny converts a Value tree back into plain Go values (nil, bool,
// float64, string, []interface{}, map[string]interface{}), the inverse of
// FromAny for interoperating with encoding/json or host code.
func ToAny(v Value) interface{} {
	switch v.kind {
	case Null:
		return nil
	case Bool:
		b, _ := v.AsBool()
		return b
	case Number:
		n, _ := v.AsNumber()
		return n
	case String:
		s, _ := v.AsString()
		return s
	case Array:
		arr, _ := v.AsArray()
		out := make([]interface{}, len(arr))
		for i, item := range arr {
			out[i] = ToAny(item)
		}
		return out
	case Object:
		obj, _ := v.AsObject()
		out := make(map[string]interface{}, len(obj))
		for k, item := range obj {
			out[k] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}
