package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/roach88/stately/reactive"
)

// Value is a sealed interface over the JSON-shaped values a state tree can
// hold. Only Null, String, Int, Float, Bool, Array and Object implement it.
type Value interface {
	irValue()
}

// Null is JSON null.
type Null struct{}

func (Null) irValue() {}

// MarshalJSON encodes null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String is a JSON string.
type String string

func (String) irValue() {}

// Int is an integral JSON number.
type Int int64

func (Int) irValue() {}

// Float is a non-integral JSON number. NaN and infinities are rejected on
// construction.
type Float float64

func (Float) irValue() {}

// Bool is a JSON boolean.
type Bool bool

func (Bool) irValue() {}

// Array is a JSON array.
type Array []Value

func (Array) irValue() {}

// Object is a JSON object. Iterate with SortedKeys for a stable order.
type Object map[string]Value

func (Object) irValue() {}

// MarshalJSON encodes the object canonically.
func (obj Object) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(obj)
}

// MarshalJSON encodes the array canonically.
func (arr Array) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(arr)
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// This differs from sort.Strings for keys outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// FromGo converts a plain or tracked Go value into a Value.
//
// Tracked *reactive.Object and *reactive.List values are snapshotted first.
// Self-referential structures cannot be represented and return an error
// naming the path where the cycle closes.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case *reactive.Object, *reactive.List:
		v = reactive.Snapshot(val)
	}
	return fromGo(v, "$", make(map[uintptr]bool))
}

func fromGo(v any, path string, visiting map[uintptr]bool) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case float64:
		return newFloat(val, path)
	case float32:
		return newFloat(float64(val), path)
	case json.Number:
		return parseNumber(string(val), path)
	case *reactive.Object, *reactive.List:
		return fromGo(reactive.Snapshot(val), path, visiting)
	case map[string]any:
		id := reflect.ValueOf(val).Pointer()
		if visiting[id] {
			return nil, fmt.Errorf("%s: cyclic value", path)
		}
		visiting[id] = true
		defer delete(visiting, id)

		obj := make(Object, len(val))
		for k, elem := range val {
			child, err := fromGo(elem, path+"."+k, visiting)
			if err != nil {
				return nil, err
			}
			obj[k] = child
		}
		return obj, nil
	case []any:
		var id uintptr
		if len(val) > 0 {
			id = reflect.ValueOf(val).Pointer()
			if visiting[id] {
				return nil, fmt.Errorf("%s: cyclic value", path)
			}
			visiting[id] = true
			defer delete(visiting, id)
		}
		arr := make(Array, len(val))
		for i, elem := range val {
			child, err := fromGo(elem, fmt.Sprintf("%s[%d]", path, i), visiting)
			if err != nil {
				return nil, err
			}
			arr[i] = child
		}
		return arr, nil
	}
	if n, ok := reactive.ToInt(v); ok {
		return Int(n), nil
	}
	return nil, fmt.Errorf("%s: unsupported type %T", path, v)
}

func newFloat(f float64, path string) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%s: %v is not representable in JSON", path, f)
	}
	return Float(f), nil
}

func parseNumber(s, path string) (Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		n, err := json.Number(s).Int64()
		if err == nil {
			return Int(n), nil
		}
	}
	f, err := json.Number(s).Float64()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return newFloat(f, path)
}

// ToGo converts v into plain Go values: map[string]any, []any, string, int,
// float64, bool and nil. The result is what reactive.Observe expects.
func ToGo(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	}
	return nil
}

// Parse decodes JSON into a Value. Integral numbers become Int, others Float.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse value: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse value: trailing data")
	}
	return fromGo(raw, "$", make(map[uintptr]bool))
}

// FromAny converts v like FromGo, falling back to its encoding/json form
// and then to its %v text. It never fails, which suits recording payloads
// of arbitrary user types.
func FromAny(v any) Value {
	if val, err := FromGo(v); err == nil {
		return val
	}
	if raw, err := json.Marshal(v); err == nil {
		if val, err := Parse(raw); err == nil {
			return val
		}
	}
	return String(fmt.Sprintf("%v", v))
}
