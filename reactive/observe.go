package reactive

import (
	"math"
	"reflect"
)

// Observe converts v into its tracked form owned by rt.
//
//   - map[string]any becomes *Object (keys sorted)
//   - []any becomes *List
//   - *Object and *List owned by rt are returned unchanged
//   - *Object and *List owned by another runtime are copied into rt
//   - anything else is returned as is
func (rt *Runtime) Observe(v any) any {
	return rt.observe(v)
}

func (rt *Runtime) observe(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return rt.fromMap(val)
	case []any:
		return rt.NewList(val...)
	case *Object:
		if val == nil || val.rt == rt {
			return val
		}
		return rt.fromMap(val.Snapshot())
	case *List:
		if val == nil || val.rt == rt {
			return val
		}
		items, _ := Snapshot(val).([]any)
		return rt.NewList(items...)
	default:
		return v
	}
}

// Snapshot deep-copies a tracked value into plain Go values.
//
// Shared and self-referential structures are preserved: each Object or List
// is copied once, and later encounters reuse the copy from an identity map
// that is consulted before recursing.
func Snapshot(v any) any {
	return snapshot(v, make(map[any]any))
}

func snapshot(v any, seen map[any]any) any {
	switch val := v.(type) {
	case *Object:
		if val == nil {
			return nil
		}
		if hit, ok := seen[val]; ok {
			return hit
		}
		out := make(map[string]any, len(val.keys))
		seen[val] = out
		for _, k := range val.Keys() {
			out[k] = snapshot(val.Get(k), seen)
		}
		return out
	case *List:
		if val == nil {
			return nil
		}
		if hit, ok := seen[val]; ok {
			return hit
		}
		items := val.Items()
		out := make([]any, len(items))
		seen[val] = out
		for i, item := range items {
			out[i] = snapshot(item, seen)
		}
		return out
	default:
		return v
	}
}

// traverse reads every slot reachable from v so the running evaluation
// depends on all of them.
func traverse(v any, seen map[any]struct{}) {
	switch val := v.(type) {
	case *Object:
		if val == nil {
			return
		}
		if _, ok := seen[val]; ok {
			return
		}
		seen[val] = struct{}{}
		val.Range(func(_ string, child any) bool {
			traverse(child, seen)
			return true
		})
	case *List:
		if val == nil {
			return
		}
		if _, ok := seen[val]; ok {
			return
		}
		seen[val] = struct{}{}
		for _, item := range val.Items() {
			traverse(item, seen)
		}
	}
}

// same reports whether a write of b over a can be skipped.
// Non-comparable values are always treated as different.
func same(a, b any) (eq bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	if f, ok := a.(float64); ok && math.IsNaN(f) {
		return false
	}
	return a == b
}

// isContainer reports whether v is a tracked composite value.
func isContainer(v any) bool {
	switch v.(type) {
	case *Object, *List:
		return true
	}
	return false
}

// ToInt converts any Go numeric value to int.
// Floats are truncated. The bool result is false for non-numeric input.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := ToInt(v); ok {
		return float64(i), true
	}
	return 0, false
}
