package ir

import "reflect"

type copyKey struct {
	ptr  uintptr
	kind reflect.Kind
	n    int
}

// DeepCopy copies nested map[string]any and []any values.
//
// Shared and self-referential structures are preserved: every container is
// copied once and later encounters reuse the copy, found through an identity
// map consulted before recursing. Other values are returned as is.
func DeepCopy(v any) any {
	return deepCopy(v, make(map[copyKey]any))
}

func deepCopy(v any, seen map[copyKey]any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return val
		}
		key := copyKey{ptr: reflect.ValueOf(val).Pointer(), kind: reflect.Map}
		if hit, ok := seen[key]; ok {
			return hit
		}
		out := make(map[string]any, len(val))
		seen[key] = out
		for k, elem := range val {
			out[k] = deepCopy(elem, seen)
		}
		return out
	case []any:
		if val == nil {
			return val
		}
		if len(val) == 0 {
			return []any{}
		}
		key := copyKey{ptr: reflect.ValueOf(val).Pointer(), kind: reflect.Slice, n: len(val)}
		if hit, ok := seen[key]; ok {
			return hit
		}
		out := make([]any, len(val))
		seen[key] = out
		for i, elem := range val {
			out[i] = deepCopy(elem, seen)
		}
		return out
	default:
		return v
	}
}
