package reactive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Object is a tracked string-keyed record with stable key order.
//
// Each key has its own Dep, so a reader of "count" is not invalidated by a
// write to "label". Adding or removing a key also bumps the shape dep, which
// is what Keys, Len, Has and iteration depend on.
//
// Values written into an Object are observed first: map[string]any becomes
// an *Object and []any becomes a *List. Other values are stored as given.
type Object struct {
	rt    *Runtime
	keys  []string
	vals  map[string]any
	deps  map[string]*Dep
	shape *Dep
}

// NewObject creates an empty tracked object.
func (rt *Runtime) NewObject() *Object {
	return &Object{
		rt:    rt,
		vals:  make(map[string]any),
		deps:  make(map[string]*Dep),
		shape: rt.newDep(),
	}
}

// Runtime returns the arena that owns o.
func (o *Object) Runtime() *Runtime {
	return o.rt
}

// Get returns the value at key, or nil if the key is absent.
func (o *Object) Get(key string) any {
	if d, ok := o.deps[key]; ok {
		d.depend()
		return o.vals[key]
	}
	// Absent keys depend on the shape so a later Set invalidates the reader.
	o.shape.depend()
	return nil
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	o.shape.depend()
	_, ok := o.vals[key]
	return ok
}

// Set writes key. A key that did not exist yet is added as a new tracked
// property, and readers of the key set are notified. Writing a value equal to
// the current one is a no-op.
func (o *Object) Set(key string, value any) {
	value = o.rt.observe(value)
	if d, ok := o.deps[key]; ok {
		if same(o.vals[key], value) {
			return
		}
		o.vals[key] = value
		d.notify()
		return
	}
	o.keys = append(o.keys, key)
	o.vals[key] = value
	o.deps[key] = o.rt.newDep()
	o.shape.notify()
}

// Delete removes key. Deleting an absent key is a no-op.
func (o *Object) Delete(key string) {
	d, ok := o.deps[key]
	if !ok {
		return
	}
	delete(o.deps, key)
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	notifyAll(d, o.shape)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	o.shape.depend()
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	o.shape.depend()
	return len(o.keys)
}

// Range calls fn for each key in order until fn returns false.
func (o *Object) Range(fn func(key string, value any) bool) {
	for _, k := range o.Keys() {
		if !fn(k, o.Get(k)) {
			return
		}
	}
}

// Object returns the nested object at key, or nil.
func (o *Object) Object(key string) *Object {
	v, _ := o.Get(key).(*Object)
	return v
}

// List returns the nested list at key, or nil.
func (o *Object) List(key string) *List {
	v, _ := o.Get(key).(*List)
	return v
}

// Int returns the numeric value at key as an int, or 0.
func (o *Object) Int(key string) int {
	n, _ := ToInt(o.Get(key))
	return n
}

// Float returns the numeric value at key as a float64, or 0.
func (o *Object) Float(key string) float64 {
	f, _ := ToFloat(o.Get(key))
	return f
}

// String returns the string at key, or "".
func (o *Object) String(key string) string {
	s, _ := o.Get(key).(string)
	return s
}

// Bool returns the bool at key, or false.
func (o *Object) Bool(key string) bool {
	b, _ := o.Get(key).(bool)
	return b
}

// Snapshot returns a plain deep copy: map[string]any, []any and scalars.
// Every slot read is tracked.
func (o *Object) Snapshot() map[string]any {
	m, _ := Snapshot(o).(map[string]any)
	return m
}

// MarshalJSON encodes the object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.vals[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// fromMap builds an object from m with keys in ascending order, since Go
// maps carry no insertion order.
func (rt *Runtime) fromMap(m map[string]any) *Object {
	o := rt.NewObject()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.keys = append(o.keys, k)
		o.vals[k] = rt.observe(m[k])
		o.deps[k] = rt.newDep()
	}
	return o
}
