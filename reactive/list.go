package reactive

import "encoding/json"

// List is a tracked ordered sequence. The whole list shares one Dep, so any
// write invalidates every reader of the list.
type List struct {
	rt    *Runtime
	items []any
	dep   *Dep
}

// NewList creates a tracked list holding the observed form of items.
func (rt *Runtime) NewList(items ...any) *List {
	l := &List{rt: rt, dep: rt.newDep(), items: make([]any, len(items))}
	for i, v := range items {
		l.items[i] = rt.observe(v)
	}
	return l
}

// Len returns the number of items.
func (l *List) Len() int {
	l.dep.depend()
	return len(l.items)
}

// At returns the item at i, or nil when i is out of range.
func (l *List) At(i int) any {
	l.dep.depend()
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// Items returns a shallow copy of the items.
func (l *List) Items() []any {
	l.dep.depend()
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// Set replaces the item at i. Out-of-range indexes are ignored.
func (l *List) Set(i int, value any) {
	if i < 0 || i >= len(l.items) {
		return
	}
	value = l.rt.observe(value)
	if same(l.items[i], value) {
		return
	}
	l.items[i] = value
	l.dep.notify()
}

// Append adds values to the end.
func (l *List) Append(values ...any) {
	if len(values) == 0 {
		return
	}
	for _, v := range values {
		l.items = append(l.items, l.rt.observe(v))
	}
	l.dep.notify()
}

// Insert places value before index i, clamped to [0, Len].
func (l *List) Insert(i int, value any) {
	if i < 0 {
		i = 0
	}
	if i > len(l.items) {
		i = len(l.items)
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = l.rt.observe(value)
	l.dep.notify()
}

// RemoveAt deletes and returns the item at i, or nil when out of range.
func (l *List) RemoveAt(i int) any {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	v := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.dep.notify()
	return v
}

// Clear removes every item.
func (l *List) Clear() {
	if len(l.items) == 0 {
		return
	}
	l.items = l.items[:0]
	l.dep.notify()
}

// MarshalJSON encodes the list as a JSON array.
func (l *List) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.items)
}
