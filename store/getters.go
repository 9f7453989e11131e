package store

import "strings"

// Getters is a read-only view of named, lazily evaluated getters.
//
// Each entry is an accessor: reading it resolves the current memoized value
// at that moment. A Getters value never holds computed results itself.
type Getters struct {
	keys      []string
	accessors map[string]func() any
}

func newGetters() *Getters {
	return &Getters{accessors: make(map[string]func() any)}
}

func (g *Getters) define(key string, accessor func() any) {
	if _, ok := g.accessors[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.accessors[key] = accessor
}

// Get returns the getter's current value, or nil if no getter has that name.
func (g *Getters) Get(name string) any {
	if g == nil {
		return nil
	}
	if fn, ok := g.accessors[name]; ok {
		return fn()
	}
	return nil
}

// Has reports whether a getter is defined under name.
func (g *Getters) Has(name string) bool {
	if g == nil {
		return false
	}
	_, ok := g.accessors[name]
	return ok
}

// Keys returns getter names in registration order.
func (g *Getters) Keys() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// Len returns the number of getters.
func (g *Getters) Len() int {
	if g == nil {
		return 0
	}
	return len(g.keys)
}

// makeLocalGetters re-exposes every root getter under namespace with the
// prefix stripped. Accessors go through s.Getters() on every read so they
// always resolve against the current binding.
func makeLocalGetters(s *Store, namespace string) *Getters {
	local := newGetters()
	for _, typ := range s.Getters().Keys() {
		if !strings.HasPrefix(typ, namespace) {
			continue
		}
		qualified := typ
		local.define(strings.TrimPrefix(typ, namespace), func() any {
			return s.Getters().Get(qualified)
		})
	}
	return local
}
