package store

import (
	"github.com/roach88/stately/reactive"
)

// binding ties the root state and the getter table to the reactive arena.
//
// A binding is never patched: every structural change builds a new one and
// retires the previous one.
type binding struct {
	data     *reactive.Object
	computed map[string]*reactive.Computed
	strict   *reactive.Watcher
}

// resetBinding replaces the current binding with one built from state and
// the current getter table.
//
// The previous binding's state slot is nulled at once, inside the commit
// guard, so watchers that read through it re-evaluate against the new one.
// Its disposal waits for the next tick: a getter may still be recomputing
// against it in the current unit of work.
func (s *Store) resetBinding(state *reactive.Object) {
	old := s.binding

	b := &binding{
		data:     s.rt.NewObject(),
		computed: make(map[string]*reactive.Computed, len(s.getterOrder)),
	}
	b.data.Set("state", state)

	getters := newGetters()
	for _, key := range s.getterOrder {
		fn := s.wrappedGetters[key]
		b.computed[key] = s.rt.Computed(func() any {
			return fn(s)
		})
		typ := key
		getters.define(typ, func() any {
			c, ok := s.binding.computed[typ]
			if !ok {
				return nil
			}
			return c.Get()
		})
	}

	s.binding = b
	s.getters = getters
	s.generation++

	if s.cfg.Strict {
		s.enableStrictMode(b)
	}

	s.logger.Debug("binding rebuilt",
		"getters", len(s.getterOrder),
		"generation", s.generation,
	)

	if old != nil {
		s.withCommit(func() {
			old.data.Set("state", nil)
		})
		s.rt.NextTick(old.dispose)
	}
}

// enableStrictMode installs the one deep synchronous watcher that checks the
// commit guard on every write anywhere in the state tree.
func (s *Store) enableStrictMode(b *binding) {
	b.strict = s.rt.Watch(
		func() any { return b.data.Get("state") },
		func(_, _ any) {
			if s.committing || !s.cfg.DevMode {
				return
			}
			s.report(&Error{
				Code:    ErrCodeStrictMode,
				Message: "do not mutate store state outside mutation handlers",
			})
		},
		reactive.WatchOptions{Deep: true, Sync: true},
	)
}

func (b *binding) dispose() {
	if b.strict != nil {
		b.strict.Stop()
	}
	for _, c := range b.computed {
		c.Dispose()
	}
	b.computed = nil
}
