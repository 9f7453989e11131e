package store

import (
	"context"
	"fmt"

	"github.com/roach88/stately/reactive"
)

// localContext is a module's namespace-scoped view of the store.
// One is built per module per install pass.
type localContext struct {
	store     *Store
	namespace string
	path      []string

	getters    *Getters
	generation uint64
}

func makeLocalContext(s *Store, namespace string, path []string) *localContext {
	return &localContext{store: s, namespace: namespace, path: clonePath(path)}
}

func (l *localContext) dispatch(ctx context.Context, typ string, payload any, opts ...CallOption) *Deferred {
	if l.namespace == "" {
		return l.store.Dispatch(ctx, typ, payload)
	}
	o := applyCallOptions(opts)
	if !o.root {
		qualified := l.namespace + typ
		if l.store.cfg.DevMode && len(l.store.actions[qualified]) == 0 {
			l.store.report(&Error{
				Code:    ErrCodeUnknownType,
				Message: fmt.Sprintf("unknown local action type: %s", typ),
				Type:    qualified,
			})
			return nil
		}
		typ = qualified
	}
	return l.store.Dispatch(ctx, typ, payload)
}

func (l *localContext) commit(typ string, payload any, opts ...CallOption) {
	if l.namespace == "" {
		l.store.Commit(typ, payload, opts...)
		return
	}
	o := applyCallOptions(opts)
	if !o.root {
		qualified := l.namespace + typ
		if l.store.cfg.DevMode && len(l.store.mutations[qualified]) == 0 {
			l.store.report(&Error{
				Code:    ErrCodeUnknownType,
				Message: fmt.Sprintf("unknown local mutation type: %s", typ),
				Type:    qualified,
			})
			return
		}
		typ = qualified
	}
	l.store.Commit(typ, payload, opts...)
}

// localGetters returns the root getters for unnamespaced modules. Namespaced
// modules get a prefix-stripped proxy, rebuilt once per binding generation.
func (l *localContext) localGetters() *Getters {
	if l.namespace == "" {
		return l.store.Getters()
	}
	if l.getters == nil || l.generation != l.store.generation {
		l.getters = makeLocalGetters(l.store, l.namespace)
		l.generation = l.store.generation
	}
	return l.getters
}

// state re-resolves the module path through the current root state on
// every call; the root object is swapped by ReplaceState.
func (l *localContext) state() *reactive.Object {
	return nestedState(l.store.State(), l.path)
}

func nestedState(root *reactive.Object, path []string) *reactive.Object {
	st := root
	for _, key := range path {
		if st == nil {
			return nil
		}
		st = st.Object(key)
	}
	return st
}

// ActionContext is what an action handler receives.
//
// State and Getters are resolved when called, so an action that resumes
// after an await still sees current values.
type ActionContext struct {
	ctx   context.Context
	local *localContext
}

// Context returns the context passed to Dispatch.
func (c *ActionContext) Context() context.Context {
	return c.ctx
}

// Dispatch dispatches within the module's namespace unless AsRoot is given.
func (c *ActionContext) Dispatch(typ string, payload any, opts ...CallOption) *Deferred {
	return c.local.dispatch(c.ctx, typ, payload, opts...)
}

// Commit commits within the module's namespace unless AsRoot is given.
func (c *ActionContext) Commit(typ string, payload any, opts ...CallOption) {
	c.local.commit(typ, payload, opts...)
}

// State returns the module's local state.
func (c *ActionContext) State() *reactive.Object {
	return c.local.state()
}

// Getters returns the module's local getters.
func (c *ActionContext) Getters() *Getters {
	return c.local.localGetters()
}

// RootState returns the whole state tree.
func (c *ActionContext) RootState() *reactive.Object {
	return c.local.store.State()
}

// RootGetters returns every getter by qualified name.
func (c *ActionContext) RootGetters() *Getters {
	return c.local.store.Getters()
}

// CommitObject commits an object-style mutation within the module's
// namespace unless AsRoot is given.
func (c *ActionContext) CommitObject(obj any, opts ...CallOption) {
	typ, payload, err := unifyObjectStyle(obj)
	if err != nil {
		c.local.store.report(&Error{Code: ErrCodeUnknownType, Message: err.Error()})
		return
	}
	c.local.commit(typ, payload, opts...)
}

// DispatchObject dispatches an object-style action within the module's
// namespace unless AsRoot is given.
func (c *ActionContext) DispatchObject(obj any, opts ...CallOption) *Deferred {
	typ, payload, err := unifyObjectStyle(obj)
	if err != nil {
		c.local.store.report(&Error{Code: ErrCodeUnknownType, Message: err.Error()})
		return nil
	}
	return c.local.dispatch(c.ctx, typ, payload, opts...)
}
