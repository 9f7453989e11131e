package store

import (
	"sort"

	"github.com/roach88/stately/reactive"
)

// MutationHandler changes module state synchronously.
// state is the module's own (local) state.
type MutationHandler func(state *reactive.Object, payload any)

// ActionHandler orchestrates work and may commit, dispatch and read state.
//
// The return value becomes the action's Deferred: a *Deferred result is
// passed through, a non-nil error rejects, anything else resolves.
type ActionHandler func(ctx *ActionContext, payload any) (any, error)

// GetterHandler derives a value. It is memoized and recomputed only when a
// slot it read has changed.
type GetterHandler func(state *reactive.Object, getters *Getters, rootState *reactive.Object, rootGetters *Getters) any

// Action declares an action handler. Root actions are registered under
// their bare name even inside a namespaced module.
type Action struct {
	Handler ActionHandler
	Root    bool
}

// RawModule is the declarative configuration of a module and its children.
//
// Names are visited in ascending order, which defines registration order
// for handlers sharing one qualified type.
type RawModule struct {
	Namespaced bool

	// State is the initial state. It is copied when the module is installed,
	// so one RawModule can back several stores.
	State map[string]any

	// StateFunc, when set, takes precedence over State.
	StateFunc func() map[string]any

	Mutations map[string]MutationHandler
	Actions   map[string]Action
	Getters   map[string]GetterHandler
	Modules   map[string]*RawModule
}

// Module is one node of the installed module tree.
type Module struct {
	runtime    bool
	namespaced bool
	state      map[string]any
	mutations  map[string]MutationHandler
	actions    map[string]Action
	getters    map[string]GetterHandler
	children   map[string]*Module
	context    *localContext
}

func newModule(raw *RawModule, runtime bool) *Module {
	m := &Module{
		runtime:    runtime,
		namespaced: raw.Namespaced,
		mutations:  make(map[string]MutationHandler, len(raw.Mutations)),
		actions:    make(map[string]Action, len(raw.Actions)),
		getters:    make(map[string]GetterHandler, len(raw.Getters)),
		children:   make(map[string]*Module),
	}
	switch {
	case raw.StateFunc != nil:
		m.state = raw.StateFunc()
	default:
		m.state = raw.State
	}
	if m.state == nil {
		m.state = map[string]any{}
	}
	m.merge(raw)
	return m
}

// Namespaced reports whether the module contributes a namespace segment.
func (m *Module) Namespaced() bool { return m.namespaced }

// Runtime reports whether the module was added with RegisterModule.
func (m *Module) Runtime() bool { return m.runtime }

// Child returns the child named key, or nil.
func (m *Module) Child(key string) *Module { return m.children[key] }

// ChildNames returns child names in registration order.
func (m *Module) ChildNames() []string { return sortedKeys(m.children) }

func (m *Module) addChild(key string, child *Module) {
	m.children[key] = child
}

func (m *Module) removeChild(key string) {
	delete(m.children, key)
}

// merge copies handlers from raw, replacing existing entries at the same key.
func (m *Module) merge(raw *RawModule) {
	for k, h := range raw.Mutations {
		m.mutations[k] = h
	}
	for k, a := range raw.Actions {
		m.actions[k] = a
	}
	for k, g := range raw.Getters {
		m.getters[k] = g
	}
}

// update applies a hot update to this node only.
func (m *Module) update(raw *RawModule) {
	m.namespaced = raw.Namespaced
	m.merge(raw)
}

func (m *Module) forEachMutation(fn func(key string, h MutationHandler)) {
	for _, k := range sortedKeys(m.mutations) {
		fn(k, m.mutations[k])
	}
}

func (m *Module) forEachAction(fn func(key string, a Action)) {
	for _, k := range sortedKeys(m.actions) {
		fn(k, m.actions[k])
	}
}

func (m *Module) forEachGetter(fn func(key string, g GetterHandler)) {
	for _, k := range sortedKeys(m.getters) {
		fn(k, m.getters[k])
	}
}

func (m *Module) forEachChild(fn func(key string, child *Module)) {
	for _, k := range sortedKeys(m.children) {
		fn(k, m.children[k])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
