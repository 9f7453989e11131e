package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/stately/reactive"
)

// Store is the single source of truth for an application's state.
//
// Thread-safety model:
//   - A Store is NOT safe for concurrent use. Commit, Dispatch and the
//     structural operations (RegisterModule, UnregisterModule, HotUpdate)
//     must all run on one logical goroutine.
//   - Deferred values returned by Dispatch may be awaited and settled from
//     any goroutine.
//
// INVARIANTS:
//   - the state tree mirrors the module tree
//   - getter keys are unique; mutation and action keys are not
//   - committing is true only while mutation handlers run
type Store struct {
	rt     *reactive.Runtime
	cfg    Config
	logger *slog.Logger

	committing bool

	mutations      map[string][]mutationEntry
	actions        map[string][]actionEntry
	wrappedGetters map[string]wrappedGetter
	getterOrder    []string
	namespaceMap   map[string]*Module
	modules        *ModuleCollection

	subscribers       []*subscription[Mutation]
	actionSubscribers []*subscription[ActionEvent]

	binding    *binding
	getters    *Getters
	generation uint64

	devtool DevtoolHook
}

// New builds a store from the root module.
//
// rt is the reactive arena the store binds its state and getters to. It is
// required: a nil runtime returns a config error.
func New(rt *reactive.Runtime, root *RawModule, opts ...Option) (*Store, error) {
	if rt == nil {
		return nil, configError("a reactive runtime is required before creating a store", nil)
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.validate()

	modules, err := NewModuleCollection(root)
	if err != nil {
		return nil, err
	}

	s := &Store{
		rt:             rt,
		cfg:            cfg,
		logger:         cfg.Logger,
		mutations:      make(map[string][]mutationEntry),
		actions:        make(map[string][]actionEntry),
		wrappedGetters: make(map[string]wrappedGetter),
		namespaceMap:   make(map[string]*Module),
		modules:        modules,
	}

	rt.Batch(func() {
		state, _ := rt.Observe(modules.Root().state).(*reactive.Object)
		s.installModule(state, nil, modules.Root(), false)
		s.resetBinding(state)

		for _, plugin := range cfg.Plugins {
			plugin(s)
		}
		if cfg.Devtool != nil {
			attachDevtool(s, cfg.Devtool)
		}
	})

	return s, nil
}

// Runtime returns the arena the store is bound to.
func (s *Store) Runtime() *reactive.Runtime {
	return s.rt
}

// State returns the root state object.
func (s *Store) State() *reactive.Object {
	st, _ := s.binding.data.Get("state").(*reactive.Object)
	return st
}

// Getters returns every getter by qualified name.
func (s *Store) Getters() *Getters {
	return s.getters
}

// Strict reports whether strict mode is on.
func (s *Store) Strict() bool {
	return s.cfg.Strict
}

// Committing reports whether mutation handlers are running right now.
func (s *Store) Committing() bool {
	return s.committing
}

// Commit runs every mutation handler registered for typ, in registration
// order, then notifies subscribers. An unknown type is reported and ignored.
func (s *Store) Commit(typ string, payload any, opts ...CallOption) {
	o := applyCallOptions(opts)
	entry := s.mutations[typ]
	if len(entry) == 0 {
		if s.cfg.DevMode {
			s.report(&Error{
				Code:    ErrCodeUnknownType,
				Message: fmt.Sprintf("unknown mutation type: %s", typ),
				Type:    typ,
			})
		}
		return
	}

	mutation := Mutation{Type: typ, Payload: payload}
	s.rt.Batch(func() {
		s.withCommit(func() {
			for _, handler := range entry {
				handler(payload)
			}
		})
		for _, sub := range snapshotSubs(s.subscribers) {
			sub.fn(mutation, s.State())
		}
	})

	if o.silent && s.cfg.DevMode {
		s.report(&Error{
			Code:    ErrCodeDeprecated,
			Message: fmt.Sprintf("mutation type: %s. Silent option has been removed; filter in the subscriber instead", typ),
			Type:    typ,
		})
	}
}

// CommitObject commits an object-style mutation. The type comes from obj and
// obj itself is the payload.
func (s *Store) CommitObject(obj any, opts ...CallOption) {
	typ, payload, err := unifyObjectStyle(obj)
	if err != nil {
		s.report(&Error{Code: ErrCodeUnknownType, Message: err.Error()})
		return
	}
	s.Commit(typ, payload, opts...)
}

// Dispatch runs every action handler registered for typ.
//
// Action subscribers are notified first. With one handler its Deferred is
// returned as is; with several, the returned Deferred resolves once all of
// them resolve and rejects on the first rejection. An unknown type is
// reported and returns nil; a nil *Deferred behaves as one resolved with
// nil, so Then, Await and Result are safe to call on it.
func (s *Store) Dispatch(ctx context.Context, typ string, payload any) *Deferred {
	entry := s.actions[typ]
	if len(entry) == 0 {
		if s.cfg.DevMode {
			s.report(&Error{
				Code:    ErrCodeUnknownType,
				Message: fmt.Sprintf("unknown action type: %s", typ),
				Type:    typ,
			})
		}
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var result *Deferred
	s.rt.Batch(func() {
		action := ActionEvent{Type: typ, Payload: payload}
		for _, sub := range snapshotSubs(s.actionSubscribers) {
			sub.fn(action, s.State())
		}
		if len(entry) == 1 {
			result = entry[0](ctx, payload)
			return
		}
		pending := make([]*Deferred, len(entry))
		for i, handler := range entry {
			pending[i] = handler(ctx, payload)
		}
		result = All(pending...)
	})
	return result
}

// DispatchObject dispatches an object-style action.
func (s *Store) DispatchObject(ctx context.Context, obj any) *Deferred {
	typ, payload, err := unifyObjectStyle(obj)
	if err != nil {
		s.report(&Error{Code: ErrCodeUnknownType, Message: err.Error()})
		return nil
	}
	return s.Dispatch(ctx, typ, payload)
}

// Subscribe calls fn after every commit, with the mutation and the state
// after all handlers ran. The returned function removes this registration.
// Subscriptions are not de-duplicated: passing the same function twice
// registers it twice.
func (s *Store) Subscribe(fn func(m Mutation, state *reactive.Object)) (unsubscribe func()) {
	return genericSubscribe(&s.subscribers, fn)
}

// SubscribeAction calls fn before the handlers of every dispatch. Like
// Subscribe, repeated registrations of one function are kept.
func (s *Store) SubscribeAction(fn func(a ActionEvent, state *reactive.Object)) (unsubscribe func()) {
	return genericSubscribe(&s.actionSubscribers, fn)
}

// WatchOption tunes Watch.
type WatchOption func(*reactive.WatchOptions)

// Deep also fires on changes nested anywhere inside the watched value.
func Deep() WatchOption { return func(o *reactive.WatchOptions) { o.Deep = true } }

// Immediate fires once right away with the initial value.
func Immediate() WatchOption { return func(o *reactive.WatchOptions) { o.Immediate = true } }

// Sync fires inside the write instead of on the next tick.
func Sync() WatchOption { return func(o *reactive.WatchOptions) { o.Sync = true } }

// Watch calls cb whenever getter(state, getters) changes.
func (s *Store) Watch(getter func(state *reactive.Object, getters *Getters) any, cb func(newValue, oldValue any), opts ...WatchOption) (unwatch func()) {
	var wo reactive.WatchOptions
	for _, opt := range opts {
		opt(&wo)
	}
	var w *reactive.Watcher
	s.rt.Batch(func() {
		w = s.rt.Watch(func() any {
			return getter(s.State(), s.Getters())
		}, cb, wo)
	})
	return w.Stop
}

// ReplaceState swaps the whole state tree. It runs inside the commit guard,
// so strict mode does not flag it. state is a map[string]any or an
// *reactive.Object.
func (s *Store) ReplaceState(state any) {
	s.rt.Batch(func() {
		s.withCommit(func() {
			s.binding.data.Set("state", s.rt.Observe(state))
		})
	})
}

// RegisterOption tunes RegisterModule.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	preserveState bool
}

// PreserveState keeps whatever is already at the module's state slot
// instead of attaching the module's initial state.
func PreserveState() RegisterOption {
	return func(o *registerOptions) { o.preserveState = true }
}

// RegisterModule adds a module at path at runtime and rebuilds the binding.
func (s *Store) RegisterModule(path []string, raw *RawModule, opts ...RegisterOption) error {
	if err := validatePath(path); err != nil {
		return err
	}
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := s.modules.Register(path, raw, true); err != nil {
		return err
	}
	module, err := s.modules.Get(path)
	if err != nil {
		return err
	}
	s.rt.Batch(func() {
		state := s.State()
		s.installModule(state, path, module, o.preserveState)
		s.resetBinding(state)
	})
	return nil
}

// UnregisterModule removes a runtime module and its state slot, then
// rebuilds every table from the remaining tree.
func (s *Store) UnregisterModule(path []string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	removed, err := s.modules.Unregister(path)
	if err != nil {
		var se *Error
		if errors.As(err, &se) && se.Code == ErrCodeStaticModule {
			s.report(se)
			return nil
		}
		return err
	}
	if !removed {
		return nil
	}
	s.rt.Batch(func() {
		s.withCommit(func() {
			if parent := nestedState(s.State(), path[:len(path)-1]); parent != nil {
				parent.Delete(path[len(path)-1])
			}
		})
		s.resetStore(true)
	})
	return nil
}

// HotUpdate swaps in new mutation, action and getter definitions while
// keeping state. New modules in raw are reported and skipped.
func (s *Store) HotUpdate(raw *RawModule) {
	if raw == nil {
		return
	}
	s.rt.Batch(func() {
		s.modules.Update(raw, s.report)
		s.resetStore(true)
	})
}

// Flush runs deferred work (binding disposal, non-sync watchers) for hosts
// that write state outside any store call.
func (s *Store) Flush() {
	s.rt.Flush()
}

// resetStore rebuilds every table from the module tree and rebinds.
func (s *Store) resetStore(hot bool) {
	s.actions = make(map[string][]actionEntry)
	s.mutations = make(map[string][]mutationEntry)
	s.wrappedGetters = make(map[string]wrappedGetter)
	s.getterOrder = nil
	s.namespaceMap = make(map[string]*Module)

	state := s.State()
	s.installModule(state, nil, s.modules.Root(), hot)
	s.resetBinding(state)
}

// withCommit runs fn with the commit guard raised, restoring the previous
// value afterwards so nested commits keep it raised.
func (s *Store) withCommit(fn func()) {
	committing := s.committing
	s.committing = true
	defer func() { s.committing = committing }()
	fn()
}

func (s *Store) report(err *Error) {
	s.cfg.Reporter.Report(err)
}

// Namespaces returns the namespaced modules by qualified prefix.
func (s *Store) Namespaces() map[string]*Module {
	out := make(map[string]*Module, len(s.namespaceMap))
	for k, v := range s.namespaceMap {
		out[k] = v
	}
	return out
}

// MutationTypes returns every registered mutation type, sorted.
func (s *Store) MutationTypes() []string { return sortedKeys(s.mutations) }

// ActionTypes returns every registered action type, sorted.
func (s *Store) ActionTypes() []string { return sortedKeys(s.actions) }

func validatePath(path []string) error {
	if len(path) == 0 {
		return configError("cannot register the root module by using RegisterModule", nil)
	}
	for _, key := range path {
		if key == "" {
			return configError("module path segments must be non-empty", clonePath(path))
		}
	}
	return nil
}
