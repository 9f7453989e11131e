// Package store implements a hierarchical, namespaced state container.
//
// A Store holds one state tree built from a tree of modules. State changes
// only through mutations, synchronous handlers run by Commit. Actions, run
// by Dispatch, orchestrate work and may be asynchronous: each returns a
// Deferred. Getters derive values from state and are memoized by the
// reactive package, recomputing only when a slot they read has changed.
//
// Modules may be namespaced, in which case their mutations, actions and
// getters are registered under "name/" prefixed types. Modules can be
// added and removed at runtime, and their handlers swapped in place with
// HotUpdate while state is kept.
//
//	rt := reactive.NewRuntime()
//	s, err := store.New(rt, &store.RawModule{
//		State: map[string]any{"count": 0},
//		Mutations: map[string]store.MutationHandler{
//			"inc": func(state *reactive.Object, _ any) {
//				state.Set("count", state.Int("count")+1)
//			},
//		},
//	})
//	s.Commit("inc", nil)
//
// Non-fatal problems (unknown types, duplicate getters, strict-mode
// violations) never interrupt a call. They go to the configured Reporter,
// which logs through slog by default.
package store
