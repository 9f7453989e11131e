// Package blueprint declares stores in data instead of Go.
//
// A blueprint is a YAML or CUE document:
//
//	strict: true
//	module:
//	  state: {count: 0, todos: []}
//	  mutations:
//	    increment: [{op: inc, path: count}]
//	    add:       [{op: push, path: todos, from: payload}]
//	  getters:
//	    total: {len: todos}
//	  actions:
//	    addTwice:
//	      steps:
//	        - {commit: add, from: payload}
//	        - {commit: add, from: payload}
//	  modules:
//	    cart: {namespaced: true, state: {items: []}}
//
// Mutations are lists of ops applied in order. Each op names a dotted path
// relative to the module's local state and takes its operand from a literal
// value or from the payload (from: payload or from: payload.field).
//
// Getters select a path, count it (len), add it up (sum) or alias another
// local getter. Actions run commit, dispatch and fail steps in order.
//
// Compile turns a ModuleSpec into a *store.RawModule whose handlers
// interpret these declarations. Errors name the offending field.
package blueprint
