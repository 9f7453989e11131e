// Package harness runs declarative store scenarios.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: cart_checkout
//	description: "What this scenario validates"
//	blueprint: ../blueprints/cart.yaml   # or an inline store: {...}
//	steps:
//	  - {commit: cart/add, payload: apple}
//	  - {dispatch: checkout, expect_error: "empty cart"}
//	  - register: coupons
//	    module: {namespaced: true, state: {codes: []}}
//	  - {unregister: coupons}
//	  - hot_update: {mutations: {...}}
//	  - {replace_state: {count: 1}}
//	  - {write: {path: count, value: 2}}
//	assertions:
//	  - {type: state_equals, path: cart.items, value: [apple]}
//	  - {type: getter_equals, getter: cart/size, value: 1}
//	  - {type: mutation_count, mutation: cart/add, count: 1}
//	  - {type: report_count, code: STRICT_MODE_VIOLATION, count: 1}
//	  - {type: trace_order, mutations: [cart/add, cart/clear]}
//
// State paths are dotted; module paths are slash separated like namespaces.
// A write step changes state outside any mutation, which strict stores
// report.
//
// # Deterministic Testing
//
// Every run builds a fresh store on its own runtime and stamps trace events
// with a logical clock (testutil.SeqClock), so the same scenario yields a
// byte-identical canonical trace. RunWithGolden compares that trace and the
// final state with testdata/golden/<name>.golden:
//
//	go test ./internal/harness -update
//
// regenerates the golden files.
package harness
