// Package reactive is the dependency-tracking arena that backs a store.
//
// A Runtime owns three things:
//   - tracked values: Object (string-keyed, ordered) and List, created through
//     Runtime.Observe or Runtime.NewObject
//   - derived values: Computed (lazy, memoized) and Watcher (eager, push)
//   - a next-tick queue, drained when the outermost Batch returns
//
// # Invalidation
//
// Every tracked slot owns a Dep with a monotonically increasing version.
// Reading a slot while a Computed or Watcher is evaluating records the Dep
// and the version that was seen. A write bumps the version and pushes a
// notification to subscribed watchers.
//
// Computed values never subscribe. On access they compare the recorded
// versions with the current ones and recompute only if one moved. This
// makes invalidation auditable: a computed value is stale exactly when a
// slot it read has been written since.
//
// # Threading
//
// A Runtime is NOT safe for concurrent use. All reads and writes of tracked
// values must happen on one logical goroutine.
package reactive
