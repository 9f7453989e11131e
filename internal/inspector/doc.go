// Package inspector records a store's history into a SQLite journal.
//
// A Journal implements store.DevtoolHook. Attached with store.WithDevtool,
// it writes one row per commit with the payload and the resulting state,
// both as canonical JSON, plus one row per rejected action. TravelTo puts a
// recorded state back into the store.
//
// The journal is a debugging record. The store never reads it unless asked
// to travel.
package inspector
