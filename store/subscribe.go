package store

import (
	"slices"

	"github.com/roach88/stately/reactive"
)

type subscription[T any] struct {
	fn func(T, *reactive.Object)
}

// genericSubscribe appends a registration to subs. Each call is its own
// registration; the returned function removes only that one and is safe to
// call more than once.
func genericSubscribe[T any](subs *[]*subscription[T], fn func(T, *reactive.Object)) func() {
	sub := &subscription[T]{fn: fn}
	*subs = append(*subs, sub)
	return func() {
		i := slices.Index(*subs, sub)
		if i < 0 {
			return
		}
		*subs = slices.Delete(*subs, i, i+1)
	}
}

// snapshotSubs copies subs so a subscriber that unsubscribes during
// notification does not skip its neighbour.
func snapshotSubs[T any](subs []*subscription[T]) []*subscription[T] {
	return slices.Clone(subs)
}
