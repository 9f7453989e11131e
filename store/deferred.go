package store

import (
	"context"
	"sync"
)

// Deferred is the eventual result of an action.
//
// It settles exactly once, either resolved with a value or rejected with an
// error. Settling is safe from any goroutine. Callbacks registered with Then
// run synchronously on the goroutine that settles, or immediately if the
// Deferred has already settled.
//
// A nil *Deferred is what Dispatch returns for an unknown type. Await on it
// returns (nil, nil).
type Deferred struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	value     any
	err       error
	callbacks []func(any, error)
}

// NewDeferred creates a pending Deferred.
func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Resolved returns a Deferred already resolved with v.
func Resolved(v any) *Deferred {
	d := NewDeferred()
	d.Resolve(v)
	return d
}

// Rejected returns a Deferred already rejected with err.
func Rejected(err error) *Deferred {
	d := NewDeferred()
	d.Reject(err)
	return d
}

// Resolve settles d with v. Returns false if d had already settled.
func (d *Deferred) Resolve(v any) bool {
	return d.settle(v, nil)
}

// Reject settles d with err. Returns false if d had already settled.
func (d *Deferred) Reject(err error) bool {
	return d.settle(nil, err)
}

func (d *Deferred) settle(v any, err error) bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	if d.settled {
		d.mu.Unlock()
		return false
	}
	d.settled = true
	d.value = v
	d.err = err
	callbacks := d.callbacks
	d.callbacks = nil
	close(d.done)
	d.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Then registers fn to observe the outcome.
func (d *Deferred) Then(fn func(value any, err error)) {
	if d == nil {
		fn(nil, nil)
		return
	}
	d.mu.Lock()
	if !d.settled {
		d.callbacks = append(d.callbacks, fn)
		d.mu.Unlock()
		return
	}
	v, err := d.value, d.err
	d.mu.Unlock()
	fn(v, err)
}

// Done returns a channel closed once d settles.
func (d *Deferred) Done() <-chan struct{} {
	if d == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return d.done
}

// Result returns the outcome and whether d has settled.
func (d *Deferred) Result() (value any, err error, settled bool) {
	if d == nil {
		return nil, nil, true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.err, d.settled
}

// Await blocks until d settles or ctx is done.
func (d *Deferred) Await(ctx context.Context) (any, error) {
	if d == nil {
		return nil, nil
	}
	select {
	case <-d.done:
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.value, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// All resolves with every value, in argument order, once all resolve. It
// rejects with the first rejection, without waiting for the others.
func All(ds ...*Deferred) *Deferred {
	out := NewDeferred()
	if len(ds) == 0 {
		out.Resolve([]any{})
		return out
	}
	var mu sync.Mutex
	values := make([]any, len(ds))
	remaining := len(ds)
	for i, d := range ds {
		if d == nil {
			d = Resolved(nil)
		}
		d.Then(func(v any, err error) {
			if err != nil {
				out.Reject(err)
				return
			}
			mu.Lock()
			values[i] = v
			remaining--
			last := remaining == 0
			mu.Unlock()
			if last {
				out.Resolve(values)
			}
		})
	}
	return out
}

// toDeferred normalizes an action handler's return.
func toDeferred(v any, err error) *Deferred {
	if err != nil {
		return Rejected(err)
	}
	if d, ok := v.(*Deferred); ok {
		if d == nil {
			return Resolved(nil)
		}
		return d
	}
	return Resolved(v)
}
