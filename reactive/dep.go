package reactive

import "slices"

// Dep is one tracked slot: an object key, an object's key set, or a list.
//
// INVARIANTS:
//   - version only ever increases
//   - subs holds each Watcher at most once, in subscription order
type Dep struct {
	id      uint64
	rt      *Runtime
	version uint64
	subs    []*Watcher
}

// Version returns the number of writes observed by this dep.
func (d *Dep) Version() uint64 {
	return d.version
}

// depend records d in the evaluation currently running, if any.
func (d *Dep) depend() {
	if t := d.rt.target(); t != nil {
		t.track(d)
	}
}

// notify bumps the version and pushes the change to subscribed watchers.
func (d *Dep) notify() {
	notifyAll(d)
}

// notifyAll bumps every dep's version before any watcher runs, then updates
// each subscribed watcher once even if it reads several of deps.
// Subscribers are copied first: a sync watcher re-subscribes while running.
func notifyAll(deps ...*Dep) {
	var subs []*Watcher
	for _, d := range deps {
		d.version++
		for _, w := range d.subs {
			if !slices.Contains(subs, w) {
				subs = append(subs, w)
			}
		}
	}
	for _, w := range subs {
		w.update()
	}
}

func (d *Dep) subscribe(w *Watcher) {
	for _, s := range d.subs {
		if s == w {
			return
		}
	}
	d.subs = append(d.subs, w)
}

func (d *Dep) unsubscribe(w *Watcher) {
	for i, s := range d.subs {
		if s == w {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}
