package reactive

// WatchOptions controls when a Watcher re-runs.
type WatchOptions struct {
	// Deep also depends on every slot reachable from the watched value, and
	// fires the callback on every change even when the value is the same
	// object.
	Deep bool

	// Sync re-runs inside the write that triggered it. Otherwise the re-run is
	// scheduled with NextTick and coalesced.
	Sync bool

	// Immediate calls the callback once with the initial value.
	Immediate bool
}

// Watcher re-evaluates a getter whenever one of the slots it read changes and
// calls back with the new and old values.
type Watcher struct {
	rt      *Runtime
	getter  func() any
	cb      func(newValue, oldValue any)
	opts    WatchOptions
	value   any
	deps    map[*Dep]struct{}
	newDeps map[*Dep]struct{}
	active  bool
	queued  bool
}

// Watch evaluates getter once to collect its deps and returns the running
// watcher. Call Stop to detach it.
func (rt *Runtime) Watch(getter func() any, cb func(newValue, oldValue any), opts WatchOptions) *Watcher {
	w := &Watcher{
		rt:     rt,
		getter: getter,
		cb:     cb,
		opts:   opts,
		deps:   make(map[*Dep]struct{}),
		active: true,
	}
	w.value = w.get()
	if opts.Immediate {
		w.cb(w.value, nil)
	}
	return w
}

// Value returns the value from the latest evaluation.
func (w *Watcher) Value() any {
	return w.value
}

// Active reports whether the watcher is still attached.
func (w *Watcher) Active() bool {
	return w.active
}

// Stop unsubscribes from every dep. A stopped watcher never calls back again.
func (w *Watcher) Stop() {
	if !w.active {
		return
	}
	w.active = false
	for d := range w.deps {
		d.unsubscribe(w)
	}
	w.deps = nil
}

// get runs the getter with w as the tracking target, then swaps the dep set:
// deps no longer read are unsubscribed, new ones subscribed.
func (w *Watcher) get() any {
	w.newDeps = make(map[*Dep]struct{})
	w.rt.push(w)
	var value any
	func() {
		defer w.rt.pop()
		value = w.getter()
		if w.opts.Deep {
			traverse(value, make(map[any]struct{}))
		}
	}()
	for d := range w.deps {
		if _, ok := w.newDeps[d]; !ok {
			d.unsubscribe(w)
		}
	}
	for d := range w.newDeps {
		if _, ok := w.deps[d]; !ok {
			d.subscribe(w)
		}
	}
	w.deps = w.newDeps
	w.newDeps = nil
	return value
}

func (w *Watcher) track(d *Dep) {
	w.newDeps[d] = struct{}{}
}

func (w *Watcher) update() {
	if !w.active {
		return
	}
	if w.opts.Sync {
		w.run()
		return
	}
	if w.queued {
		return
	}
	w.queued = true
	w.rt.NextTick(func() {
		w.queued = false
		w.run()
	})
}

func (w *Watcher) run() {
	if !w.active {
		return
	}
	value := w.get()
	if !same(value, w.value) || isContainer(value) || w.opts.Deep {
		old := w.value
		w.value = value
		w.cb(value, old)
	}
}
