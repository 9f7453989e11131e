package reactive

// depRecord pins the version of a dep at the time it was read.
type depRecord struct {
	dep     *Dep
	version uint64
}

// Computed is a lazily evaluated, memoized value.
//
// Get recomputes only when a dep read during the previous evaluation has a
// newer version than the one recorded. When one Computed reads another, the
// outer one records the inner one's deps as well, so invalidation flows
// through chains of derived values without any push.
type Computed struct {
	rt         *Runtime
	fn         func() any
	value      any
	deps       []depRecord
	index      map[*Dep]int
	evaluated  bool
	evaluating bool
	disposed   bool
	runs       int
}

// Computed creates a derived value. fn is not called until the first Get.
func (rt *Runtime) Computed(fn func() any) *Computed {
	return &Computed{rt: rt, fn: fn}
}

// Get returns the memoized value, recomputing it first if it is stale.
//
// Panics if the computation reads itself, directly or through other
// computed values.
func (c *Computed) Get() any {
	if c.disposed {
		return nil
	}
	if c.stale() {
		c.evaluate()
	}
	if t := c.rt.target(); t != nil {
		for _, r := range c.deps {
			t.track(r.dep)
		}
	}
	return c.value
}

// Runs returns how many times the value has been computed.
func (c *Computed) Runs() int {
	return c.runs
}

// Stale reports whether the next Get will recompute.
func (c *Computed) Stale() bool {
	return c.stale()
}

// Dispose drops the function and cached value. Get returns nil afterwards.
func (c *Computed) Dispose() {
	c.disposed = true
	c.fn = nil
	c.value = nil
	c.deps = nil
	c.index = nil
}

func (c *Computed) stale() bool {
	if !c.evaluated {
		return true
	}
	for _, r := range c.deps {
		if r.dep.version != r.version {
			return true
		}
	}
	return false
}

func (c *Computed) evaluate() {
	if c.evaluating {
		panic("reactive: computed value depends on itself")
	}
	c.evaluating = true
	c.deps = c.deps[:0]
	c.index = make(map[*Dep]int)
	c.rt.push(c)
	defer func() {
		c.rt.pop()
		c.evaluating = false
	}()
	c.value = c.fn()
	c.evaluated = true
	c.runs++
}

func (c *Computed) track(d *Dep) {
	if i, ok := c.index[d]; ok {
		// Keep the oldest version seen so a write during evaluation still
		// marks the value stale.
		if d.version < c.deps[i].version {
			c.deps[i].version = d.version
		}
		return
	}
	c.index[d] = len(c.deps)
	c.deps = append(c.deps, depRecord{dep: d, version: d.version})
}
