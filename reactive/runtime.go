package reactive

// Scheduler defers work until after the current synchronous unit of work.
//
// The default scheduler is the Runtime's own TickQueue, drained when the
// outermost Batch returns or when Flush is called. Hosts with an event loop
// can supply their own implementation with WithScheduler.
type Scheduler interface {
	NextTick(fn func())
}

// tracker receives the deps read during an evaluation.
type tracker interface {
	track(d *Dep)
}

// Runtime is the reactive arena shared by all tracked values it creates.
type Runtime struct {
	nextID uint64
	stack  []tracker

	queue *TickQueue
	sched Scheduler
	depth int
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithScheduler replaces the default next-tick queue.
// When set, Batch no longer drains anything on exit.
func WithScheduler(s Scheduler) Option {
	return func(rt *Runtime) {
		rt.sched = s
	}
}

// NewRuntime creates an empty arena.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{queue: NewTickQueue()}
	rt.sched = rt.queue
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// NextTick schedules fn to run after the current synchronous unit of work.
// fn is never run synchronously from inside NextTick.
func (rt *Runtime) NextTick(fn func()) {
	rt.sched.NextTick(fn)
}

// Batch runs fn as one synchronous unit of work. Work scheduled with
// NextTick during fn runs when the outermost Batch returns.
func (rt *Runtime) Batch(fn func()) {
	rt.depth++
	defer func() {
		rt.depth--
		if rt.depth == 0 && rt.sched == Scheduler(rt.queue) {
			rt.queue.Flush()
		}
	}()
	fn()
}

// Flush drains the default next-tick queue. It is a no-op while a Batch is
// open, and when a custom scheduler is installed.
func (rt *Runtime) Flush() {
	if rt.depth > 0 || rt.sched != Scheduler(rt.queue) {
		return
	}
	rt.queue.Flush()
}

// Pending reports how many tasks wait in the default next-tick queue.
func (rt *Runtime) Pending() int {
	return rt.queue.Len()
}

func (rt *Runtime) newDep() *Dep {
	rt.nextID++
	return &Dep{id: rt.nextID, rt: rt}
}

func (rt *Runtime) push(t tracker) {
	rt.stack = append(rt.stack, t)
}

func (rt *Runtime) pop() {
	rt.stack[len(rt.stack)-1] = nil
	rt.stack = rt.stack[:len(rt.stack)-1]
}

func (rt *Runtime) target() tracker {
	if len(rt.stack) == 0 {
		return nil
	}
	return rt.stack[len(rt.stack)-1]
}

// Untracked runs fn with dependency collection suspended.
func (rt *Runtime) Untracked(fn func()) {
	saved := rt.stack
	rt.stack = nil
	defer func() { rt.stack = saved }()
	fn()
}
