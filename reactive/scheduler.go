package reactive

// TickQueue is a FIFO of deferred tasks.
//
// Tasks scheduled while the queue is flushing run in the same Flush, after
// the tasks that were already queued. Reentrant Flush calls return at once.
type TickQueue struct {
	tasks    []func()
	flushing bool
}

// NewTickQueue creates an empty queue.
func NewTickQueue() *TickQueue {
	return &TickQueue{tasks: make([]func(), 0, 8)}
}

// NextTick appends fn to the queue.
func (q *TickQueue) NextTick(fn func()) {
	q.tasks = append(q.tasks, fn)
}

// Len returns the number of queued tasks.
func (q *TickQueue) Len() int {
	return len(q.tasks)
}

// Flush runs queued tasks until the queue is empty.
func (q *TickQueue) Flush() {
	if q.flushing {
		return
	}
	q.flushing = true
	defer func() { q.flushing = false }()
	for len(q.tasks) > 0 {
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		fn()
	}
}
