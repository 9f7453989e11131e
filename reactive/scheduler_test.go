package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickQueue_FIFOAndReentrant(t *testing.T) {
	q := NewTickQueue()
	var order []string

	q.NextTick(func() {
		order = append(order, "a")
		q.NextTick(func() { order = append(order, "c") })
		q.Flush()
	})
	q.NextTick(func() { order = append(order, "b") })
	assert.Equal(t, 2, q.Len())

	q.Flush()
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Zero(t, q.Len())
}

func TestRuntime_BatchFlushesOutermost(t *testing.T) {
	rt := NewRuntime()
	var ran []string

	rt.Batch(func() {
		rt.Batch(func() {
			rt.NextTick(func() { ran = append(ran, "inner") })
		})
		assert.Empty(t, ran)
		rt.Flush()
		assert.Empty(t, ran, "Flush is a no-op inside a batch")
	})

	assert.Equal(t, []string{"inner"}, ran)
}

type manualScheduler struct {
	tasks []func()
}

func (m *manualScheduler) NextTick(fn func()) {
	m.tasks = append(m.tasks, fn)
}

func TestRuntime_CustomScheduler(t *testing.T) {
	sched := &manualScheduler{}
	rt := NewRuntime(WithScheduler(sched))

	ran := false
	rt.Batch(func() {
		rt.NextTick(func() { ran = true })
	})
	rt.Flush()

	assert.False(t, ran)
	assert.Len(t, sched.tasks, 1)

	sched.tasks[0]()
	assert.True(t, ran)
}
