package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatch_AsyncCoalesced(t *testing.T) {
	rt := NewRuntime()
	o := rt.Observe(map[string]any{"n": 0}).(*Object)

	var calls [][2]any
	rt.Watch(
		func() any { return o.Int("n") },
		func(newValue, oldValue any) { calls = append(calls, [2]any{newValue, oldValue}) },
		WatchOptions{},
	)

	rt.Batch(func() {
		o.Set("n", 1)
		o.Set("n", 2)
		assert.Empty(t, calls)
		assert.Equal(t, 1, rt.Pending())
	})

	assert.Equal(t, [][2]any{{2, 0}}, calls)
}

func TestWatch_FlushOutsideBatch(t *testing.T) {
	rt := NewRuntime()
	o := rt.Observe(map[string]any{"n": 0}).(*Object)

	var got []any
	rt.Watch(func() any { return o.Int("n") }, func(v, _ any) { got = append(got, v) }, WatchOptions{})

	o.Set("n", 3)
	assert.Empty(t, got)

	rt.Flush()
	assert.Equal(t, []any{3}, got)
}

func TestWatch_SyncAndImmediate(t *testing.T) {
	rt := NewRuntime()
	o := rt.Observe(map[string]any{"n": 0}).(*Object)

	var got []any
	rt.Watch(
		func() any { return o.Int("n") },
		func(v, _ any) { got = append(got, v) },
		WatchOptions{Sync: true, Immediate: true},
	)
	assert.Equal(t, []any{0}, got)

	o.Set("n", 1)
	o.Set("n", 1)
	o.Set("n", 2)
	assert.Equal(t, []any{0, 1, 2}, got)
}

func TestWatch_DeleteNotifiesOnce(t *testing.T) {
	rt := NewRuntime()
	o := rt.Observe(map[string]any{"a": 1, "b": 2}).(*Object)

	runs := 0
	rt.Watch(func() any {
		for _, k := range o.Keys() {
			o.Get(k)
		}
		return nil
	}, func(any, any) { runs++ }, WatchOptions{Deep: true, Sync: true})

	o.Delete("a")
	assert.Equal(t, 1, runs)
	assert.Equal(t, []string{"b"}, o.Keys())
}

func TestWatch_Deep(t *testing.T) {
	rt := NewRuntime()
	o := rt.Observe(map[string]any{
		"todo": map[string]any{"tags": []any{"a"}},
	}).(*Object)

	deep, shallow := 0, 0
	rt.Watch(func() any { return o.Object("todo") }, func(any, any) { deep++ }, WatchOptions{Deep: true, Sync: true})
	rt.Watch(func() any { return o.Object("todo") }, func(any, any) { shallow++ }, WatchOptions{Sync: true})

	o.Object("todo").List("tags").Append("b")
	assert.Equal(t, 1, deep)
	assert.Equal(t, 0, shallow)

	o.Set("todo", map[string]any{})
	assert.Equal(t, 2, deep)
	assert.Equal(t, 1, shallow)
}

func TestWatch_DropsStaleDeps(t *testing.T) {
	rt := NewRuntime()
	o := rt.Observe(map[string]any{"useA": true, "a": 1, "b": 2}).(*Object)

	runs := 0
	rt.Watch(
		func() any {
			if o.Bool("useA") {
				return o.Int("a")
			}
			return o.Int("b")
		},
		func(any, any) { runs++ },
		WatchOptions{Sync: true},
	)

	o.Set("useA", false)
	assert.Equal(t, 1, runs)

	o.Set("a", 10)
	assert.Equal(t, 1, runs)

	o.Set("b", 20)
	assert.Equal(t, 2, runs)
}

func TestWatch_Stop(t *testing.T) {
	rt := NewRuntime()
	o := rt.Observe(map[string]any{"n": 0}).(*Object)

	runs := 0
	w := rt.Watch(func() any { return o.Int("n") }, func(any, any) { runs++ }, WatchOptions{})
	o.Set("n", 1)
	w.Stop()
	w.Stop()
	rt.Flush()

	assert.False(t, w.Active())
	assert.Equal(t, 0, runs)
	assert.Equal(t, 0, w.Value())
}
