package reactive

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_SetGet(t *testing.T) {
	rt := NewRuntime()
	o := rt.NewObject()

	o.Set("count", 1)
	o.Set("label", "x")
	o.Set("ok", true)
	o.Set("ratio", 0.5)

	assert.Equal(t, 1, o.Int("count"))
	assert.Equal(t, "x", o.String("label"))
	assert.True(t, o.Bool("ok"))
	assert.Equal(t, 0.5, o.Float("ratio"))
	assert.Equal(t, []string{"count", "label", "ok", "ratio"}, o.Keys())
	assert.Nil(t, o.Get("missing"))
	assert.Zero(t, o.Int("label"))
}

func TestObject_ObservesNestedValues(t *testing.T) {
	rt := NewRuntime()
	o := rt.NewObject()

	o.Set("todo", map[string]any{"title": "milk", "tags": []any{"a", "b"}})

	todo := o.Object("todo")
	require.NotNil(t, todo)
	assert.Equal(t, "milk", todo.String("title"))
	require.NotNil(t, todo.List("tags"))
	assert.Equal(t, 2, todo.List("tags").Len())
}

func TestObject_KeyLevelTracking(t *testing.T) {
	rt := NewRuntime()
	o := rt.Observe(map[string]any{"count": 0, "label": "x"}).(*Object)

	c := rt.Computed(func() any { return o.Int("count") })
	c.Get()

	o.Set("label", "y")
	assert.False(t, c.Stale())

	o.Set("count", 0)
	assert.False(t, c.Stale(), "writing the same value is a no-op")

	o.Set("count", 1)
	assert.True(t, c.Stale())
}

func TestObject_ShapeTracking(t *testing.T) {
	rt := NewRuntime()
	o := rt.NewObject()

	absent := rt.Computed(func() any { return o.Get("later") })
	size := rt.Computed(func() any { return o.Len() })
	assert.Nil(t, absent.Get())
	assert.Equal(t, 0, size.Get())

	o.Set("later", 5)
	assert.Equal(t, 5, absent.Get())
	assert.Equal(t, 1, size.Get())

	o.Delete("later")
	assert.Nil(t, absent.Get())
	assert.Equal(t, 0, size.Get())
	assert.False(t, o.Has("later"))

	o.Delete("later")
	assert.False(t, size.Stale())
}

func TestObject_FromMapSortsKeys(t *testing.T) {
	rt := NewRuntime()
	o := rt.Observe(map[string]any{"b": 1, "c": 3, "a": 2}).(*Object)

	assert.Equal(t, []string{"a", "b", "c"}, o.Keys())

	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2,"b":1,"c":3}`, string(data))
	assert.Equal(t, `{"a":2,"b":1,"c":3}`, string(data))
}

func TestObject_ForeignRuntimeIsCopied(t *testing.T) {
	one, two := NewRuntime(), NewRuntime()
	src := one.Observe(map[string]any{"n": 1}).(*Object)

	dst := two.Observe(src).(*Object)
	require.NotSame(t, src, dst)
	assert.Same(t, two, dst.Runtime())

	src.Set("n", 2)
	assert.Equal(t, 1, dst.Int("n"))
	assert.Same(t, src, one.Observe(src))
}

func TestSnapshot_Cycles(t *testing.T) {
	rt := NewRuntime()
	o := rt.NewObject()
	o.Set("name", "root")
	o.Set("self", o)
	shared := rt.NewList(1, 2)
	o.Set("left", shared)
	o.Set("right", shared)

	snap := o.Snapshot()

	assert.Equal(t, "root", snap["name"])
	self, ok := snap["self"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, reflect.ValueOf(snap).Pointer(), reflect.ValueOf(self).Pointer())
	left := snap["left"].([]any)
	right := snap["right"].([]any)
	assert.Equal(t, []any{1, 2}, left)
	assert.Same(t, &left[0], &right[0])
}

func TestList(t *testing.T) {
	rt := NewRuntime()
	l := rt.NewList("a")
	c := rt.Computed(func() any { return l.Len() })
	assert.Equal(t, 1, c.Get())

	l.Append("b", "c")
	assert.Equal(t, 3, c.Get())

	l.Insert(-5, "first")
	l.Insert(99, "last")
	assert.Equal(t, []any{"first", "a", "b", "c", "last"}, l.Items())

	assert.Equal(t, "a", l.RemoveAt(1))
	assert.Nil(t, l.RemoveAt(10))
	assert.Nil(t, l.At(-1))
	assert.Equal(t, 4, c.Get())

	l.Set(0, "first")
	assert.False(t, c.Stale())
	l.Set(0, map[string]any{"k": 1})
	_, isObject := l.At(0).(*Object)
	assert.True(t, isObject)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Equal(t, `[{"k":1},"b","c","last"]`, string(data))

	l.Clear()
	assert.Equal(t, 0, c.Get())
}

func TestSame(t *testing.T) {
	assert.True(t, same(nil, nil))
	assert.True(t, same(1, 1))
	assert.False(t, same(1, int64(1)))
	assert.False(t, same([]int{1}, []int{1}))
	assert.False(t, same(math.NaN(), math.NaN()))
}

func TestToInt(t *testing.T) {
	n, ok := ToInt(int64(5))
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	n, ok = ToInt(2.9)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = ToInt("5")
	assert.False(t, ok)

	f, ok := ToFloat(uint8(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)
}
