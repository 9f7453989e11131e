package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stately/reactive"
)

func TestFromGo(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  Value
	}{
		{"nil", nil, Null{}},
		{"string", "x", String("x")},
		{"int", 3, Int(3)},
		{"int64", int64(-4), Int(-4)},
		{"uint8", uint8(7), Int(7)},
		{"float", 1.5, Float(1.5)},
		{"bool", true, Bool(true)},
		{"slice", []any{1, "a", nil}, Array{Int(1), String("a"), Null{}}},
		{"map", map[string]any{"a": map[string]any{"b": false}}, Object{"a": Object{"b": Bool(false)}}},
		{"value passthrough", Int(9), Int(9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromGoTracked(t *testing.T) {
	rt := reactive.NewRuntime()
	state := rt.Observe(map[string]any{"todos": []any{"milk"}, "count": 2}).(*reactive.Object)

	got, err := FromGo(state)
	require.NoError(t, err)
	assert.Equal(t, Object{"todos": Array{String("milk")}, "count": Int(2)}, got)
}

func TestFromGoRejects(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	_, err := FromGo(cyclic)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$.self: cyclic value")

	_, err = FromGo(struct{}{})
	assert.Error(t, err)

	zero := 0.0
	_, err = FromGo(map[string]any{"n": 1 / zero})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$.n")
}

func TestFromGoSharedIsNotCyclic(t *testing.T) {
	shared := []any{1}
	_, err := FromGo(map[string]any{"a": shared, "b": shared})
	assert.NoError(t, err)
}

func TestToGo(t *testing.T) {
	v := Object{
		"n":    Int(1),
		"f":    Float(0.5),
		"s":    String("x"),
		"b":    Bool(true),
		"null": Null{},
		"list": Array{Int(2)},
	}
	assert.Equal(t, map[string]any{
		"n":    1,
		"f":    0.5,
		"s":    "x",
		"b":    true,
		"null": nil,
		"list": []any{2},
	}, ToGo(v))
}

func TestParse(t *testing.T) {
	v, err := Parse([]byte(`{"a":1,"b":1.25,"c":[true,null],"d":1e2}`))
	require.NoError(t, err)
	assert.Equal(t, Object{
		"a": Int(1),
		"b": Float(1.25),
		"c": Array{Bool(true), Null{}},
		"d": Float(100),
	}, v)

	_, err = Parse([]byte(`{"a":1} {}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{`))
	assert.Error(t, err)
}

func TestSortedKeysUTF16Order(t *testing.T) {
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
		"b":          Int(3),
		"a":          Int(4),
	}
	assert.Equal(t, []string{"a", "b", "\U00010000", "\uE000"}, obj.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Equal(t, 0, compareKeysRFC8785("a", "a"))
	assert.Equal(t, -1, compareKeysRFC8785("a", "ab"))
	assert.Equal(t, 1, compareKeysRFC8785("b", "a"))
	assert.Equal(t, -1, compareKeysRFC8785("\U00010000", "\uE000"))
}

type labeled struct {
	Label string `json:"label"`
}

func TestFromAny(t *testing.T) {
	assert.Equal(t, Int(1), FromAny(1))
	assert.Equal(t, Object{"label": String("x")}, FromAny(labeled{Label: "x"}))

	ch := make(chan int)
	assert.IsType(t, String(""), FromAny(ch))
}
