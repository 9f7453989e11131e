package blueprint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stately/internal/testutil"
	"github.com/roach88/stately/reactive"
	"github.com/roach88/stately/store"
)

func build(t *testing.T, bp *Blueprint) (*store.Store, *testutil.Recorder) {
	t.Helper()
	rec := &testutil.Recorder{}
	s, err := Build(reactive.NewRuntime(), bp,
		store.WithLogger(testutil.DiscardLogger()),
		store.WithReporter(rec),
	)
	require.NoError(t, err)
	return s, rec
}

func TestLoadFile_YAMLAndCUEBehaveAlike(t *testing.T) {
	for _, file := range []string{"todo.yaml", "todo.cue"} {
		t.Run(file, func(t *testing.T) {
			ctx := context.Background()
			bp, err := LoadFile(filepath.Join("testdata", file))
			require.NoError(t, err)

			s, rec := build(t, bp)
			assert.True(t, s.Strict())

			s.Commit("increment", nil)
			s.Commit("incrementBy", map[string]any{"by": 2})
			s.Commit("add", "milk")
			_, err = s.Dispatch(ctx, "addTwice", "eggs").Await(ctx)
			require.NoError(t, err)

			assert.Equal(t, 6, s.State().Int("count"))
			assert.Equal(t, 3, s.Getters().Get("total"))
			assert.Equal(t, 3, s.Getters().Get("alias"))
			assert.Equal(t, "ann", s.Getters().Get("name"))

			s.Commit("rename", map[string]any{"name": "bo"})
			s.Commit("promote", nil)
			assert.Equal(t, "bo", s.Getters().Get("name"))

			_, err = s.Dispatch(ctx, "explode", nil).Await(ctx)
			require.EqualError(t, err, "no luck")

			_, err = s.Dispatch(ctx, "cart/buy", 2.5).Await(ctx)
			require.NoError(t, err)
			_, err = s.Dispatch(ctx, "announce", nil).Await(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3.5, s.Getters().Get("cart/sum"))

			s.Commit("forget", nil)
			assert.Nil(t, s.Getters().Get("name"))

			assert.Equal(t, map[string]any{
				"count": 8,
				"todos": []any{"milk", "eggs", "eggs"},
				"user":  map[string]any{"admin": true},
				"cart":  map[string]any{"prices": []any{2.5, 1}},
			}, s.State().Snapshot())
			assert.Zero(t, rec.Count(""))
		})
	}
}

func TestBlueprint_Options(t *testing.T) {
	off := false
	bp := &Blueprint{DevMode: &off}
	s, rec := build(t, bp)
	assert.False(t, s.Strict())

	s.Commit("missing", nil)
	assert.Zero(t, rec.Count(store.ErrCodeUnknownType))
}

func TestCompile_OpsCreateMissingParents(t *testing.T) {
	bp, err := ParseYAML([]byte(`
module:
  mutations:
    deep: [{op: set, path: a.b.c, value: 1}]
    flag: [{op: toggle, path: x.on}]
    drop: [{op: delete, path: nowhere.key}]
    log: [{op: push, path: lines, from: payload}]
`))
	require.NoError(t, err)
	s, _ := build(t, bp)

	s.Commit("deep", nil)
	s.Commit("flag", nil)
	s.Commit("drop", nil)
	s.Commit("log", map[string]any{"n": 1})
	s.Commit("log", "b")

	assert.Equal(t, map[string]any{
		"a":     map[string]any{"b": map[string]any{"c": 1}},
		"x":     map[string]any{"on": true},
		"lines": []any{map[string]any{"n": 1}, "b"},
	}, s.State().Snapshot())
}

func TestCompile_IncRejectsNonNumbers(t *testing.T) {
	bp, err := ParseYAML([]byte(`
module:
  state: {name: ann}
  mutations:
    bump: [{op: inc, path: name}]
`))
	require.NoError(t, err)
	s, _ := build(t, bp)

	assert.Panics(t, func() { s.Commit("bump", nil) })
}

func TestCompile_LiteralStateIsNotShared(t *testing.T) {
	bp, err := ParseYAML([]byte(`
module:
  state: {items: []}
  mutations:
    add: [{op: push, path: items, value: {n: 1}}]
`))
	require.NoError(t, err)

	a, _ := build(t, bp)
	b, _ := build(t, bp)
	a.Commit("add", nil)
	a.Commit("add", nil)

	assert.Equal(t, 2, a.State().List("items").Len())
	assert.Equal(t, 0, b.State().List("items").Len())
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"unknown op", `{module: {mutations: {m: [{op: grow, path: a}]}}}`, "module.mutations.m[0].op"},
		{"missing op", `{module: {mutations: {m: [{path: a}]}}}`, "module.mutations.m[0].op"},
		{"missing path", `{module: {mutations: {m: [{op: set, value: 1}]}}}`, "module.mutations.m[0].path"},
		{"empty segment", `{module: {mutations: {m: [{op: set, path: "a..b"}]}}}`, "module.mutations.m[0].path"},
		{"value and from", `{module: {mutations: {m: [{op: set, path: a, value: 1, from: payload}]}}}`, "module.mutations.m[0]"},
		{"bad from", `{module: {mutations: {m: [{op: set, path: a, from: body}]}}}`, "module.mutations.m[0].from"},
		{"toggle operand", `{module: {mutations: {m: [{op: toggle, path: a, value: true}]}}}`, "module.mutations.m[0]"},
		{"two getter kinds", `{module: {getters: {g: {path: a, len: a}}}}`, "module.getters.g"},
		{"no getter kind", `{module: {getters: {g: {}}}}`, "module.getters.g"},
		{"unknown alias", `{module: {getters: {g: {getter: h}}}}`, "module.getters.g.getter"},
		{"self alias", `{module: {getters: {g: {getter: g}}}}`, "module.getters.g.getter"},
		{"empty step", `{module: {actions: {a: {steps: [{}]}}}}`, "module.actions.a.steps[0]"},
		{"fail with payload", `{module: {actions: {a: {steps: [{fail: x, payload: 1}]}}}}`, "module.actions.a.steps[0]"},
		{"nested", `{module: {modules: {c: {mutations: {m: [{op: nope, path: a}]}}}}}`, "module.modules.c.mutations.m[0].op"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp, err := ParseYAML([]byte(tt.yaml))
			require.NoError(t, err)

			_, err = Compile(&bp.Module)
			require.Error(t, err)
			var fe *FieldError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestParseYAML_RejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML([]byte("module:\n  mutation: {}\n"))
	assert.Error(t, err)

	_, err = ParseYAML(nil)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "module", fe.Field)
}

func TestParseCUE_Errors(t *testing.T) {
	_, err := ParseCUE([]byte("module: state: count: int\n"), "open.cue")
	assert.Error(t, err)

	_, err = ParseCUE([]byte("module: {\n"), "broken.cue")
	assert.Error(t, err)

	_, err = ParseCUE([]byte("strict: true\n"), "nomodule.cue")
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "module", fe.Field)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported blueprint extension")
}

func TestFieldError_Format(t *testing.T) {
	err := &FieldError{Field: "module.getters.g", Message: "bad"}
	assert.Equal(t, "module.getters.g: bad", err.Error())
}
