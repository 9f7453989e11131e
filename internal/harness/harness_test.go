package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stately/internal/ir"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return scenario
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{"counter_basics.yaml", "dynamic_modules.yaml", "todo_list.yaml"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRunWithGolden_CounterBasics(t *testing.T) {
	require.NoError(t, RunWithGolden(t, loadScenario(t, "counter_basics.yaml")))
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadScenario(t, "counter_basics.yaml")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Canonical(scenario.Name, first)
	require.NoError(t, err)
	b, err := Canonical(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	da, err := Digest(scenario.Name, first)
	require.NoError(t, err)
	db, err := Digest(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, da, db)

	other, err := Digest("renamed", first)
	require.NoError(t, err)
	assert.NotEqual(t, da, other)
}

func TestRun_TraceAndReports(t *testing.T) {
	result, err := Run(loadScenario(t, "dynamic_modules.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ir.Object{"count": ir.Int(1)}, result.State)
	assert.Equal(t, []string{"STRICT_MODE_VIOLATION", "UNKNOWN_TYPE"}, result.Reports)

	var types []string
	for _, e := range result.Trace {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{"cart/add", "cart/add", "inc"}, types)
}

func TestRun_FailingAssertions(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong
description: every assertion is off by one
store:
  module:
    state: {count: 0, list: [1]}
    mutations:
      inc: [{op: inc, path: count}]
    getters:
      count: {path: count}
steps:
  - {commit: inc}
assertions:
  - {type: state_equals, path: count, value: 2}
  - {type: state_equals, path: list, value: [1, 2]}
  - {type: getter_equals, getter: count, value: 0}
  - {type: getter_equals, getter: missing, value: 0}
  - {type: mutation_count, mutation: inc, count: 2}
  - {type: report_count, code: UNKNOWN_TYPE, count: 1}
  - {type: trace_order, mutations: [inc, inc]}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[0], "Assertion failed: state_equals")
	assert.Contains(t, result.Errors[0], "Diff (-want +got)")
	assert.Contains(t, result.Errors[3], "no such getter")
	assert.Contains(t, result.Errors[6], "first unmatched: inc")
}

func TestRun_StepFailures(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: broken_steps
description: steps that cannot succeed are reported and the run continues
store:
  module:
    state: {name: ann, count: 0}
    mutations:
      bump: [{op: inc, path: name}]
      inc: [{op: inc, path: count}]
    actions:
      ok: {steps: [{commit: inc}]}
      bad: {steps: [{fail: denied}]}
steps:
  - {commit: bump}
  - {dispatch: bad}
  - {dispatch: ok, expect_error: denied}
  - {dispatch: bad, expect_error: other}
  - {unregister: nowhere}
  - {write: {path: missing.key, value: 1}}
  - register: extra
    module: {mutations: {m: [{op: grow, path: a}]}}
  - {commit: inc}
assertions:
  - {type: state_equals, path: count, value: 2}
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7, "errors: %v", result.Errors)
	assert.Contains(t, result.Errors[0], "steps[0] (commit): panic")
	assert.Contains(t, result.Errors[1], "rejected: denied")
	assert.Contains(t, result.Errors[2], "want rejection")
	assert.Contains(t, result.Errors[3], `want "other"`)
	assert.Contains(t, result.Errors[4], "steps[4] (unregister)")
	assert.Contains(t, result.Errors[5], "not an object")
	assert.Contains(t, result.Errors[6], "unknown op")
}

func TestRun_BlueprintErrors(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", Blueprint: filepath.Join("testdata", "nope.yaml")})
	assert.Error(t, err)
}
