package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/stately/internal/ir"
)

// TraceSnapshot is what a golden file holds: the trace and the final state
// of one run, serialized as canonical JSON.
type TraceSnapshot struct {
	ScenarioName string       `json:"name"`
	Trace        []TraceEvent `json:"trace"`
	State        ir.Value     `json:"state"`
}

// toCanonicalMap converts the snapshot into values MarshalCanonical
// accepts. Error is omitted when empty.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	events := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		m := map[string]any{
			"seq":     e.Seq,
			"kind":    e.Kind,
			"type":    e.Type,
			"payload": e.Payload,
		}
		if e.Error != "" {
			m["error"] = e.Error
		}
		events[i] = m
	}
	return map[string]any{
		"name":  s.ScenarioName,
		"trace": events,
		"state": s.State,
	}
}

// Canonical returns the canonical JSON of a result's trace and state.
func Canonical(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		State:        result.State,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// Digest returns the trace digest of a result: the hash of its canonical
// form. Equal digests mean the golden files would be byte-identical.
func Digest(name string, result *Result) (string, error) {
	data, err := Canonical(name, result)
	if err != nil {
		return "", err
	}
	v, err := ir.Parse(data)
	if err != nil {
		return "", err
	}
	return ir.TraceDigest(v)
}

// RunWithGolden runs a scenario, fails t if it did not pass, and compares
// the canonical trace with testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) error {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result with its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Canonical(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
