package harness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/stately/internal/ir"
	"github.com/roach88/stately/internal/testutil"
	"github.com/roach88/stately/reactive"
	"github.com/roach88/stately/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Diff     string // go-cmp diff (-want +got), for value assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Diff != "" {
		fmt.Fprintf(&buf, "  Diff (-want +got):\n%s", e.Diff)
	}
	return buf.String()
}

// AssertionContext gives assertions access to the live store.
type AssertionContext struct {
	Store    *store.Store
	Reporter *testutil.Recorder
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertStateEquals:
			err = assertStateEquals(result.State, assertion)
		case AssertGetterEquals:
			err = assertGetterEquals(actx, assertion)
		case AssertMutationCount:
			err = assertMutationCount(result.Trace, assertion)
		case AssertReportCount:
			err = assertReportCount(actx, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// assertStateEquals compares the final state, or the value at a dotted
// path within it, with the expected value.
func assertStateEquals(state ir.Value, a Assertion) error {
	got := state
	if a.Path != "" {
		for _, seg := range strings.Split(a.Path, ".") {
			obj, ok := got.(ir.Object)
			if !ok {
				got = nil
				break
			}
			got = obj[seg]
		}
	}
	if got == nil {
		got = ir.Null{}
	}
	return compareValues(AssertStateEquals, "state at "+describePath(a.Path), a.Value, got)
}

func assertGetterEquals(actx *AssertionContext, a Assertion) error {
	if actx == nil || actx.Store == nil {
		return fmt.Errorf("getter_equals requires a store")
	}
	s := actx.Store
	if !s.Getters().Has(a.Getter) {
		return &AssertionError{
			Type:     AssertGetterEquals,
			Expected: fmt.Sprintf("getter %s", a.Getter),
			Actual:   fmt.Sprintf("no such getter (have %v)", s.Getters().Keys()),
		}
	}
	var raw any
	s.Runtime().Untracked(func() {
		raw = reactive.Snapshot(s.Getters().Get(a.Getter))
	})
	got, err := ir.FromGo(raw)
	if err != nil {
		return fmt.Errorf("getter %s: %w", a.Getter, err)
	}
	return compareValues(AssertGetterEquals, "getter "+a.Getter, a.Value, got)
}

func assertMutationCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, e := range trace {
		if e.Kind == KindMutation && e.Type == a.Mutation {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertMutationCount,
			Expected: fmt.Sprintf("%s committed %d times", a.Mutation, a.Count),
			Actual:   fmt.Sprintf("committed %d times", count),
		}
	}
	return nil
}

func assertReportCount(actx *AssertionContext, a Assertion) error {
	if actx == nil || actx.Reporter == nil {
		return fmt.Errorf("report_count requires a reporter")
	}
	count := actx.Reporter.Count(store.ErrorCode(a.Code))
	if count != a.Count {
		return &AssertionError{
			Type:     AssertReportCount,
			Expected: fmt.Sprintf("%d %s reports", a.Count, a.Code),
			Actual:   fmt.Sprintf("%d reports", count),
		}
	}
	return nil
}

// assertTraceOrder checks that the mutations appear in the trace as a
// subsequence. Other events may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	var seen []string
	next := 0
	for _, e := range trace {
		if e.Kind != KindMutation {
			continue
		}
		seen = append(seen, e.Type)
		if next < len(a.Mutations) && e.Type == a.Mutations[next] {
			next++
		}
	}
	if next < len(a.Mutations) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("mutations in order: %v", a.Mutations),
			Actual:   fmt.Sprintf("%v (first unmatched: %s)", seen, a.Mutations[next]),
		}
	}
	return nil
}

func compareValues(kind, what string, expected any, got ir.Value) error {
	want, err := ir.FromGo(expected)
	if err != nil {
		return fmt.Errorf("%s: expected value: %w", kind, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		return &AssertionError{
			Type:     kind,
			Expected: fmt.Sprintf("%s = %s", what, canonicalText(want)),
			Actual:   canonicalText(got),
			Diff:     diff,
		}
	}
	return nil
}

func canonicalText(v ir.Value) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func describePath(path string) string {
	if path == "" {
		return "root"
	}
	return path
}
