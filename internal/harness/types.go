package harness

import "github.com/roach88/stately/internal/ir"

// Trace event kinds.
const (
	KindMutation    = "mutation"
	KindAction      = "action"
	KindActionError = "action_error"
)

// TraceEvent is one observed commit or dispatch.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Kind    string   `json:"kind"`
	Type    string   `json:"type"`
	Payload ir.Value `json:"payload"`
	Error   string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step ran and every assertion held.
	Pass bool `json:"pass"`

	// Trace lists mutations, dispatched actions and rejected actions in the
	// order they happened.
	Trace []TraceEvent `json:"trace"`

	// Errors holds step failures and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// State is the final state tree.
	State ir.Value `json:"state"`

	// Reports lists the codes of non-fatal store errors, in order.
	Reports []string `json:"reports,omitempty"`
}

// NewResult creates a passing, empty result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  ir.Object{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addEvent(seq int64, kind, typ string, payload any, errText string) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     seq,
		Kind:    kind,
		Type:    typ,
		Payload: ir.FromAny(payload),
		Error:   errText,
	})
}
