package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/stately/internal/blueprint"
	"github.com/roach88/stately/internal/ir"
	"github.com/roach88/stately/internal/testutil"
	"github.com/roach88/stately/reactive"
	"github.com/roach88/stately/store"
)

// Harness executes one scenario run.
type Harness struct {
	store    *store.Store
	clock    *testutil.SeqClock
	reporter *testutil.Recorder
	logger   *slog.Logger
	result   *Result
}

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
	opts   []store.Option
}

// WithLogger sets the logger for the run and its store.
// Default: a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) { c.logger = logger }
}

// WithStoreOptions adds store options, applied after the blueprint's.
// The journal uses this to attach a devtool.
func WithStoreOptions(opts ...store.Option) Option {
	return func(c *runConfig) { c.opts = append(c.opts, opts...) }
}

// Run executes a scenario and returns the result.
//
// Each run builds a fresh store on its own runtime. Step failures and
// failed assertions are collected in the result; the returned error is
// reserved for scenarios whose store cannot be built.
//
// Execution flow:
//  1. Load and compile the blueprint
//  2. Build the store and subscribe the trace recorder
//  3. Execute steps
//  4. Flush pending watchers and snapshot the final state
//  5. Evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: testutil.DiscardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	bp := scenario.Store
	if bp == nil {
		loaded, err := blueprint.LoadFile(scenario.Blueprint)
		if err != nil {
			return nil, fmt.Errorf("failed to load blueprint: %w", err)
		}
		bp = loaded
	}

	h := &Harness{
		clock:    testutil.NewSeqClock(),
		reporter: &testutil.Recorder{},
		logger:   cfg.logger,
		result:   NewResult(),
	}
	storeOpts := append([]store.Option{
		store.WithLogger(cfg.logger),
		store.WithReporter(h.reporter),
	}, cfg.opts...)
	s, err := blueprint.Build(reactive.NewRuntime(), bp, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build store: %w", err)
	}
	h.store = s

	s.Subscribe(func(m store.Mutation, _ *reactive.Object) {
		h.result.addEvent(h.clock.Next(), KindMutation, m.Type, m.Payload, "")
	})
	s.SubscribeAction(func(a store.ActionEvent, _ *reactive.Object) {
		h.result.addEvent(h.clock.Next(), KindAction, a.Type, a.Payload, "")
	})

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := h.runStep(ctx, step); err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d] (%s): %v", i, step.kind(), err))
		}
	}
	s.Flush()

	var snapshot ir.Value
	s.Runtime().Untracked(func() {
		snapshot, err = ir.FromGo(s.State())
	})
	if err != nil {
		h.result.AddError(fmt.Sprintf("final state: %v", err))
	} else {
		h.result.State = snapshot
	}
	for _, e := range h.reporter.Errors() {
		h.result.Reports = append(h.result.Reports, string(e.Code))
	}

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, &AssertionContext{
		Store:    s,
		Reporter: h.reporter,
	}) {
		h.result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"name", scenario.Name,
		"pass", h.result.Pass,
		"events", len(h.result.Trace))
	return h.result, nil
}

// RunFile loads and runs a scenario file.
func RunFile(path string, opts ...Option) (*Scenario, *Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	result, err := Run(scenario, opts...)
	return scenario, result, err
}

// runStep executes one step. Handler panics are turned into errors so one
// broken step does not end the run.
func (h *Harness) runStep(ctx context.Context, step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	s := h.store
	switch step.kind() {
	case "commit":
		s.Commit(step.Commit, step.Payload)

	case "dispatch":
		_, actionErr := s.Dispatch(ctx, step.Dispatch, step.Payload).Await(ctx)
		if actionErr != nil {
			h.result.addEvent(h.clock.Next(), KindActionError, step.Dispatch, step.Payload, actionErr.Error())
		}
		switch {
		case step.ExpectError == "" && actionErr != nil:
			return fmt.Errorf("action %s rejected: %w", step.Dispatch, actionErr)
		case step.ExpectError != "" && actionErr == nil:
			return fmt.Errorf("action %s resolved, want rejection %q", step.Dispatch, step.ExpectError)
		case step.ExpectError != "" && actionErr.Error() != step.ExpectError:
			return fmt.Errorf("action %s rejected with %q, want %q", step.Dispatch, actionErr.Error(), step.ExpectError)
		}

	case "register":
		raw, err := blueprint.Compile(step.Module)
		if err != nil {
			return err
		}
		var opts []store.RegisterOption
		if step.PreserveState {
			opts = append(opts, store.PreserveState())
		}
		return s.RegisterModule(strings.Split(step.Register, "/"), raw, opts...)

	case "unregister":
		return s.UnregisterModule(strings.Split(step.Unregister, "/"))

	case "hot_update":
		raw, err := blueprint.Compile(step.HotUpdate)
		if err != nil {
			return err
		}
		s.HotUpdate(raw)

	case "replace_state":
		s.ReplaceState(step.ReplaceState)

	case "write":
		return writePath(s.State(), step.Write.Path, step.Write.Value)

	default:
		return errors.New("no operation")
	}
	return nil
}

// writePath assigns value at a dotted path. Intermediate objects must exist.
func writePath(state *reactive.Object, path string, value any) error {
	segs := strings.Split(path, ".")
	cur := state
	for _, seg := range segs[:len(segs)-1] {
		next := cur.Object(seg)
		if next == nil {
			return fmt.Errorf("write %s: %q is not an object", path, seg)
		}
		cur = next
	}
	cur.Set(segs[len(segs)-1], value)
	return nil
}
