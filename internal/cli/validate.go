package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stately/internal/blueprint"
	"github.com/roach88/stately/internal/ir"
	"github.com/roach88/stately/reactive"
	"github.com/roach88/stately/store"
)

// ValidationResult describes the store a blueprint builds.
type ValidationResult struct {
	Blueprint  string   `json:"blueprint"`
	Strict     bool     `json:"strict"`
	Mutations  []string `json:"mutations"`
	Actions    []string `json:"actions"`
	Getters    []string `json:"getters"`
	Namespaces []string `json:"namespaces"`
	Warnings   []string `json:"warnings,omitempty"`
	Digest     string   `json:"state_digest"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <blueprint>",
		Short: "Build a store from a blueprint and list what it registers",
		Long: `Load a YAML or CUE blueprint, compile it and construct the store.

Prints the registered mutation types, action types, getters and
namespaces. Non-fatal store reports, such as duplicate getters, are
listed as warnings.

Exit codes:
  0 - Blueprint is valid
  1 - Blueprint or module tree rejected
  2 - File missing or unreadable`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	bp, err := blueprint.LoadFile(path)
	if err != nil {
		return failBlueprint(formatter, path, err)
	}
	formatter.VerboseLog("Loaded %s", path)

	var warnings []string
	s, err := blueprint.Build(reactive.NewRuntime(), bp,
		store.WithLogger(opts.logger()),
		store.WithReporter(store.ReporterFunc(func(e *store.Error) {
			warnings = append(warnings, e.Error())
		})),
	)
	if err != nil {
		return failBlueprint(formatter, path, err)
	}

	result, err := describeStore(path, s)
	if err != nil {
		return failBlueprint(formatter, path, err)
	}
	result.Warnings = warnings

	if formatter.JSON() {
		return formatter.Success(result)
	}
	printValidation(formatter, result)
	return nil
}

func describeStore(path string, s *store.Store) (ValidationResult, error) {
	var snapshot ir.Value
	var err error
	s.Runtime().Untracked(func() {
		snapshot, err = ir.FromGo(s.State())
	})
	if err != nil {
		return ValidationResult{}, fmt.Errorf("initial state: %w", err)
	}
	digest, err := ir.StateDigest(snapshot)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("initial state: %w", err)
	}

	getters := s.Getters().Keys()
	slices.Sort(getters)
	return ValidationResult{
		Blueprint:  path,
		Strict:     s.Strict(),
		Mutations:  s.MutationTypes(),
		Actions:    s.ActionTypes(),
		Getters:    getters,
		Namespaces: slices.Sorted(maps.Keys(s.Namespaces())),
		Digest:     digest,
	}, nil
}

func printValidation(f *OutputFormatter, r ValidationResult) {
	f.Printf("✓ %s is valid\n", r.Blueprint)
	f.Printf("  strict:     %t\n", r.Strict)
	f.Printf("  mutations:  %s\n", joinOrNone(r.Mutations))
	f.Printf("  actions:    %s\n", joinOrNone(r.Actions))
	f.Printf("  getters:    %s\n", joinOrNone(r.Getters))
	f.Printf("  namespaces: %s\n", joinOrNone(r.Namespaces))
	f.Printf("  state:      %s\n", r.Digest)
	for _, w := range r.Warnings {
		f.Printf("  warning: %s\n", w)
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// failBlueprint reports err and returns the matching ExitError.
func failBlueprint(f *OutputFormatter, path string, err error) error {
	code, exit := classify(err)
	var details any
	var fieldErr *blueprint.FieldError
	if errors.As(err, &fieldErr) {
		details = map[string]string{"field": fieldErr.Field}
	}
	if outErr := f.Error(code, err.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(exit, fmt.Sprintf("invalid blueprint %s", path), err)
}

func classify(err error) (code string, exit int) {
	var fieldErr *blueprint.FieldError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeLoad, ExitCommandError
	case errors.As(err, &fieldErr):
		return ErrCodeBlueprint, ExitFailure
	case store.IsConfigError(err):
		return ErrCodeStore, ExitFailure
	default:
		return ErrCodeLoad, ExitFailure
	}
}
