package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stately/internal/blueprint"
)

// Scenario is a scripted run against one store.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Blueprint is the path of a YAML or CUE blueprint, relative to the
	// scenario file. Mutually exclusive with Store.
	Blueprint string `yaml:"blueprint,omitempty"`

	// Store is an inline blueprint.
	Store *blueprint.Blueprint `yaml:"store,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario step. Exactly one of Commit, Dispatch, Register,
// Unregister, HotUpdate, ReplaceState and Write is set.
type Step struct {
	Commit   string `yaml:"commit,omitempty"`
	Dispatch string `yaml:"dispatch,omitempty"`

	// Payload is passed to Commit or Dispatch.
	Payload any `yaml:"payload,omitempty"`

	// ExpectError, on a dispatch, is the message the action must reject
	// with. When empty the action must resolve.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Register is a slash separated module path; Module declares it.
	Register      string                `yaml:"register,omitempty"`
	Module        *blueprint.ModuleSpec `yaml:"module,omitempty"`
	PreserveState bool                  `yaml:"preserve_state,omitempty"`

	Unregister   string                `yaml:"unregister,omitempty"`
	HotUpdate    *blueprint.ModuleSpec `yaml:"hot_update,omitempty"`
	ReplaceState map[string]any        `yaml:"replace_state,omitempty"`
	Write        *WriteStep            `yaml:"write,omitempty"`
}

// WriteStep assigns value at a dotted state path without a mutation.
type WriteStep struct {
	Path  string `yaml:"path"`
	Value any    `yaml:"value"`
}

// kind names the step's operation, or "" when none or several are set.
func (s *Step) kind() string {
	var kinds []string
	if s.Commit != "" {
		kinds = append(kinds, "commit")
	}
	if s.Dispatch != "" {
		kinds = append(kinds, "dispatch")
	}
	if s.Register != "" {
		kinds = append(kinds, "register")
	}
	if s.Unregister != "" {
		kinds = append(kinds, "unregister")
	}
	if s.HotUpdate != nil {
		kinds = append(kinds, "hot_update")
	}
	if s.ReplaceState != nil {
		kinds = append(kinds, "replace_state")
	}
	if s.Write != nil {
		kinds = append(kinds, "write")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Assertion checks the final state, getters, trace or reports.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Path is a dotted state path for state_equals. Empty means the whole
	// state.
	Path string `yaml:"path,omitempty"`

	// Getter is the qualified getter for getter_equals.
	Getter string `yaml:"getter,omitempty"`

	// Value is the expected value for state_equals and getter_equals.
	Value any `yaml:"value,omitempty"`

	// Mutation is the qualified type for mutation_count.
	Mutation string `yaml:"mutation,omitempty"`

	// Code is the report code for report_count.
	Code string `yaml:"code,omitempty"`

	// Count is the expected number for mutation_count and report_count.
	Count int `yaml:"count,omitempty"`

	// Mutations is the expected order for trace_order.
	Mutations []string `yaml:"mutations,omitempty"`
}

// Assertion type constants.
const (
	AssertStateEquals   = "state_equals"
	AssertGetterEquals  = "getter_equals"
	AssertMutationCount = "mutation_count"
	AssertReportCount   = "report_count"
	AssertTraceOrder    = "trace_order"
)

// LoadScenario reads and validates a scenario file. A relative blueprint
// path is resolved against the scenario's directory.
//
// Unknown fields are rejected, so typos like "assertion:" fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Blueprint != "" && !filepath.IsAbs(scenario.Blueprint) {
		scenario.Blueprint = filepath.Join(filepath.Dir(path), scenario.Blueprint)
	}
	if scenario.Blueprint != "" {
		if _, err := os.Stat(scenario.Blueprint); err != nil {
			return nil, fmt.Errorf("invalid scenario: blueprint not found: %s", scenario.Blueprint)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios expands each argument into scenario files: files are kept,
// directories contribute their *.yaml and *.yml entries (not recursive).
func FindScenarios(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scenario path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	return files, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Blueprint == "") == (s.Store == nil) {
		return fmt.Errorf("exactly one of blueprint or store is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	kind := s.kind()
	if kind == "" {
		return fmt.Errorf("steps[%d]: exactly one of commit, dispatch, register, unregister, hot_update, replace_state or write is required", index)
	}
	if s.Payload != nil && kind != "commit" && kind != "dispatch" {
		return fmt.Errorf("steps[%d]: payload is only valid on commit and dispatch", index)
	}
	if s.ExpectError != "" && kind != "dispatch" {
		return fmt.Errorf("steps[%d]: expect_error is only valid on dispatch", index)
	}
	if (s.Module != nil || s.PreserveState) && kind != "register" {
		return fmt.Errorf("steps[%d]: module and preserve_state are only valid on register", index)
	}
	switch kind {
	case "register":
		if s.Module == nil {
			return fmt.Errorf("steps[%d]: register requires module", index)
		}
		if err := validateModulePath(s.Register); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case "unregister":
		if err := validateModulePath(s.Unregister); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case "write":
		if s.Write.Path == "" {
			return fmt.Errorf("steps[%d]: write requires path", index)
		}
	}
	return nil
}

func validateModulePath(path string) error {
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return fmt.Errorf("module path %q has an empty segment", path)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	switch a.Type {
	case AssertStateEquals:
	case AssertGetterEquals:
		if a.Getter == "" {
			return fmt.Errorf("assertions[%d]: getter is required for getter_equals", index)
		}
	case AssertMutationCount:
		if a.Mutation == "" {
			return fmt.Errorf("assertions[%d]: mutation is required for mutation_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertReportCount:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for report_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceOrder:
		if len(a.Mutations) == 0 {
			return fmt.Errorf("assertions[%d]: mutations list is required for trace_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
