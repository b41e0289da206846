package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fractastical/icombinators/internal/catalog"
	"github.com/fractastical/icombinators/internal/engine"
	"github.com/fractastical/icombinators/internal/rules"
)

// Scenario defines a reduction test scenario.
// A scenario takes one molecule, reduces it step by step and/or with a
// bounded run, and asserts on the resulting trace and final graph.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Molecule names a catalogue entry. Exactly one of Molecule and Mol
	// is set.
	Molecule string `yaml:"molecule,omitempty"`

	// Mol is inline wire-format mol text.
	Mol string `yaml:"mol,omitempty"`

	// Catalog is a directory of extra CUE molecules merged into the
	// built-in catalogue. Relative to the scenario's base path.
	Catalog string `yaml:"catalog,omitempty"`

	// Rules lists rule names in evaluation order. When empty, the
	// molecule's own rules apply, and failing those the default rules.
	Rules []string `yaml:"rules,omitempty"`

	// Policy is "deterministic" (default) or "random".
	Policy string `yaml:"policy,omitempty"`

	// Seed seeds the random policy.
	Seed uint64 `yaml:"seed,omitempty"`

	// CascadeLimit overrides the COMB cascade cap.
	CascadeLimit *int `yaml:"cascade_limit,omitempty"`

	// Cycles enables cycle detection for the run.
	Cycles bool `yaml:"cycles,omitempty"`

	// Flow lists single steps taken before the run, each optionally checked.
	Flow []FlowStep `yaml:"flow,omitempty"`

	// Run reduces until a halt once the flow is done.
	Run *RunClause `yaml:"run,omitempty"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count,
	// final_state, normal_form.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run id for deterministic traces.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// FlowStep is one engine step.
type FlowStep struct {
	// Expect specifies what the step must do.
	// If nil, the step is taken without validation.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected step result.
type ExpectClause struct {
	// Rule is the expected rule name of the selected match.
	Rule string `yaml:"rule,omitempty"`

	// Case is the expected case of the selected match.
	Case string `yaml:"case,omitempty"`

	// Outcome is the expected outcome name. Defaults to "applied".
	Outcome string `yaml:"outcome,omitempty"`

	// Cascade is the expected number of COMB rewrites after the step.
	Cascade *int `yaml:"cascade,omitempty"`
}

// RunClause configures the bounded run.
type RunClause struct {
	MaxSteps int `yaml:"max_steps"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an applied step of Rule (and Case, if set)
	// - "trace_order": Rules first applied in this order
	// - "trace_count": Rule applied exactly Count times
	// - "final_state": final graph matches Expect
	// - "normal_form": none of Rules (default: the scenario's rules) matches
	Type string `yaml:"type"`

	// Rule is the rule name (used by trace_contains, trace_count).
	Rule string `yaml:"rule,omitempty"`

	// Case narrows trace_contains to one case.
	Case string `yaml:"case,omitempty"`

	// Rules is the expected order (trace_order) or the rules that must not
	// match (normal_form).
	Rules []string `yaml:"rules,omitempty"`

	// Count is the expected number of applications (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Expect contains expected final values (used by final_state).
	Expect *StateExpect `yaml:"expect,omitempty"`
}

// StateExpect lists final state values to check. Unset fields are not
// checked.
type StateExpect struct {
	Mol   *string `yaml:"mol,omitempty"`
	Nodes *int    `yaml:"nodes,omitempty"`
	Edges *int    `yaml:"edges,omitempty"`
	Steps *int64  `yaml:"steps,omitempty"`
	Halt  string  `yaml:"halt,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertNormalForm    = "normal_form"
)

// LoadScenario reads and parses a scenario YAML file. Relative catalog
// paths resolve against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the catalog path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) && basePath != "" {
		scenario.Catalog = filepath.Join(basePath, scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Molecule == "" && s.Mol == "":
		return fmt.Errorf("one of molecule or mol is required")
	case s.Molecule != "" && s.Mol != "":
		return fmt.Errorf("molecule and mol are mutually exclusive")
	}

	if s.Catalog != "" {
		if info, err := os.Stat(s.Catalog); err != nil || !info.IsDir() {
			return fmt.Errorf("catalog directory not found: %s", s.Catalog)
		}
	}

	if len(s.Rules) > 0 {
		if _, err := rules.ByName(s.Rules...); err != nil {
			return err
		}
	}

	if s.Policy != "" {
		if _, err := engine.ParsePolicy(s.Policy); err != nil {
			return err
		}
	}

	if s.CascadeLimit != nil && *s.CascadeLimit < 0 {
		return fmt.Errorf("cascade_limit must be non-negative")
	}

	if len(s.Flow) == 0 && s.Run == nil {
		return fmt.Errorf("flow or run is required")
	}

	if s.Run != nil && s.Run.MaxSteps < 0 {
		return fmt.Errorf("run.max_steps must be non-negative")
	}

	for i, step := range s.Flow {
		if step.Expect == nil || step.Expect.Outcome == "" {
			continue
		}
		if !validOutcome(step.Expect.Outcome) {
			return fmt.Errorf("flow[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func validOutcome(name string) bool {
	for _, o := range []rules.Outcome{rules.Applied, rules.NoMatch, rules.StructuralMismatch, rules.NotImplemented} {
		if o.String() == name {
			return true
		}
	}
	return false
}

func validHalt(name string) bool {
	switch name {
	case catalog.HaltNormalForm, catalog.HaltBudget, catalog.HaltStalled, catalog.HaltCycle:
		return true
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Rules) == 0 {
			return fmt.Errorf("assertions[%d]: rules list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		if a.Expect.Halt != "" && !validHalt(a.Expect.Halt) {
			return fmt.Errorf("assertions[%d]: unknown halt reason %q", index, a.Expect.Halt)
		}
	case AssertNormalForm:
		if len(a.Rules) > 0 {
			if _, err := rules.ByName(a.Rules...); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
