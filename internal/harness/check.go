package harness

import (
	"fmt"
	"strings"

	"github.com/fractastical/icombinators/internal/catalog"
)

// DefaultCheckSteps bounds each catalogue check run.
const DefaultCheckSteps = 1000

// CheckResult contains results from checking catalogue expectations.
type CheckResult struct {
	Total    int               `json:"total"`
	Checked  int               `json:"checked"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Skipped  int               `json:"skipped"` // Molecules without expectations
	Failures []MoleculeFailure `json:"failures,omitempty"`
}

// MoleculeFailure represents a catalogue entry whose run did not end as
// declared.
type MoleculeFailure struct {
	Molecule string `json:"molecule"`
	Error    string `json:"error"`
}

// MoleculeScenario builds the scenario that checks a catalogue entry's
// expect block with a deterministic run of at most maxSteps. It reports
// false when the entry declares no expectations.
func MoleculeScenario(m catalog.Molecule, maxSteps int) (*Scenario, bool) {
	exp := m.Expect
	if exp.Steps == nil && exp.Halt == "" && exp.Mol == nil {
		return nil, false
	}

	state := &StateExpect{Halt: exp.Halt, Mol: exp.Mol}
	if exp.Steps != nil {
		steps := int64(*exp.Steps)
		state.Steps = &steps
	}

	description := m.Description
	if description == "" {
		description = "catalogue expectations of " + m.Name
	}
	return &Scenario{
		Name:        m.Name,
		Description: description,
		Molecule:    m.Name,
		Run:         &RunClause{MaxSteps: maxSteps},
		Assertions:  []Assertion{{Type: AssertFinalState, Expect: state}},
	}, true
}

// CheckCatalog runs every catalogue entry that declares expectations and
// collects the outcome.
//
// For each molecule:
//  1. Build its scenario (entries without expectations are skipped)
//  2. Run it via harness.Run against cat
//  3. Record pass or failure
func CheckCatalog(cat *catalog.Catalog, maxSteps int, opts ...Option) *CheckResult {
	result := &CheckResult{}
	opts = append(opts, WithCatalog(cat))

	for _, m := range cat.Molecules() {
		result.Total++

		scenario, ok := MoleculeScenario(m, maxSteps)
		if !ok {
			result.Skipped++
			continue
		}
		result.Checked++

		runResult, err := Run(scenario, opts...)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, MoleculeFailure{
				Molecule: m.Name,
				Error:    fmt.Sprintf("run failed: %v", err),
			})
			continue
		}

		if !runResult.Pass {
			result.Failed++
			result.Failures = append(result.Failures, MoleculeFailure{
				Molecule: m.Name,
				Error:    strings.Join(runResult.Errors, "\n"),
			})
			continue
		}

		result.Passed++
	}

	return result
}
