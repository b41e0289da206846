package harness

import (
	"fmt"
	"strings"

	"github.com/fractastical/icombinators/internal/graph"
	"github.com/fractastical/icombinators/internal/rules"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			switch event.Type {
			case EventStep:
				fmt.Fprintf(&buf, "  [%d] %s/%s %v %s\n", i+1, event.Rule, event.Case, event.Nodes, event.Outcome)
			case EventHalt:
				fmt.Fprintf(&buf, "  [%d] halt %s after %d\n", i+1, event.Halt, event.Applied)
			}
		}
	}

	return buf.String()
}

// assertTraceContains checks that some applied step used the rule, and
// the case when one is given.
func assertTraceContains(result *Result, assertion Assertion) error {
	for _, event := range result.AppliedSteps() {
		if event.Rule == assertion.Rule && (assertion.Case == "" || event.Case == assertion.Case) {
			return nil
		}
	}

	want := assertion.Rule
	if assertion.Case != "" {
		want += "/" + assertion.Case
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("an applied %s step", want),
		Actual:   "not found in trace",
		Trace:    result.Trace,
	}
}

// assertTraceOrder checks that the rules were first applied in the given
// order. Other steps may come in between.
func assertTraceOrder(result *Result, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range result.AppliedSteps() {
		if positions[event.Rule] == 0 {
			positions[event.Rule] = i + 1 // 1-indexed for readability
		}
	}

	for _, rule := range assertion.Rules {
		if positions[rule] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all rules applied: %v", assertion.Rules),
				Actual:   fmt.Sprintf("missing rule: %s", rule),
				Trace:    result.Trace,
			}
		}
	}

	for i := 1; i < len(assertion.Rules); i++ {
		prev := assertion.Rules[i-1]
		curr := assertion.Rules[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("rules in order: %v", assertion.Rules),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: result.Trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks the rule was applied exactly Count times.
// COMB rewrites done by the cascade are not steps and are not counted.
func assertTraceCount(result *Result, assertion Assertion) error {
	count := 0
	for _, event := range result.AppliedSteps() {
		if event.Rule == assertion.Rule {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d applications of %s", assertion.Count, assertion.Rule),
			Actual:   fmt.Sprintf("%d applications", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertFinalState compares the final state with the expected values.
// Every mismatch is reported, not only the first.
func assertFinalState(result *Result, assertion Assertion) error {
	exp := assertion.Expect
	final := result.Final
	var mismatches []string

	if exp.Mol != nil && strings.TrimRight(*exp.Mol, "\n") != final.Mol {
		mismatches = append(mismatches, fmt.Sprintf("mol:\n%s\nwant:\n%s", final.Mol, strings.TrimRight(*exp.Mol, "\n")))
	}
	if exp.Nodes != nil && *exp.Nodes != final.Nodes {
		mismatches = append(mismatches, fmt.Sprintf("nodes %d, want %d", final.Nodes, *exp.Nodes))
	}
	if exp.Edges != nil && *exp.Edges != final.Edges {
		mismatches = append(mismatches, fmt.Sprintf("edges %d, want %d", final.Edges, *exp.Edges))
	}
	if exp.Steps != nil && *exp.Steps != final.Steps {
		mismatches = append(mismatches, fmt.Sprintf("steps %d, want %d", final.Steps, *exp.Steps))
	}
	if exp.Halt != "" && exp.Halt != final.Halt {
		mismatches = append(mismatches, fmt.Sprintf("halt %q, want %q", final.Halt, exp.Halt))
	}

	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: "final state as declared",
		Actual:   strings.Join(mismatches, "; "),
	}
}

// assertNormalForm checks that none of the rules matches the final graph.
func assertNormalForm(g *graph.Graph, ruleSet []rules.Rule, assertion Assertion) error {
	if len(assertion.Rules) > 0 {
		var err error
		if ruleSet, err = rules.ByName(assertion.Rules...); err != nil {
			return err
		}
	}

	reg, err := rules.NewRegistry(ruleSet...)
	if err != nil {
		return err
	}
	matches := reg.FindMatches(g)
	if len(matches) == 0 {
		return nil
	}

	found := make([]string, len(matches))
	for i, m := range matches {
		found[i] = m.String()
	}
	return &AssertionError{
		Type:     AssertNormalForm,
		Expected: fmt.Sprintf("no matches for %v", reg.Names()),
		Actual:   strings.Join(found, ", "),
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// normal_form assertions inspect g with ruleSet unless they name rules.
func EvaluateAssertions(result *Result, assertions []Assertion, ruleSet []rules.Rule, g *graph.Graph) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result, assertion)
		case AssertFinalState:
			if assertion.Expect == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires expect", i)
			} else {
				err = assertFinalState(result, assertion)
			}
		case AssertNormalForm:
			if g == nil {
				err = fmt.Errorf("assertion[%d]: normal_form requires a graph", i)
			} else {
				err = assertNormalForm(g, ruleSet, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
