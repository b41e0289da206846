// Package harness runs reduction scenarios and checks their outcome.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: simple_application
//	description: "One BETA step, then nothing left to do"
//	molecule: simple_application   # or mol: | ... inline wire text
//	rules: [BETA, COMB, PRUNING]   # optional
//	policy: deterministic          # or random, with seed
//	flow:
//	  - expect:
//	      rule: BETA
//	      case: L_A
//	      cascade: 1
//	run:
//	  max_steps: 10
//	assertions:
//	  - type: trace_count
//	    rule: BETA
//	    count: 1
//	  - type: final_state
//	    expect: { halt: normal_form, nodes: 2 }
//
// Flow entries are single engine steps. The run clause then reduces until
// the engine halts or max_steps is reached.
//
// # Assertion Types
//
//   - trace_contains: an applied step of a rule (and case)
//   - trace_order: rules first applied in the given order
//   - trace_count: a rule applied exactly N times
//   - final_state: final mol, node and edge counts, steps, halt reason
//   - normal_form: no match left for the scenario's rules or the listed ones
//
// # Deterministic Testing
//
// Each scenario gets a fresh graph, a fixed run id (run_id, default
// "test-run-default") and a seeded generator, so traces are identical
// across runs and can be compared against golden files with
// RunWithGolden.
//
// CheckCatalog turns the expect blocks of catalogue molecules into
// scenarios of the same kind.
package harness
