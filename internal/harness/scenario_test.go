package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
molecule: simple_application
rules: [BETA, COMB]
policy: random
seed: 42
cascade_limit: 3
cycles: true
flow:
  - expect:
      rule: BETA
      cascade: 1
  - {}
run:
  max_steps: 20
assertions:
  - type: trace_contains
    rule: BETA
run_id: run-fixed
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "simple_application", scenario.Molecule)
	assert.Equal(t, []string{"BETA", "COMB"}, scenario.Rules)
	assert.Equal(t, "random", scenario.Policy)
	assert.Equal(t, uint64(42), scenario.Seed)
	require.NotNil(t, scenario.CascadeLimit)
	assert.Equal(t, 3, *scenario.CascadeLimit)
	assert.True(t, scenario.Cycles)
	require.Len(t, scenario.Flow, 2)
	require.NotNil(t, scenario.Flow[0].Expect)
	assert.Equal(t, "BETA", scenario.Flow[0].Expect.Rule)
	require.NotNil(t, scenario.Flow[0].Expect.Cascade)
	assert.Equal(t, 1, *scenario.Flow[0].Expect.Cascade)
	assert.Nil(t, scenario.Flow[1].Expect)
	require.NotNil(t, scenario.Run)
	assert.Equal(t, 20, scenario.Run.MaxSteps)
	assert.Equal(t, "run-fixed", scenario.RunID)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "assertion instead of assertions"
molecule: identity
run:
  max_steps: 1
assertion:
  - type: normal_form
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
	assert.Contains(t, err.Error(), "assertion")
}

func TestLoadScenario_CatalogResolvedAgainstFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "mols"), 0755))
	path := filepath.Join(dir, "s.yaml")
	content := `
name: rel
description: "relative catalog"
catalog: mols
molecule: identity
run: {max_steps: 1}
assertions:
  - type: normal_form
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mols"), scenario.Catalog)
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "d"
molecule: identity
run: {max_steps: 1}
assertions: [{type: normal_form}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
molecule: identity
run: {max_steps: 1}
assertions: [{type: normal_form}]
`,
			wantErr: "description is required",
		},
		{
			name: "no molecule",
			content: `
name: n
description: d
run: {max_steps: 1}
assertions: [{type: normal_form}]
`,
			wantErr: "one of molecule or mol is required",
		},
		{
			name: "molecule and mol",
			content: `
name: n
description: d
molecule: identity
mol: "T a"
run: {max_steps: 1}
assertions: [{type: normal_form}]
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "missing catalog dir",
			content: `
name: n
description: d
catalog: /nonexistent/mols
molecule: identity
run: {max_steps: 1}
assertions: [{type: normal_form}]
`,
			wantErr: "catalog directory not found",
		},
		{
			name: "unknown rule",
			content: `
name: n
description: d
molecule: identity
rules: [ETA]
run: {max_steps: 1}
assertions: [{type: normal_form}]
`,
			wantErr: `unknown rule "ETA"`,
		},
		{
			name: "unknown policy",
			content: `
name: n
description: d
molecule: identity
policy: greedy
run: {max_steps: 1}
assertions: [{type: normal_form}]
`,
			wantErr: `"greedy"`,
		},
		{
			name: "negative cascade limit",
			content: `
name: n
description: d
molecule: identity
cascade_limit: -1
run: {max_steps: 1}
assertions: [{type: normal_form}]
`,
			wantErr: "cascade_limit must be non-negative",
		},
		{
			name: "nothing to do",
			content: `
name: n
description: d
molecule: identity
assertions: [{type: normal_form}]
`,
			wantErr: "flow or run is required",
		},
		{
			name: "negative budget",
			content: `
name: n
description: d
molecule: identity
run: {max_steps: -2}
assertions: [{type: normal_form}]
`,
			wantErr: "run.max_steps must be non-negative",
		},
		{
			name: "unknown outcome",
			content: `
name: n
description: d
molecule: identity
flow:
  - expect: {outcome: exploded}
assertions: [{type: normal_form}]
`,
			wantErr: `flow[0].expect: unknown outcome "exploded"`,
		},
		{
			name: "no assertions",
			content: `
name: n
description: d
molecule: identity
run: {max_steps: 1}
`,
			wantErr: "assertions list is required",
		},
		{
			name: "assertion without type",
			content: `
name: n
description: d
molecule: identity
run: {max_steps: 1}
assertions: [{rule: BETA}]
`,
			wantErr: "assertions[0]: type is required",
		},
		{
			name: "trace_contains without rule",
			content: `
name: n
description: d
molecule: identity
run: {max_steps: 1}
assertions: [{type: trace_contains}]
`,
			wantErr: "rule is required for trace_contains",
		},
		{
			name: "trace_order without rules",
			content: `
name: n
description: d
molecule: identity
run: {max_steps: 1}
assertions: [{type: trace_order}]
`,
			wantErr: "rules list is required for trace_order",
		},
		{
			name: "trace_count negative",
			content: `
name: n
description: d
molecule: identity
run: {max_steps: 1}
assertions: [{type: trace_count, rule: BETA, count: -1}]
`,
			wantErr: "count must be non-negative",
		},
		{
			name: "final_state without expect",
			content: `
name: n
description: d
molecule: identity
run: {max_steps: 1}
assertions: [{type: final_state}]
`,
			wantErr: "expect is required for final_state",
		},
		{
			name: "final_state unknown halt",
			content: `
name: n
description: d
molecule: identity
run: {max_steps: 1}
assertions: [{type: final_state, expect: {halt: tired}}]
`,
			wantErr: `unknown halt reason "tired"`,
		},
		{
			name: "normal_form unknown rule",
			content: `
name: n
description: d
molecule: identity
run: {max_steps: 1}
assertions: [{type: normal_form, rules: [ETA]}]
`,
			wantErr: `assertions[0]: rules: unknown rule "ETA"`,
		},
		{
			name: "unknown assertion type",
			content: `
name: n
description: d
molecule: identity
run: {max_steps: 1}
assertions: [{type: final_mol}]
`,
			wantErr: `unknown assertion type "final_mol"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_TestdataScenarios(t *testing.T) {
	paths, err := filepath.Glob("../../testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, scenario.Assertions)
		})
	}
}
