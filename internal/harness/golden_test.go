package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_SimpleApplication(t *testing.T) {
	scenario, err := LoadScenario("../../testdata/scenarios/simple_application.yaml")
	require.NoError(t, err)

	// First run with -update to create golden file:
	//   go test ./internal/harness -run TestRunWithGolden_SimpleApplication -update
	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithGolden_Discard(t *testing.T) {
	scenario, err := LoadScenario("../../testdata/scenarios/discard.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_Format(t *testing.T) {
	r := NewResult()
	r.RunID = "run-1"
	r.AddHaltTrace("normal_form", 0, 0)
	r.Final.Mol = "T n0"

	data, err := Snapshot("tiny", r)
	require.NoError(t, err)

	want := `{
  "scenario_name": "tiny",
  "run_id": "run-1",
  "trace": [
    {
      "type": "halt",
      "seq": 0,
      "halt": "normal_form"
    }
  ],
  "final_mol": "T n0"
}
`
	assert.Equal(t, want, string(data))
}
