package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDemoScenarios runs every scenario under testdata/scenarios. They
// double as documentation of the scenario format and as regression
// fixtures for the reduction engine.
func TestDemoScenarios(t *testing.T) {
	tests := []struct {
		name         string
		scenarioPath string
	}{
		{name: "simple_application", scenarioPath: "../../testdata/scenarios/simple_application.yaml"},
		{name: "discard", scenarioPath: "../../testdata/scenarios/discard.yaml"},
		{name: "dist_identity", scenarioPath: "../../testdata/scenarios/dist_identity.yaml"},
		{name: "omega_budget", scenarioPath: "../../testdata/scenarios/omega_budget.yaml"},
		{name: "erase_inline", scenarioPath: "../../testdata/scenarios/erase_inline.yaml"},
		{name: "user_catalog", scenarioPath: "../../testdata/scenarios/user_catalog.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			absPath, err := filepath.Abs(tt.scenarioPath)
			require.NoError(t, err, "failed to get absolute path")

			scenario, err := LoadScenario(absPath)
			require.NoError(t, err, "failed to load scenario from %s", tt.scenarioPath)

			assert.Equal(t, tt.name, scenario.Name, "scenario name mismatch")
			assert.NotEmpty(t, scenario.Description, "scenario should have description")

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario failed: %v", result.Errors)
		})
	}
}
