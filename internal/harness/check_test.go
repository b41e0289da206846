package harness

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractastical/icombinators/internal/catalog"
)

func TestMoleculeScenario(t *testing.T) {
	m, err := catalog.MustDefault().Lookup("discard")
	require.NoError(t, err)

	scenario, ok := MoleculeScenario(m, 50)
	require.True(t, ok)
	assert.Equal(t, "discard", scenario.Name)
	assert.Equal(t, "discard", scenario.Molecule)
	assert.Equal(t, 50, scenario.Run.MaxSteps)
	require.Len(t, scenario.Assertions, 1)

	exp := scenario.Assertions[0].Expect
	require.NotNil(t, exp)
	require.NotNil(t, exp.Steps)
	assert.Equal(t, int64(2), *exp.Steps)
	assert.Equal(t, "normal_form", exp.Halt)
	require.NotNil(t, exp.Mol)

	omega, err := catalog.MustDefault().Lookup("omega")
	require.NoError(t, err)
	_, ok = MoleculeScenario(omega, 50)
	assert.False(t, ok, "omega declares no expectations")
}

func TestCheckCatalog_Default(t *testing.T) {
	result := CheckCatalog(catalog.MustDefault(), DefaultCheckSteps)

	assert.Equal(t, 9, result.Total)
	assert.Equal(t, 8, result.Checked)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 8, result.Passed)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Failures)
}

func TestCheckCatalog_ReportsFailures(t *testing.T) {
	v := cuecontext.New().CompileString(`
		molecule: wrong_steps: {
			mol: "FRIN a\nA a b c\nT c"
			expect: {steps: 3, halt: "normal_form"}
		}
		molecule: right: {
			mol: "FRIN a\nA a b c\nT c"
			expect: steps: 1
		}
		molecule: unchecked: mol: "T a"
	`)
	require.NoError(t, v.Err())
	cat, err := catalog.Compile(v)
	require.NoError(t, err)

	result := CheckCatalog(cat, 10)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "wrong_steps", result.Failures[0].Molecule)
	assert.Contains(t, result.Failures[0].Error, "steps 1, want 3")
}
