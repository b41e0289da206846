package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractastical/icombinators/internal/rules"
)

func TestStepBudget_WithinLimit(t *testing.T) {
	b := NewStepBudget(3)

	for i := 0; i < 3; i++ {
		assert.True(t, b.Take(), "step %d should be allowed", i+1)
	}
	assert.True(t, b.Exhausted())
	assert.False(t, b.Take())
	assert.Equal(t, 3, b.Current(), "refused steps are not counted")
	assert.Equal(t, 3, b.MaxSteps())
}

func TestStepBudget_ZeroAllowsNothing(t *testing.T) {
	b := NewStepBudget(0)
	assert.True(t, b.Exhausted())
	assert.False(t, b.Take())

	assert.False(t, NewStepBudget(-5).Take())
}

func TestNewBudgetError(t *testing.T) {
	err := NewBudgetError("run-7", 10, 10)

	assert.Equal(t, ErrCodeBudgetExhausted, err.Code)
	assert.Equal(t, "10", err.Details["steps"])
	assert.Equal(t, "10", err.Details["max_steps"])
	assert.Contains(t, err.Error(), "BUDGET_EXHAUSTED")
	assert.Contains(t, err.Error(), "run=run-7")
}

func TestIsBudgetError(t *testing.T) {
	assert.True(t, IsBudgetError(NewBudgetError("run-1", 1, 1)))
	assert.True(t, IsBudgetError(fmt.Errorf("reduce: %w", NewBudgetError("run-1", 1, 1))))
	assert.False(t, IsBudgetError(NewCycleError("run-1", "x", 0, 1)))
	assert.False(t, IsBudgetError(nil))
}

func TestRuntimeError_Format(t *testing.T) {
	err := NewDuplicateRuleError(rules.NameComb, rules.ErrDuplicateRule)
	assert.Equal(t, "DUPLICATE_RULE: rule registered twice", err.Error())
	require.True(t, errors.Is(err, rules.ErrDuplicateRule))

	err.RunID = "run-1"
	assert.Equal(t, "DUPLICATE_RULE: rule registered twice (run=run-1, rule=COMB)", err.Error())
}

func TestEngine_Run_BudgetErrorCarriesCeiling(t *testing.T) {
	e := newEngine(t, omega, WithRules(rules.AllRules()...))

	require.Equal(t, 3, e.Run(3, PolicyDeterministic))

	require.Equal(t, HaltBudget, e.LastHalt())
	var rerr *RuntimeError
	require.True(t, errors.As(e.HaltErr(), &rerr))
	assert.Equal(t, "3", rerr.Details["steps"])
	assert.Equal(t, "3", rerr.Details["max_steps"])
}
