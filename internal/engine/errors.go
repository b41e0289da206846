package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while configuring or running
// the engine.
//
// Runtime errors include:
//   - Budget exhausted: Run reached its step budget with candidates left
//   - Cycle detected: a graph state recurred during Run
//   - Duplicate rule: two configured rules share a name
//   - Replay diverged: a recorded reaction did not apply on replay
//
// Rewrite failures inside a step are not errors; they are reported as
// rules.Outcome values on the StepResult.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Rule names the rule involved, if any.
	Rule string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeBudgetExhausted indicates Run stopped at its step budget.
	ErrCodeBudgetExhausted RuntimeErrorCode = "BUDGET_EXHAUSTED"

	// ErrCodeCycleDetected indicates a graph fingerprint recurred.
	ErrCodeCycleDetected RuntimeErrorCode = "CYCLE_DETECTED"

	// ErrCodeDuplicateRule indicates two configured rules share a name.
	ErrCodeDuplicateRule RuntimeErrorCode = "DUPLICATE_RULE"

	// ErrCodeReplayDiverged indicates a reaction log did not replay.
	ErrCodeReplayDiverged RuntimeErrorCode = "REPLAY_DIVERGED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.RunID != "" && e.Rule != "" {
		return fmt.Sprintf("%s: %s (run=%s, rule=%s)", e.Code, e.Message, e.RunID, e.Rule)
	}
	if e.RunID != "" {
		return fmt.Sprintf("%s: %s (run=%s)", e.Code, e.Message, e.RunID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsBudgetError returns true if the error is a budget exhaustion error.
// Uses errors.As to handle wrapped errors.
func IsBudgetError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeBudgetExhausted
	}
	return false
}

// IsCycleError returns true if the error is a cycle detection error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeCycleDetected
	}
	return false
}

// IsReplayError returns true if the error is a diverged replay.
func IsReplayError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeReplayDiverged
	}
	return false
}

// NewBudgetError creates a RuntimeError for an exhausted step budget.
func NewBudgetError(runID string, steps, maxSteps int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeBudgetExhausted,
		Message: fmt.Sprintf("run stopped at step budget with candidates left (%d >= %d)", steps, maxSteps),
		RunID:   runID,
		Details: map[string]string{
			"steps":     fmt.Sprintf("%d", steps),
			"max_steps": fmt.Sprintf("%d", maxSteps),
		},
	}
}

// NewCycleError creates a RuntimeError for a recurring graph state.
// firstSeen and step are clock readings; their difference is the period.
func NewCycleError(runID, fingerprint string, firstSeen, step int64) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCycleDetected,
		Message: fmt.Sprintf("graph state at step %d recurs from step %d", step, firstSeen),
		RunID:   runID,
		Details: map[string]string{
			"fingerprint": fingerprint,
			"first_seen":  fmt.Sprintf("%d", firstSeen),
			"period":      fmt.Sprintf("%d", step-firstSeen),
		},
	}
}

// NewDuplicateRuleError wraps a registry failure.
func NewDuplicateRuleError(rule string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDuplicateRule,
		Message: "rule registered twice",
		Rule:    rule,
		Err:     err,
	}
}

// NewReplayError reports the reaction log entry at index that did not
// replay.
func NewReplayError(runID string, index int, r Reaction, why string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeReplayDiverged,
		Message: fmt.Sprintf("reaction %d (%s at step %d) did not replay: %s", index, r.Match, r.Step, why),
		RunID:   runID,
		Rule:    r.Rule,
		Details: map[string]string{
			"index": fmt.Sprintf("%d", index),
			"step":  fmt.Sprintf("%d", r.Step),
		},
	}
}
