package engine

// StepBudget counts attempted steps of one Run and enforces its ceiling.
//
// The rewrite system is neither confluent nor terminating in general, so
// the budget is the guard against runaway reductions (an omega term grows
// forever). Cycle detection is the complementary guard against reductions
// that revisit a state.
type StepBudget struct {
	maxSteps int
	current  int
}

// NewStepBudget creates a budget allowing maxSteps steps.
// A non-positive maxSteps allows none.
func NewStepBudget(maxSteps int) *StepBudget {
	return &StepBudget{maxSteps: maxSteps}
}

// Take consumes one step and reports whether it was within the budget.
func (b *StepBudget) Take() bool {
	if b.current >= b.maxSteps {
		return false
	}
	b.current++
	return true
}

// Exhausted reports whether no steps remain.
func (b *StepBudget) Exhausted() bool {
	return b.current >= b.maxSteps
}

// Current returns the number of steps taken.
func (b *StepBudget) Current() int {
	return b.current
}

// MaxSteps returns the ceiling.
func (b *StepBudget) MaxSteps() int {
	return b.maxSteps
}
