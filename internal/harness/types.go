package harness

import (
	"github.com/fractastical/icombinators/internal/graph"
	"github.com/fractastical/icombinators/internal/rules"
)

// Trace event types.
const (
	EventStep = "step"
	EventHalt = "halt"
)

// TraceEvent is one entry of a scenario trace: a reduction step or the
// halt that ended a run.
type TraceEvent struct {
	Type    string         `json:"type"` // "step" or "halt"
	Seq     int64          `json:"seq"`
	Rule    string         `json:"rule,omitempty"`
	Case    string         `json:"case,omitempty"`
	Nodes   []graph.NodeID `json:"nodes,omitempty"`
	Outcome string         `json:"outcome,omitempty"`

	// Candidates and Cascade are known only for flow steps.
	Candidates int `json:"candidates,omitempty"`
	Cascade    int `json:"cascade,omitempty"`

	Halt    string `json:"halt,omitempty"`
	Applied int    `json:"applied,omitempty"`
}

// FinalState is the graph and engine state after a scenario.
type FinalState struct {
	Mol        string         `json:"mol"`
	Nodes      int            `json:"nodes"`
	Edges      int            `json:"edges"`
	Steps      int64          `json:"steps"`
	Halt       string         `json:"halt,omitempty"`
	RuleCounts map[string]int `json:"rule_counts"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every flow expectation and assertion held.
	Pass bool `json:"pass"`

	// RunID is the engine run id.
	RunID string `json:"run_id"`

	// Trace contains steps and halts in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the state the scenario ended in.
	Final FinalState `json:"final"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStepTrace adds a reduction step to the trace.
func (r *Result) AddStepTrace(ev TraceEvent) {
	ev.Type = EventStep
	r.Trace = append(r.Trace, ev)
}

// AddHaltTrace adds the end of a run to the trace.
func (r *Result) AddHaltTrace(halt string, applied int, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    EventHalt,
		Seq:     seq,
		Halt:    halt,
		Applied: applied,
	})
}

// AppliedSteps returns the step events whose rewrite happened, in order.
func (r *Result) AppliedSteps() []TraceEvent {
	var out []TraceEvent
	for _, ev := range r.Trace {
		if ev.Type == EventStep && ev.Outcome == rules.Applied.String() {
			out = append(out, ev)
		}
	}
	return out
}
