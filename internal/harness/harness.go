package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fractastical/icombinators/internal/catalog"
	"github.com/fractastical/icombinators/internal/engine"
	"github.com/fractastical/icombinators/internal/graph"
	"github.com/fractastical/icombinators/internal/rules"
	"github.com/fractastical/icombinators/internal/testutil"
)

// Harness executes one scenario against a fresh engine.
type Harness struct {
	engine  *engine.Engine
	policy  engine.Policy
	rules   []rules.Rule
	logger  *slog.Logger
	catalog *catalog.Catalog
}

// Option configures Run.
type Option func(*Harness)

// WithLogger routes engine and harness logs to l. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithCatalog sets the catalogue used to resolve scenario molecules.
// Default: the built-in catalogue.
func WithCatalog(c *catalog.Catalog) Option {
	return func(h *Harness) {
		h.catalog = c
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario reduces its own copy of the molecule, with a fixed run id
// and, for the random policy, the scenario's seed. Two runs of the same
// scenario produce identical traces.
//
// Execution flow:
//  1. Resolve the molecule and its rules
//  2. Build the engine
//  3. Take the flow steps, checking each expect clause
//  4. Run to a halt if the scenario has a run clause
//  5. Evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	g, ruleSet, err := h.resolve(scenario)
	if err != nil {
		return nil, err
	}
	h.rules = ruleSet

	h.policy = engine.PolicyDeterministic
	if scenario.Policy != "" {
		if h.policy, err = engine.ParsePolicy(scenario.Policy); err != nil {
			return nil, err
		}
	}

	engineOpts := []engine.EngineOption{
		engine.WithRules(ruleSet...),
		engine.WithSeed(scenario.Seed),
		engine.WithLogger(h.logger),
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
	}
	if scenario.CascadeLimit != nil {
		engineOpts = append(engineOpts, engine.WithCascadeLimit(*scenario.CascadeLimit))
	}
	if scenario.Cycles {
		engineOpts = append(engineOpts, engine.WithCycleDetection())
	}
	h.engine, err = engine.New(g, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	result := NewResult()
	result.RunID = h.engine.RunID()

	h.executeFlow(scenario.Flow, result)

	halt := ""
	if scenario.Run != nil {
		halt = h.executeRun(scenario.Run.MaxSteps, result)
	}

	result.Final = h.finalState(halt)

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, h.rules, h.engine.Graph()) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"steps", result.Final.Steps,
	)
	return result, nil
}

// resolve returns a fresh graph for the scenario and the rules to run.
func (h *Harness) resolve(s *Scenario) (*graph.Graph, []rules.Rule, error) {
	var (
		g       *graph.Graph
		ruleSet []rules.Rule
		err     error
	)

	if s.Mol != "" {
		if g, err = graph.Parse(s.Mol); err != nil {
			return nil, nil, fmt.Errorf("scenario mol: %w", err)
		}
		ruleSet = rules.DefaultRules()
	} else {
		cat, err := h.catalogFor(s)
		if err != nil {
			return nil, nil, err
		}
		m, err := cat.Lookup(s.Molecule)
		if err != nil {
			return nil, nil, err
		}
		if g, err = m.Graph(); err != nil {
			return nil, nil, fmt.Errorf("molecule %s: %w", m.Name, err)
		}
		if ruleSet, err = m.RuleSet(); err != nil {
			return nil, nil, fmt.Errorf("molecule %s: %w", m.Name, err)
		}
	}

	if len(s.Rules) > 0 {
		if ruleSet, err = rules.ByName(s.Rules...); err != nil {
			return nil, nil, err
		}
	}
	return g, ruleSet, nil
}

func (h *Harness) catalogFor(s *Scenario) (*catalog.Catalog, error) {
	cat := h.catalog
	if cat == nil {
		var err error
		if cat, err = catalog.Default(); err != nil {
			return nil, err
		}
	}
	if s.Catalog == "" {
		return cat, nil
	}

	extra, err := catalog.LoadDir(s.Catalog)
	if err != nil {
		return nil, err
	}
	merged := cat.Clone()
	if err := merged.Merge(extra); err != nil {
		return nil, err
	}
	return merged, nil
}

// executeFlow takes one engine step per flow entry and checks its expect
// clause. A failed expectation is recorded and the flow continues.
func (h *Harness) executeFlow(flow []FlowStep, result *Result) {
	for i, step := range flow {
		res := h.engine.Step(h.policy)

		result.AddStepTrace(TraceEvent{
			Seq:        res.Step,
			Rule:       res.Match.Rule,
			Case:       res.Match.Case,
			Nodes:      res.Match.Nodes,
			Outcome:    res.Outcome.String(),
			Candidates: res.Candidates,
			Cascade:    res.Cascade,
		})

		if step.Expect != nil {
			for _, msg := range checkExpect(step.Expect, res) {
				result.AddError(fmt.Sprintf("flow[%d]: %s", i, msg))
			}
		}

		h.logger.Info("flow step completed",
			"step", i,
			"match", res.Match.String(),
			"outcome", res.Outcome.String(),
		)
	}
}

func checkExpect(exp *ExpectClause, res engine.StepResult) []string {
	var errs []string

	wantOutcome := exp.Outcome
	if wantOutcome == "" {
		wantOutcome = rules.Applied.String()
	}
	if got := res.Outcome.String(); got != wantOutcome {
		errs = append(errs, fmt.Sprintf("expected outcome %s, got %s", wantOutcome, got))
	}
	if exp.Rule != "" && exp.Rule != res.Match.Rule {
		errs = append(errs, fmt.Sprintf("expected rule %s, got %q", exp.Rule, res.Match.Rule))
	}
	if exp.Case != "" && exp.Case != res.Match.Case {
		errs = append(errs, fmt.Sprintf("expected case %s, got %q", exp.Case, res.Match.Case))
	}
	if exp.Cascade != nil && *exp.Cascade != res.Cascade {
		errs = append(errs, fmt.Sprintf("expected cascade %d, got %d", *exp.Cascade, res.Cascade))
	}
	return errs
}

// executeRun runs the engine and records the reactions it applied.
func (h *Harness) executeRun(maxSteps int, result *Result) string {
	before := len(h.engine.Reactions())
	applied := h.engine.Run(maxSteps, h.policy)

	for _, r := range h.engine.Reactions()[before:] {
		result.AddStepTrace(TraceEvent{
			Seq:     r.Step,
			Rule:    r.Rule,
			Case:    r.Match.Case,
			Nodes:   r.Match.Nodes,
			Outcome: rules.Applied.String(),
		})
	}

	halt := h.engine.LastHalt().String()
	result.AddHaltTrace(halt, applied, h.engine.Clock().Current())
	return halt
}

func (h *Harness) finalState(halt string) FinalState {
	stats := h.engine.Stats()
	return FinalState{
		Mol:        h.engine.Graph().Serialize(),
		Nodes:      stats.Nodes,
		Edges:      stats.Edges,
		Steps:      stats.Steps,
		Halt:       halt,
		RuleCounts: stats.RuleCounts,
	}
}
