package engine

import (
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/fractastical/icombinators/internal/graph"
	"github.com/fractastical/icombinators/internal/metrics"
	"github.com/fractastical/icombinators/internal/rules"
)

// DefaultCascadeLimit caps the COMB cascade that follows each applied step.
const DefaultCascadeLimit = 100

// HaltReason records why the latest Run stopped.
type HaltReason int

const (
	// HaltNone means Run has not been called.
	HaltNone HaltReason = iota

	// HaltNormalForm means no configured rule matches.
	HaltNormalForm

	// HaltBudget means the step budget ran out with candidates left.
	HaltBudget

	// HaltStalled means the selected candidate did not apply. Step does not
	// fall back to another candidate, so Run stops.
	HaltStalled

	// HaltCycle means the graph returned to an earlier state.
	HaltCycle
)

// String returns the halt reason name.
func (h HaltReason) String() string {
	switch h {
	case HaltNone:
		return "none"
	case HaltNormalForm:
		return "normal_form"
	case HaltBudget:
		return "budget"
	case HaltStalled:
		return "stalled"
	case HaltCycle:
		return "cycle"
	default:
		return "unknown"
	}
}

// Reaction is one reaction log entry.
type Reaction struct {
	Step  int64       `json:"step"`
	Rule  string      `json:"rule"`
	Match rules.Match `json:"match"`
}

// StepResult reports what a single Step did.
type StepResult struct {
	// Outcome is rules.NoMatch when there were no candidates; otherwise it
	// is the outcome of applying the selected match.
	Outcome rules.Outcome

	// Match is the selected candidate (zero when there were none).
	Match rules.Match

	// Candidates is the number of matches found across all rules.
	Candidates int

	// Cascade is the number of COMB rewrites applied after the step.
	Cascade int

	// Step is the clock reading after the step.
	Step int64
}

// Applied reports whether the selected rewrite happened.
func (r StepResult) Applied() bool {
	return r.Outcome == rules.Applied
}

// Stats summarises an engine's progress.
type Stats struct {
	Steps        int64          `json:"steps"`
	RuleCounts   map[string]int `json:"rule_counts"`
	CascadeSteps int            `json:"cascade_steps"`
	Nodes        int            `json:"nodes"`
	Edges        int            `json:"edges"`
	History      int            `json:"history"`
}

// Engine reduces one port graph.
//
// The engine owns its graph: callers hand it over at construction and
// read it back through Graph. It is not safe for concurrent use; Step is
// the unit of atomicity, with match discovery and the chosen rewrite
// happening back to back.
//
// INVARIANTS:
//   - rule order never changes after construction
//   - rule names are unique
//   - history holds clones, never the live graph
type Engine struct {
	g        *graph.Graph
	registry *rules.Registry
	comb     rules.Rule // nil when COMB is not registered
	rng      *rand.Rand
	clock    *Clock
	runID    string
	logger   *slog.Logger
	metrics  *metrics.Metrics

	cascadeLimit int
	keepHistory  bool
	cycles       *CycleDetector // nil unless WithCycleDetection

	history      []*graph.Graph
	reactions    []Reaction
	counts       map[string]int
	cascadeSteps int
	lastHalt     HaltReason
	haltErr      error

	// set by options, consumed by New
	rules []rules.Rule
	idGen RunIDGenerator
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithRules sets the rules in evaluation order.
// Default: rules.DefaultRules() (BETA, COMB, PRUNING).
func WithRules(rs ...rules.Rule) EngineOption {
	return func(e *Engine) {
		e.rules = rs
	}
}

// WithSeed seeds the random selection policy for reproducible runs.
func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithRand sets the generator used by the random selection policy.
func WithRand(r *rand.Rand) EngineOption {
	return func(e *Engine) {
		e.rng = r
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics records step and halt metrics.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithCascadeLimit caps the COMB cascade after each applied step.
// Zero disables the cascade. The cascade only runs when COMB is among the
// engine's rules. Default: DefaultCascadeLimit.
func WithCascadeLimit(n int) EngineOption {
	return func(e *Engine) {
		e.cascadeLimit = n
	}
}

// WithCycleDetection makes Run halt when the graph returns to a state it
// already had during the run.
func WithCycleDetection() EngineOption {
	return func(e *Engine) {
		e.cycles = NewCycleDetector()
	}
}

// WithRunIDGenerator sets the run id source. Default: UUIDv7Generator.
func WithRunIDGenerator(gen RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.idGen = gen
	}
}

// WithoutHistory stops the engine from snapshotting the graph before each
// step. History stays empty.
func WithoutHistory() EngineOption {
	return func(e *Engine) {
		e.keepHistory = false
	}
}

// New creates an engine that owns g.
//
// The rules are registered in the order given; that order is the
// evaluation order and never changes. A duplicate rule name is a
// RuntimeError with code DUPLICATE_RULE.
func New(g *graph.Graph, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		g:            g,
		clock:        NewClock(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		cascadeLimit: DefaultCascadeLimit,
		keepHistory:  true,
		counts:       make(map[string]int),
		rules:        rules.DefaultRules(),
		idGen:        UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(e)
	}

	reg, err := rules.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, r := range e.rules {
		if err := reg.Register(r); err != nil {
			return nil, NewDuplicateRuleError(r.Name(), err)
		}
	}
	e.registry = reg
	e.rules = nil
	if comb, ok := reg.Lookup(rules.NameComb); ok {
		e.comb = comb
	}

	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	e.runID = e.idGen.Generate()
	e.logger = e.logger.With("run", e.runID)
	return e, nil
}

// Step performs one reduction step.
//
//  1. Collect the matches of every rule, in rule order.
//  2. If there are none, return NoMatch: the graph is in normal form for
//     the configured rules.
//  3. Select one candidate by policy.
//  4. Snapshot the graph into history.
//  5. Apply the candidate.
//  6. On success, tick the clock, log the reaction and, unless the rule
//     was COMB, run the COMB cascade.
//
// A candidate that fails to apply is reported, not retried.
func (e *Engine) Step(policy Policy) StepResult {
	candidates := e.registry.FindMatches(e.g)
	if e.metrics != nil {
		e.metrics.Candidates.Observe(float64(len(candidates)))
	}
	if len(candidates) == 0 {
		e.logger.Debug("no candidates", "step", e.clock.Current())
		return StepResult{Outcome: rules.NoMatch, Step: e.clock.Current()}
	}

	m := selectMatch(candidates, policy, e.rng)
	e.logger.Debug("candidate selected",
		"match", m.String(),
		"candidates", len(candidates),
		"policy", policy.String(),
	)

	return e.apply(m, len(candidates))
}

// apply snapshots the graph, applies m and, on success, ticks the clock,
// logs the reaction and runs the COMB cascade. A match naming a rule the
// engine does not have is NoMatch and leaves no snapshot.
func (e *Engine) apply(m rules.Match, candidates int) StepResult {
	rule, ok := e.registry.Lookup(m.Rule)
	if !ok {
		return StepResult{Outcome: rules.NoMatch, Match: m, Candidates: candidates, Step: e.clock.Current()}
	}

	if e.keepHistory {
		e.history = append(e.history, e.g.Clone())
	}

	outcome := rule.Apply(e.g, m)
	res := StepResult{Outcome: outcome, Match: m, Candidates: candidates}
	if outcome != rules.Applied {
		e.logger.Warn("selected match did not apply",
			"match", m.String(),
			"outcome", outcome.String(),
		)
		if e.metrics != nil {
			e.metrics.StepsFailed.WithLabelValues(m.Rule, outcome.String()).Inc()
		}
		res.Step = e.clock.Current()
		return res
	}

	step := e.clock.Tick()
	e.reactions = append(e.reactions, Reaction{Step: step, Rule: m.Rule, Match: m})
	e.counts[m.Rule]++

	if m.Rule != rules.NameComb {
		res.Cascade = e.cascade()
	}
	res.Step = step

	e.logger.Info("step applied",
		"step", step,
		"rule", m.Rule,
		"case", m.Case,
		"nodes", m.Nodes,
		"cascade", res.Cascade,
		"graph_nodes", e.g.NodeCount(),
	)
	if e.metrics != nil {
		e.metrics.StepsApplied.WithLabelValues(m.Rule).Inc()
		e.metrics.CascadeSteps.Observe(float64(res.Cascade))
		e.metrics.Nodes.Set(float64(e.g.NodeCount()))
		e.metrics.Edges.Set(float64(e.g.EdgeCount()))
	}
	return res
}

// cascade applies the first COMB match repeatedly, at most cascadeLimit
// times. It stops early when no COMB match remains or one fails to apply,
// and does nothing when COMB is not among the engine's rules.
func (e *Engine) cascade() int {
	if e.comb == nil {
		return 0
	}
	n := 0
	for n < e.cascadeLimit {
		matches := e.comb.FindMatches(e.g)
		if len(matches) == 0 {
			break
		}
		if e.comb.Apply(e.g, matches[0]) != rules.Applied {
			break
		}
		n++
	}
	e.cascadeSteps += n
	return n
}

// Run steps until a step does not apply or maxSteps steps have been
// applied, and returns the number applied. LastHalt and HaltErr report why
// it stopped.
func (e *Engine) Run(maxSteps int, policy Policy) int {
	budget := NewStepBudget(maxSteps)
	e.haltErr = nil
	if e.cycles != nil {
		e.cycles.Reset()
		e.cycles.Record(e.g.Fingerprint(), e.clock.Current())
	}

	e.logger.Info("run starting",
		"max_steps", maxSteps,
		"policy", policy.String(),
		"rules", e.registry.Names(),
		"graph_nodes", e.g.NodeCount(),
	)

	applied := 0
	for {
		if budget.Exhausted() {
			if len(e.registry.FindMatches(e.g)) == 0 {
				e.lastHalt = HaltNormalForm
			} else {
				e.lastHalt = HaltBudget
				e.haltErr = NewBudgetError(e.runID, budget.Current(), budget.MaxSteps())
			}
			break
		}
		budget.Take()

		res := e.Step(policy)
		if !res.Applied() {
			if res.Candidates == 0 {
				e.lastHalt = HaltNormalForm
			} else {
				e.lastHalt = HaltStalled
			}
			break
		}
		applied++

		if e.cycles != nil {
			fp := e.g.Fingerprint()
			if first, seen := e.cycles.Seen(fp); seen {
				e.lastHalt = HaltCycle
				e.haltErr = NewCycleError(e.runID, fp, first, res.Step)
				break
			}
			e.cycles.Record(fp, res.Step)
		}
	}

	e.logger.Info("run halted",
		"reason", e.lastHalt.String(),
		"applied", applied,
		"graph_nodes", e.g.NodeCount(),
		"graph_edges", e.g.EdgeCount(),
	)
	if e.metrics != nil {
		e.metrics.Halts.WithLabelValues(e.lastHalt.String()).Inc()
	}
	return applied
}

// LastHalt returns why the latest Run stopped.
func (e *Engine) LastHalt() HaltReason {
	return e.lastHalt
}

// HaltErr returns a RuntimeError when the latest Run stopped at its budget
// or on a cycle, and nil otherwise.
func (e *Engine) HaltErr() error {
	return e.haltErr
}

// Graph returns the live graph. Callers must not mutate it.
func (e *Engine) Graph() *graph.Graph {
	return e.g
}

// History returns the pre-step snapshots, oldest first.
func (e *Engine) History() []*graph.Graph {
	out := make([]*graph.Graph, len(e.history))
	copy(out, e.history)
	return out
}

// Reactions returns the reaction log, oldest first.
func (e *Engine) Reactions() []Reaction {
	out := make([]Reaction, len(e.reactions))
	copy(out, e.reactions)
	return out
}

// Stats returns per-rule application counts and current graph totals.
func (e *Engine) Stats() Stats {
	counts := make(map[string]int, len(e.counts))
	for k, v := range e.counts {
		counts[k] = v
	}
	return Stats{
		Steps:        e.clock.Current(),
		RuleCounts:   counts,
		CascadeSteps: e.cascadeSteps,
		Nodes:        e.g.NodeCount(),
		Edges:        e.g.EdgeCount(),
		History:      len(e.history),
	}
}

// Rules returns the configured rule names in evaluation order.
func (e *Engine) Rules() []string {
	return e.registry.Names()
}

// RunID returns the engine's run id.
func (e *Engine) RunID() string {
	return e.runID
}

// Clock returns the engine's step clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}
