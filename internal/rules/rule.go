package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fractastical/icombinators/internal/graph"
)

// Rule family names.
const (
	NameBeta    = "BETA"
	NameFanIn   = "FAN-IN"
	NameDist    = "DIST"
	NamePruning = "PRUNING"
	NameComb    = "COMB"
)

// Rule is a reaction family.
//
// FindMatches must not mutate g. Apply must leave g untouched unless it
// returns Applied.
type Rule interface {
	Name() string
	FindMatches(g *graph.Graph) []Match
	Apply(g *graph.Graph, m Match) Outcome
}

// Match describes one candidate redex. Nodes are listed in the order the
// rule discovered them; for template rules that is left-side declaration
// order.
type Match struct {
	Rule  string         `json:"rule"`
	Case  string         `json:"case"`
	Nodes []graph.NodeID `json:"nodes"`
}

// String renders the match as "RULE/Case[n1 n2]".
func (m Match) String() string {
	ids := make([]string, len(m.Nodes))
	for i, id := range m.Nodes {
		ids[i] = fmt.Sprint(int(id))
	}
	return fmt.Sprintf("%s/%s[%s]", m.Rule, m.Case, strings.Join(ids, " "))
}

// Outcome is the result of applying a match.
type Outcome int

const (
	// Applied means the rewrite happened.
	Applied Outcome = iota + 1

	// NoMatch means the descriptor does not belong to the rule or names a
	// case the rule does not have.
	NoMatch

	// StructuralMismatch means the descriptor is stale: a node is gone, a
	// kind differs, or the joining edge no longer exists. Nothing changed.
	StructuralMismatch

	// NotImplemented means the pattern is recognised but has no rewrite.
	NotImplemented
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NoMatch:
		return "no_match"
	case StructuralMismatch:
		return "structural_mismatch"
	case NotImplemented:
		return "not_implemented"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ErrDuplicateRule is returned when two rules share a name.
var ErrDuplicateRule = errors.New("rules: duplicate rule name")

// Registry is an ordered set of rules with unique names.
// Declaration order is preserved and defines evaluation order.
type Registry struct {
	rules []Rule
	index map[string]int
}

// NewRegistry registers rules in order.
func NewRegistry(rs ...Rule) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(rs))}
	for _, rule := range rs {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a rule. Registering a name twice is an error and leaves
// the registry unchanged.
func (r *Registry) Register(rule Rule) error {
	name := rule.Name()
	if _, dup := r.index[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, name)
	}
	r.index[name] = len(r.rules)
	r.rules = append(r.rules, rule)
	return nil
}

// Rules returns the registered rules in declaration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Names returns the rule names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.rules))
	for i, rule := range r.rules {
		out[i] = rule.Name()
	}
	return out
}

// Lookup returns the rule with the given name.
func (r *Registry) Lookup(name string) (Rule, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.rules[i], true
}

// Len is the number of registered rules.
func (r *Registry) Len() int {
	return len(r.rules)
}

// FindMatches collects the matches of every rule, in declaration order.
func (r *Registry) FindMatches(g *graph.Graph) []Match {
	var out []Match
	for _, rule := range r.rules {
		out = append(out, rule.FindMatches(g)...)
	}
	return out
}

// DefaultRules returns BETA, COMB and PRUNING.
func DefaultRules() []Rule {
	return []Rule{Beta(), Comb(), Pruning()}
}

// AllRules returns the default rules followed by FAN-IN and DIST.
func AllRules() []Rule {
	return append(DefaultRules(), FanIn(), Dist())
}

// ByName builds the named built-in rules. Names are matched exactly.
func ByName(names ...string) ([]Rule, error) {
	builtin := make(map[string]Rule)
	for _, rule := range AllRules() {
		builtin[rule.Name()] = rule
	}
	out := make([]Rule, 0, len(names))
	for _, name := range names {
		rule, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("rules: unknown rule %q", name)
		}
		out = append(out, rule)
	}
	return out, nil
}
