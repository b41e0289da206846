package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/fractastical/icombinators/internal/rules"
)

// Policy selects one candidate among a step's matches.
type Policy int

const (
	// PolicyDeterministic takes the first candidate after a stable sort by
	// rule priority.
	PolicyDeterministic Policy = iota + 1

	// PolicyRandom picks a candidate uniformly at random from the engine's
	// generator.
	PolicyRandom
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyDeterministic:
		return "deterministic"
	case PolicyRandom:
		return "random"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a policy name to its value.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "deterministic":
		return PolicyDeterministic, nil
	case "random":
		return PolicyRandom, nil
	default:
		return 0, fmt.Errorf("unknown policy %q (expected deterministic or random)", s)
	}
}

// priorities orders rule families for PolicyDeterministic. Every family
// has its own rank, so registration order only breaks ties inside one rule.
// COMB comes last because the cascade handles it.
var priorities = map[string]int{
	rules.NameBeta:    0,
	rules.NameFanIn:   1,
	rules.NameDist:    2,
	rules.NamePruning: 3,
	rules.NameComb:    4,
}

// Priority returns the deterministic rank of a rule name. Lower runs
// first; unknown names rank after every built-in.
func Priority(rule string) int {
	if p, ok := priorities[rule]; ok {
		return p
	}
	return len(priorities)
}

// selectMatch picks one candidate. candidates must be non-empty.
func selectMatch(candidates []rules.Match, policy Policy, rng *rand.Rand) rules.Match {
	if policy == PolicyRandom {
		return candidates[rng.IntN(len(candidates))]
	}
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b rules.Match) int {
		return Priority(a.Rule) - Priority(b.Rule)
	})
	return ordered[0]
}
