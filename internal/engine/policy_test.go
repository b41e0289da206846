package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractastical/icombinators/internal/graph"
	"github.com/fractastical/icombinators/internal/rules"
)

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("deterministic")
	require.NoError(t, err)
	assert.Equal(t, PolicyDeterministic, p)

	p, err = ParsePolicy("random")
	require.NoError(t, err)
	assert.Equal(t, PolicyRandom, p)
	assert.Equal(t, "random", p.String())

	_, err = ParsePolicy("greedy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"greedy"`)
}

func TestPriority(t *testing.T) {
	assert.Less(t, Priority(rules.NameBeta), Priority(rules.NameFanIn))
	assert.Less(t, Priority(rules.NameFanIn), Priority(rules.NameDist))
	assert.Less(t, Priority(rules.NameDist), Priority(rules.NamePruning))
	assert.Less(t, Priority(rules.NamePruning), Priority(rules.NameComb))
	assert.Less(t, Priority(rules.NameComb), Priority("ETA"), "unknown names sort last")
}

func TestSelectMatch_DeterministicIsStable(t *testing.T) {
	m := func(rule string, id graph.NodeID) rules.Match {
		return rules.Match{Rule: rule, Case: "c", Nodes: []graph.NodeID{id}}
	}
	candidates := []rules.Match{
		m(rules.NameComb, 0),
		m("ETA", 1),
		m(rules.NamePruning, 2),
		m(rules.NamePruning, 3),
		m(rules.NameDist, 4),
		m(rules.NameFanIn, 5),
		m(rules.NameBeta, 6),
	}

	got := selectMatch(candidates, PolicyDeterministic, nil)
	assert.Equal(t, m(rules.NameBeta, 6), got)

	got = selectMatch(candidates[:6], PolicyDeterministic, nil)
	assert.Equal(t, m(rules.NameFanIn, 5), got)

	got = selectMatch(candidates[:4], PolicyDeterministic, nil)
	assert.Equal(t, m(rules.NamePruning, 2), got)
	assert.Equal(t, rules.NameComb, candidates[0].Rule, "input order is untouched")
}

func TestEngine_Step_BetaOutranksFanInRegisteredFirst(t *testing.T) {
	fans := "FRIN a\nFRIN b\nFI a b c\nFOE c d e\nFROUT d\nFROUT e\n"
	e := newEngine(t, fans+simpleApplication, WithRules(rules.FanIn(), rules.Beta(), rules.Comb()))

	res := e.Step(PolicyDeterministic)

	require.True(t, res.Applied())
	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, rules.NameBeta, res.Match.Rule)
	assert.Equal(t, []graph.NodeID{6, 7}, res.Match.Nodes)
}

func TestSelectMatch_RandomUsesGenerator(t *testing.T) {
	candidates := make([]rules.Match, 10)
	for i := range candidates {
		candidates[i] = rules.Match{Rule: rules.NameComb, Nodes: []graph.NodeID{graph.NodeID(i)}}
	}

	a := rand.New(rand.NewPCG(7, 7))
	b := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 20; i++ {
		assert.Equal(t, selectMatch(candidates, PolicyRandom, a), selectMatch(candidates, PolicyRandom, b))
	}
}
