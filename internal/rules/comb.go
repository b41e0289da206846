package rules

import "github.com/fractastical/icombinators/internal/graph"

// CaseArrow is COMB's only case.
const CaseArrow = "Arrow"

type comb struct{}

// Comb is the COMB rule: an arrow between two other nodes is removed and
// its two neighbours are joined directly.
func Comb() Rule { return comb{} }

func (comb) Name() string { return NameComb }

func (comb) FindMatches(g *graph.Graph) []Match {
	var out []Match
	for _, id := range g.NodesOfKind(graph.KindArrow) {
		if _, _, ok := combEnds(g, id); ok {
			out = append(out, Match{Rule: NameComb, Case: CaseArrow, Nodes: []graph.NodeID{id}})
		}
	}
	return out
}

func (comb) Apply(g *graph.Graph, m Match) Outcome {
	if m.Rule != NameComb || m.Case != CaseArrow {
		return NoMatch
	}
	if len(m.Nodes) != 1 {
		return StructuralMismatch
	}
	arrow := m.Nodes[0]
	in, out, ok := combEnds(g, arrow)
	if !ok {
		return StructuralMismatch
	}
	g.RemoveNode(arrow)
	mustConnect(g, in, out)
	return Applied
}

// combEnds returns the partners of an arrow's two ports when both are bound
// to distinct nodes other than the arrow itself.
func combEnds(g *graph.Graph, id graph.NodeID) (graph.Port, graph.Port, bool) {
	if k, ok := g.Kind(id); !ok || k != graph.KindArrow {
		return graph.Port{}, graph.Port{}, false
	}
	in, ok := g.Connected(graph.P(id, graph.LabelMiddle))
	if !ok {
		return graph.Port{}, graph.Port{}, false
	}
	out, ok := g.Connected(graph.P(id, graph.LabelMiddleOut))
	if !ok {
		return graph.Port{}, graph.Port{}, false
	}
	if in.Node == id || out.Node == id || in.Node == out.Node {
		return graph.Port{}, graph.Port{}, false
	}
	return in, out, true
}
