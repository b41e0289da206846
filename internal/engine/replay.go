package engine

import (
	"fmt"

	"github.com/fractastical/icombinators/internal/graph"
)

// Replay re-applies a reaction log to g on a new engine built with opts.
//
// Matches are not rediscovered and no policy is consulted: each entry's
// descriptor is applied as recorded, followed by the COMB cascade. Node
// ids are allocated monotonically, so a log replayed on a fresh copy of
// the graph it was recorded from, with the same rules and cascade limit,
// names the same nodes and reproduces the same final graph.
//
// The first entry that does not apply, or that lands on a different clock
// reading, stops the replay with a REPLAY_DIVERGED RuntimeError. The engine
// is returned either way so callers can inspect where it stopped.
func Replay(g *graph.Graph, log []Reaction, opts ...EngineOption) (*Engine, error) {
	e, err := New(g, opts...)
	if err != nil {
		return nil, err
	}

	e.logger.Info("replay starting", "reactions", len(log), "graph_nodes", g.NodeCount())
	for i, r := range log {
		res := e.apply(r.Match, 0)
		if !res.Applied() {
			return e, NewReplayError(e.runID, i, r, fmt.Sprintf("outcome %s", res.Outcome))
		}
		if res.Step != r.Step {
			return e, NewReplayError(e.runID, i, r, fmt.Sprintf("applied at step %d", res.Step))
		}
	}
	e.logger.Info("replay finished", "applied", len(log), "graph_nodes", e.g.NodeCount())
	return e, nil
}

// Replays reports whether replaying the engine's own reaction log on
// initial, a fresh copy of the graph the engine started from, ends in the
// engine's current graph. The replay engine is built with opts, which
// should repeat the rules and cascade limit of the original.
func (e *Engine) Replays(initial *graph.Graph, opts ...EngineOption) (bool, error) {
	replayed, err := Replay(initial, e.Reactions(), opts...)
	if err != nil {
		return false, err
	}
	return replayed.Graph().Fingerprint() == e.g.Fingerprint(), nil
}
