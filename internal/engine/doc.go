// Package engine implements the reduction driver.
//
// An Engine owns one port graph and a registry of rules. Each Step asks
// every rule for matches, selects one by policy, snapshots the graph,
// applies the rewrite and then lets COMB clean up the arrows the rewrite
// left behind. Run repeats Step until nothing applies or the step budget
// runs out.
//
// DETERMINISM:
//
// Rules are evaluated in registration order and each rule orders its own
// matches, so the candidate list is a pure function of the graph. With
// PolicyDeterministic the selected candidate is too: candidates are
// stable-sorted by rule priority (BETA and FAN-IN, then DIST, then PRUNING,
// then COMB) and the first is taken. PolicyRandom draws from a generator
// that WithSeed makes reproducible.
//
// TERMINATION:
//
// Chemlambda is neither confluent nor terminating. Two ceilings bound a
// run: the caller's step budget and the cascade limit. WithCycleDetection
// adds a third stop for molecules that revisit a state.
//
// LOGICAL CLOCK:
//
// The step clock ticks once per applied step. Reaction log entries and
// runtime errors carry its readings, never wall-clock time.
package engine
