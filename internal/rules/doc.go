// Package rules implements the chemlambda reaction rules over a port graph.
//
// A Rule finds candidate redexes (FindMatches) and rewrites one of them
// (Apply). Matching is pure: it never mutates the graph and is recomputed
// from scratch on every call, so a Match is only a descriptor that may go
// stale once the graph changes. Apply re-validates the descriptor and
// reports an Outcome instead of failing.
//
// Most rules are written as templates in move notation:
//
//	L 1 2 c, A c 4 3 => Arrow 1 3, Arrow 4 2
//
// The left side names two nodes joined by exactly one shared wire ("c").
// Every other left wire is a boundary wire and must occur exactly once on
// the right side, where its new port takes over the redex's external
// partner. Wires that occur only on the right side are internal and occur
// exactly twice. See ParseTemplate.
//
// COMB is hand-written because its redex is a single Arrow node.
//
// Families and cases:
//
//	BETA     L_A
//	FAN-IN   FI_FOE
//	DIST     L_FO L_FOE A_FO A_FOE FI_FO FO_FOE
//	PRUNING  A_FI_T L_T FO_T_left FO_T_right
//	COMB     Arrow
package rules
