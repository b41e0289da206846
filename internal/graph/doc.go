// Package graph implements the port graph that chemlambda molecules live in.
//
// A molecule is a set of typed nodes (L, A, FI, FO, FOE, T, Arrow, FRIN,
// FROUT). Each kind fixes an ordered list of named, directed ports at
// creation time. Edges join ports, never nodes, and every port carries at
// most one edge.
//
// # Identity
//
// Nodes live in an arena indexed by NodeID. IDs grow monotonically and are
// never reused, so a stale NodeID can be detected with Has. A Port is the
// plain value (NodeID, Label) and is used directly as a map key by the edge
// relation.
//
// # Edge relation
//
// The relation is a symmetric matching: Connect(a, b) records a→b and b→a,
// Disconnect removes both. Connect rewires: a port that is already bound
// loses its previous edge first. CheckSymmetry verifies the invariant.
//
// # Text formats
//
// Serialize produces the mol output consumed by renderers:
//
//	L p0_middle.in n1 n1
//	A n0 p1_right.in n0
//
// Parse reads the wire-named input format, where each wire name occurs on
// the two ports it links:
//
//	L body x r
//	A r arg out
//
// FormatWires writes the input format back out so molecules round-trip.
package graph
