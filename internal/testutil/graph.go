// Package testutil holds helpers shared by package tests.
package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractastical/icombinators/internal/graph"
)

// MustGraph parses wire-format mol text or fails the test.
func MustGraph(t testing.TB, mol string) *graph.Graph {
	t.Helper()
	g, err := graph.Parse(mol)
	require.NoError(t, err, "parse mol:\n%s", mol)
	return g
}

// Mol joins serialized node lines the way graph.Serialize does.
//
//	Mol("T n3", "T n0") == "T n3\nT n0"
func Mol(lines ...string) string {
	return strings.Join(lines, "\n")
}

// AssertMol checks g's serialization and edge symmetry.
func AssertMol(t testing.TB, want string, g *graph.Graph) bool {
	t.Helper()
	ok := assert.NoError(t, g.CheckSymmetry())
	return assert.Equal(t, want, g.Serialize()) && ok
}

// RequireSymmetric stops the test when g's edge relation is not symmetric.
func RequireSymmetric(t testing.TB, g *graph.Graph) {
	t.Helper()
	require.NoError(t, g.CheckSymmetry())
}
