package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractastical/icombinators/internal/engine"
	"github.com/fractastical/icombinators/internal/rules"
)

func TestDefault_Names(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"identity",
		"simple_application",
		"arrow_loop",
		"discard",
		"erase_lambda",
		"drop_copy",
		"fan_in",
		"dist_identity",
		"omega",
	}, c.Names())
	assert.Equal(t, 9, c.Len())
}

func TestDefault_EntriesParse(t *testing.T) {
	for _, m := range MustDefault().Molecules() {
		t.Run(m.Name, func(t *testing.T) {
			g, err := m.Graph()
			require.NoError(t, err)
			assert.Positive(t, g.NodeCount())
			require.NoError(t, g.CheckSymmetry())

			rs, err := m.RuleSet()
			require.NoError(t, err)
			assert.NotEmpty(t, rs)
			assert.NotEmpty(t, m.Description)
		})
	}
}

func TestDefault_ExpectationsHold(t *testing.T) {
	for _, m := range MustDefault().Molecules() {
		if m.Expect.Steps == nil {
			continue
		}
		t.Run(m.Name, func(t *testing.T) {
			g, err := m.Graph()
			require.NoError(t, err)
			rs, err := m.RuleSet()
			require.NoError(t, err)

			e, err := engine.New(g, engine.WithRules(rs...))
			require.NoError(t, err)
			applied := e.Run(100, engine.PolicyDeterministic)

			assert.Equal(t, *m.Expect.Steps, applied)
			assert.Equal(t, m.Expect.Halt, e.LastHalt().String())
			if m.Expect.Mol != nil {
				assert.Equal(t, *m.Expect.Mol, e.Graph().Serialize())
			}
		})
	}
}

func TestMolecule_RuleSetDefaults(t *testing.T) {
	m, err := MustDefault().Lookup("identity")
	require.NoError(t, err)
	assert.Empty(t, m.Rules)

	rs, err := m.RuleSet()
	require.NoError(t, err)
	assert.Len(t, rs, len(rules.DefaultRules()))

	m, err = MustDefault().Lookup("fan_in")
	require.NoError(t, err)
	assert.Equal(t, []string{rules.NameFanIn, rules.NameComb}, m.Rules)
}

func TestLookup_Normalizes(t *testing.T) {
	c := MustDefault()

	for _, name := range []string{"simple_application", "Simple-Application", "  SIMPLE_APPLICATION "} {
		m, err := c.Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, "simple_application", m.Name)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := MustDefault().Lookup("y_combinator")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMolecule))
	assert.Contains(t, err.Error(), `"y_combinator"`)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "omega", Key("OMEGA"))
	assert.Equal(t, "fan_in", Key("Fan-In"))
	// Decomposed é (e + combining acute) folds to the composed form.
	assert.Equal(t, Key("cafe\u0301"), Key("CAF\u00c9"))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{
			name:  "missing mol",
			src:   `molecule: empty: { description: "nothing" }`,
			field: "mol",
			msg:   "mol is required",
		},
		{
			name:  "mol does not parse",
			src:   `molecule: bad: { mol: "L a b" }`,
			field: "mol",
			msg:   "ARITY",
		},
		{
			name:  "unknown rule",
			src:   `molecule: bad: { mol: "T a", rules: ["ETA"] }`,
			field: "rules",
			msg:   `unknown rule "ETA"`,
		},
		{
			name:  "unknown halt",
			src:   `molecule: bad: { mol: "T a", expect: halt: "exploded" }`,
			field: "expect.halt",
			msg:   `"exploded"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cuecontext.New().CompileString(tt.src)
			require.NoError(t, v.Err())

			_, err := Compile(v)
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.msg)
		})
	}
}

func TestCompile_DuplicateAfterNormalization(t *testing.T) {
	v := cuecontext.New().CompileString(`
		molecule: "fan-in": { mol: "T a" }
		molecule: fan_in: { mol: "T b" }
	`)
	require.NoError(t, v.Err())

	_, err := Compile(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
}

func TestCompile_NoMolecules(t *testing.T) {
	v := cuecontext.New().CompileString(`other: 1`)
	c, err := Compile(v)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	src := `
package mine

molecule: twin_terminators: {
	description: "Two terminators on one wire."
	mol: "T a\nT a"
	rules: ["PRUNING"]
	expect: {steps: 0, halt: "normal_form"}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mine.cue"), []byte(src), 0o644))

	c, err := LoadDir(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"twin_terminators"}, c.Names())

	m, err := c.Lookup("Twin-Terminators")
	require.NoError(t, err)
	assert.Equal(t, "T a\nT a", m.Mol)
	require.NotNil(t, m.Expect.Steps)
	assert.Equal(t, 0, *m.Expect.Steps)
	assert.Nil(t, m.Expect.Mol)
}

func TestLoadDir_SchemaRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	src := `
package mine

molecule: odd: {
	mol: "T a"
	colour: "red"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "odd.cue"), []byte(src), 0o644))

	_, err := LoadDir(dir)
	require.Error(t, err)
}

func TestLoadDir_NotADirectory(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.cue")
	require.NoError(t, os.WriteFile(file, []byte("package x"), 0o644))
	_, err = LoadDir(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	src := "package mine\n\nmolecule: extra: mol: \"T a\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.cue"), []byte(src), 0o644))
	extra, err := LoadDir(dir)
	require.NoError(t, err)

	c := MustDefault()
	require.NoError(t, c.Merge(extra))
	assert.Equal(t, 10, c.Len())
	assert.Equal(t, "extra", c.Names()[9])

	err = c.Merge(extra)
	require.Error(t, err)
	assert.Equal(t, 10, c.Len(), "failed merge leaves the catalogue unchanged")
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "mol", Message: "mol is required"}
	assert.Equal(t, "mol: mol is required", err.Error())
}
