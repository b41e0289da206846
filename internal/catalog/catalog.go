package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/fractastical/icombinators/internal/graph"
	"github.com/fractastical/icombinators/internal/rules"
)

//go:embed schema.cue
var schemaSource string

//go:embed molecules.cue
var moleculesSource string

// ErrUnknownMolecule is returned by Lookup for a name the catalogue does
// not hold.
var ErrUnknownMolecule = errors.New("unknown molecule")

// Halt names accepted in expect.halt. They match engine.HaltReason.String.
const (
	HaltNormalForm = "normal_form"
	HaltBudget     = "budget"
	HaltStalled    = "stalled"
	HaltCycle      = "cycle"
)

// Expectation is what a deterministic run of a molecule ends in. Nil
// fields are not checked.
type Expectation struct {
	Steps *int    `json:"steps,omitempty"`
	Halt  string  `json:"halt,omitempty"`
	Mol   *string `json:"mol,omitempty"`
}

// Molecule is one catalogue entry.
type Molecule struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Mol         string      `json:"mol"`
	Rules       []string    `json:"rules,omitempty"`
	Expect      Expectation `json:"expect"`
}

// Graph parses the molecule's mol text into a fresh graph.
func (m Molecule) Graph() (*graph.Graph, error) {
	return graph.Parse(m.Mol)
}

// RuleSet returns the molecule's rules in order, or the default rules when
// it names none.
func (m Molecule) RuleSet() ([]rules.Rule, error) {
	if len(m.Rules) == 0 {
		return rules.DefaultRules(), nil
	}
	return rules.ByName(m.Rules...)
}

// Catalog is an ordered set of molecules addressed by normalized name.
type Catalog struct {
	molecules []Molecule
	index     map[string]int
}

// New returns an empty catalogue.
func New() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Key normalizes a molecule name for lookup: NFC, case folded, with
// hyphens read as underscores.
func Key(name string) string {
	s := norm.NFC.String(strings.TrimSpace(name))
	s = cases.Fold().String(s)
	return strings.ReplaceAll(s, "-", "_")
}

// Default returns the built-in catalogue.
func Default() (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(moleculesSource, cue.Filename("molecules.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(withSchema(ctx, v))
}

// MustDefault is Default for callers that cannot recover from a broken
// built-in catalogue.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in molecules: %v", err))
	}
	return c
}

// LoadDir compiles the CUE package in dir into a catalogue. The files
// declare entries under the top-level "molecule" struct.
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog: not a directory: %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("catalog: no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(withSchema(ctx, v))
}

func withSchema(ctx *cue.Context, v cue.Value) cue.Value {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	return v.Unify(schema)
}

// Compile builds a catalogue from a CUE value holding a "molecule" struct.
// Entries keep their declaration order.
func Compile(v cue.Value) (*Catalog, error) {
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	c := New()
	mols := v.LookupPath(cue.ParsePath("molecule"))
	if !mols.Exists() {
		return c, nil
	}

	iter, err := mols.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		m, err := CompileMolecule(iter.Value())
		if err != nil {
			return nil, err
		}
		m.Name = iter.Label()
		if err := c.add(*m); err != nil {
			return nil, &CompileError{Field: "molecule", Message: err.Error(), Pos: iter.Value().Pos()}
		}
	}
	return c, nil
}

// CompileMolecule converts one catalogue entry. The mol text must parse
// and every rule name must be known.
func CompileMolecule(v cue.Value) (*Molecule, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Molecule{}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		m.Name = labels[len(labels)-1].Unquoted()
	}

	molVal, ok := field(v, "mol")
	if !ok {
		return nil, &CompileError{Field: "mol", Message: "mol is required", Pos: v.Pos()}
	}
	mol, err := molVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if _, err := graph.Parse(mol); err != nil {
		return nil, &CompileError{Field: "mol", Message: err.Error(), Pos: molVal.Pos()}
	}
	m.Mol = mol

	if d, ok := field(v, "description"); ok {
		if m.Description, err = d.String(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	if r, ok := field(v, "rules"); ok {
		if m.Rules, err = parseRules(r); err != nil {
			return nil, err
		}
	}

	if e, ok := field(v, "expect"); ok {
		if m.Expect, err = parseExpect(e); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// field looks up a concrete field of v. Under the schema an absent field
// can still exist as a bare type such as string.
func field(v cue.Value, name string) (cue.Value, bool) {
	f := v.LookupPath(cue.ParsePath(name))
	return f, f.Exists() && f.IsConcrete()
}

func parseRules(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var names []string
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		names = append(names, name)
	}
	if _, err := rules.ByName(names...); err != nil {
		return nil, &CompileError{Field: "rules", Message: err.Error(), Pos: v.Pos()}
	}
	return names, nil
}

func parseExpect(v cue.Value) (Expectation, error) {
	var exp Expectation

	if s, ok := field(v, "steps"); ok {
		n, err := s.Int64()
		if err != nil {
			return exp, formatCUEError(err)
		}
		steps := int(n)
		exp.Steps = &steps
	}

	if h, ok := field(v, "halt"); ok {
		halt, err := h.String()
		if err != nil {
			return exp, formatCUEError(err)
		}
		switch halt {
		case HaltNormalForm, HaltBudget, HaltStalled, HaltCycle:
		default:
			return exp, &CompileError{Field: "expect.halt", Message: fmt.Sprintf("unknown halt reason %q", halt), Pos: h.Pos()}
		}
		exp.Halt = halt
	}

	if m, ok := field(v, "mol"); ok {
		mol, err := m.String()
		if err != nil {
			return exp, formatCUEError(err)
		}
		exp.Mol = &mol
	}
	return exp, nil
}

func (c *Catalog) add(m Molecule) error {
	key := Key(m.Name)
	if _, dup := c.index[key]; dup {
		return fmt.Errorf("molecule %q declared twice", m.Name)
	}
	c.index[key] = len(c.molecules)
	c.molecules = append(c.molecules, m)
	return nil
}

// Merge adds other's molecules after c's. A name present in both is an
// error and leaves c unchanged.
func (c *Catalog) Merge(other *Catalog) error {
	for _, m := range other.molecules {
		if _, dup := c.index[Key(m.Name)]; dup {
			return fmt.Errorf("catalog: molecule %q declared twice", m.Name)
		}
	}
	for _, m := range other.molecules {
		// Names are unique within other, checked above against c.
		_ = c.add(m)
	}
	return nil
}

// Clone returns an independent copy of c.
func (c *Catalog) Clone() *Catalog {
	out := New()
	for _, m := range c.molecules {
		_ = out.add(m)
	}
	return out
}

// Lookup finds a molecule by name. Names compare after Key normalization,
// so "Simple-Application" finds "simple_application".
func (c *Catalog) Lookup(name string) (Molecule, error) {
	i, ok := c.index[Key(name)]
	if !ok {
		return Molecule{}, fmt.Errorf("%w: %q", ErrUnknownMolecule, name)
	}
	return c.molecules[i], nil
}

// Molecules returns the entries in declaration order.
func (c *Catalog) Molecules() []Molecule {
	out := make([]Molecule, len(c.molecules))
	copy(out, c.molecules)
	return out
}

// Names returns the entry names in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.molecules))
	for i, m := range c.molecules {
		out[i] = m.Name
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.molecules)
}
