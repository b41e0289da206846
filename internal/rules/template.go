package rules

import (
	"fmt"
	"strings"

	"github.com/fractastical/icombinators/internal/graph"
)

// TemplateError reports a malformed template declaration.
type TemplateError struct {
	Case    string
	Message string
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	return fmt.Sprintf("rules: template %s: %s", e.Case, e.Message)
}

// nodeDecl is one node of a template side: its kind and one wire name per
// port, in mol argument order.
type nodeDecl struct {
	kind  graph.Kind
	wires []string
}

// Template is a two-node rewrite in move notation.
//
// INVARIANTS (checked by ParseTemplate):
//   - lhs has two nodes sharing exactly one wire, the join
//   - every other lhs wire appears once on the left and once on the right
//   - every wire only on the right appears there exactly twice
type Template struct {
	Case string
	Text string

	lhs      [2]nodeDecl
	rhs      []nodeDecl
	joinWire string
	join     [2]graph.Label // labels of the joined ports on lhs[0], lhs[1]
}

// ParseTemplate parses "LHS => RHS", where each side is a comma separated
// list of "<KIND> <wire>..." declarations.
func ParseTemplate(caseName, text string) (*Template, error) {
	lhsText, rhsText, ok := strings.Cut(text, "=>")
	if !ok || strings.Contains(rhsText, "=>") {
		return nil, &TemplateError{Case: caseName, Message: `expected exactly one "=>"`}
	}

	lhs, err := parseSide(caseName, lhsText)
	if err != nil {
		return nil, err
	}
	if len(lhs) != 2 {
		return nil, &TemplateError{
			Case:    caseName,
			Message: fmt.Sprintf("left side must declare exactly two nodes, got %d", len(lhs)),
		}
	}
	rhs, err := parseSide(caseName, rhsText)
	if err != nil {
		return nil, err
	}

	t := &Template{
		Case: caseName,
		Text: strings.Join(strings.Fields(text), " "),
		lhs:  [2]nodeDecl{lhs[0], lhs[1]},
		rhs:  rhs,
	}
	if err := t.bind(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTemplate is ParseTemplate that panics on error.
// Used for the built-in rule tables.
func MustTemplate(caseName, text string) *Template {
	t, err := ParseTemplate(caseName, text)
	if err != nil {
		panic(err)
	}
	return t
}

func parseSide(caseName, text string) ([]nodeDecl, error) {
	var out []nodeDecl
	for _, decl := range strings.Split(text, ",") {
		fields := strings.Fields(decl)
		if len(fields) == 0 {
			return nil, &TemplateError{Case: caseName, Message: "empty node declaration"}
		}
		kind, err := graph.ParseKind(fields[0])
		if err != nil {
			return nil, &TemplateError{Case: caseName, Message: err.Error()}
		}
		if got := len(fields) - 1; got != kind.Arity() {
			return nil, &TemplateError{
				Case:    caseName,
				Message: fmt.Sprintf("%s takes %d wires, got %d", kind, kind.Arity(), got),
			}
		}
		out = append(out, nodeDecl{kind: kind, wires: fields[1:]})
	}
	return out, nil
}

func (t *Template) errorf(format string, args ...any) error {
	return &TemplateError{Case: t.Case, Message: fmt.Sprintf(format, args...)}
}

// bind finds the join wire and checks wire usage on both sides.
func (t *Template) bind() error {
	type use struct {
		node int
		pos  int
	}
	lhsUses := make(map[string][]use)
	var lhsOrder []string
	for n, d := range t.lhs {
		for i, w := range d.wires {
			if _, seen := lhsUses[w]; !seen {
				lhsOrder = append(lhsOrder, w)
			}
			lhsUses[w] = append(lhsUses[w], use{node: n, pos: i})
		}
	}

	for _, w := range lhsOrder {
		uses := lhsUses[w]
		switch {
		case len(uses) == 1:
		case len(uses) == 2 && uses[0].node != uses[1].node:
			if t.joinWire != "" {
				return t.errorf("left nodes share more than one wire (%q and %q)", t.joinWire, w)
			}
			t.joinWire = w
			first, _ := t.lhs[0].kind.PortAt(uses[0].pos)
			second, _ := t.lhs[1].kind.PortAt(uses[1].pos)
			t.join = [2]graph.Label{first.Label, second.Label}
		default:
			return t.errorf("wire %q is used %d times on the left", w, len(uses))
		}
	}
	if t.joinWire == "" {
		return t.errorf("left nodes share no wire")
	}

	rhsCount := make(map[string]int)
	var rhsOrder []string
	for _, d := range t.rhs {
		for _, w := range d.wires {
			if rhsCount[w] == 0 {
				rhsOrder = append(rhsOrder, w)
			}
			rhsCount[w]++
		}
	}
	for _, w := range rhsOrder {
		n := rhsCount[w]
		_, boundary := lhsUses[w]
		switch {
		case w == t.joinWire:
			return t.errorf("join wire %q reappears on the right", w)
		case boundary && n != 1:
			return t.errorf("boundary wire %q must appear once on the right, got %d", w, n)
		case !boundary && n != 2:
			return t.errorf("internal wire %q must appear twice on the right, got %d", w, n)
		}
	}
	for _, w := range lhsOrder {
		if w != t.joinWire && rhsCount[w] == 0 {
			return t.errorf("boundary wire %q is dropped", w)
		}
	}
	return nil
}

// Kinds returns the kinds of the two left-side nodes.
func (t *Template) Kinds() (graph.Kind, graph.Kind) {
	return t.lhs[0].kind, t.lhs[1].kind
}

// partner returns the second redex node joined to first.
func (t *Template) partner(g *graph.Graph, first graph.NodeID) (graph.NodeID, bool) {
	p, ok := g.Connected(graph.P(first, t.join[0]))
	if !ok || p.Node == first || p.Label != t.join[1] {
		return 0, false
	}
	if k, _ := g.Kind(p.Node); k != t.lhs[1].kind {
		return 0, false
	}
	return p.Node, true
}

func (t *Template) find(g *graph.Graph, rule string) []Match {
	var out []Match
	for _, id := range g.NodesOfKind(t.lhs[0].kind) {
		if second, ok := t.partner(g, id); ok {
			out = append(out, Match{Rule: rule, Case: t.Case, Nodes: []graph.NodeID{id, second}})
		}
	}
	return out
}

// holds reports whether nodes still form this template's redex.
func (t *Template) holds(g *graph.Graph, nodes []graph.NodeID) bool {
	if len(nodes) != 2 {
		return false
	}
	if k, ok := g.Kind(nodes[0]); !ok || k != t.lhs[0].kind {
		return false
	}
	second, ok := t.partner(g, nodes[0])
	return ok && second == nodes[1]
}

// rewrite replaces the redex with the right side. The caller has checked
// holds.
//
// Each boundary wire's new port takes over the external partner of the
// redex port that carried it. When two boundary ports of the redex are
// wired to each other, their new ports are wired to each other instead.
// Boundary ports that were dangling stay dangling.
func (t *Template) rewrite(g *graph.Graph, nodes []graph.NodeID) []graph.NodeID {
	wireAt := make(map[graph.Port]string)
	var boundary []string
	for n, d := range t.lhs {
		for i, w := range d.wires {
			if w == t.joinWire {
				continue
			}
			spec, _ := d.kind.PortAt(i)
			wireAt[graph.P(nodes[n], spec.Label)] = w
			boundary = append(boundary, w)
		}
	}

	external := make(map[string]graph.Port)
	loops := make(map[string]string)
	for p, w := range wireAt {
		other, ok := g.Connected(p)
		if !ok {
			continue
		}
		if ow, inside := wireAt[other]; inside {
			loops[w] = ow
			continue
		}
		external[w] = other
	}

	created := make([]graph.NodeID, 0, len(t.rhs))
	ports := make(map[string][]graph.Port)
	for _, d := range t.rhs {
		id := g.AddNode(d.kind)
		created = append(created, id)
		for i, w := range d.wires {
			spec, _ := d.kind.PortAt(i)
			ports[w] = append(ports[w], graph.P(id, spec.Label))
		}
	}

	for _, d := range t.rhs {
		for _, w := range d.wires {
			if pair := ports[w]; len(pair) == 2 {
				mustConnect(g, pair[0], pair[1])
			}
		}
	}
	for _, w := range boundary {
		port := ports[w][0]
		if ext, ok := external[w]; ok {
			mustConnect(g, port, ext)
		} else if ow, ok := loops[w]; ok {
			mustConnect(g, port, ports[ow][0])
		}
	}

	g.RemoveNode(nodes[0])
	g.RemoveNode(nodes[1])
	return created
}

// mustConnect links ports whose validity the caller has established.
func mustConnect(g *graph.Graph, a, b graph.Port) {
	if err := g.Connect(a, b); err != nil {
		panic(fmt.Sprintf("rules: invariant broken: %v", err))
	}
}

// TemplateRule is a reaction family defined by templates grouped into
// passes. FindMatches runs the passes in order. A pass visits live nodes
// by ascending id and, for each node, tries the pass's templates in
// declaration order.
type TemplateRule struct {
	name      string
	passes    [][]*Template
	templates []*Template
}

// NewTemplateRule builds a rule that scans each template in its own pass.
// Several templates may share a case name; Apply picks the one whose left
// side the match satisfies.
func NewTemplateRule(name string, templates ...*Template) *TemplateRule {
	passes := make([][]*Template, len(templates))
	for i, t := range templates {
		passes[i] = []*Template{t}
	}
	return NewPassRule(name, passes...)
}

// NewPassRule builds a rule from explicit passes. Templates in one pass
// share a single scan of the graph, so their matches interleave by node id.
func NewPassRule(name string, passes ...[]*Template) *TemplateRule {
	r := &TemplateRule{name: name, passes: make([][]*Template, len(passes))}
	for i, pass := range passes {
		r.passes[i] = append([]*Template(nil), pass...)
		r.templates = append(r.templates, pass...)
	}
	return r
}

// Name implements Rule.
func (r *TemplateRule) Name() string { return r.name }

// Templates returns the rule's templates in declaration order.
func (r *TemplateRule) Templates() []*Template {
	out := make([]*Template, len(r.templates))
	copy(out, r.templates)
	return out
}

// FindMatches implements Rule.
func (r *TemplateRule) FindMatches(g *graph.Graph) []Match {
	var out []Match
	for _, pass := range r.passes {
		if len(pass) == 1 {
			out = append(out, pass[0].find(g, r.name)...)
			continue
		}
		for _, id := range g.NodeIDs() {
			kind, _ := g.Kind(id)
			for _, t := range pass {
				if t.lhs[0].kind != kind {
					continue
				}
				if second, ok := t.partner(g, id); ok {
					out = append(out, Match{Rule: r.name, Case: t.Case, Nodes: []graph.NodeID{id, second}})
				}
			}
		}
	}
	return out
}

// Apply implements Rule.
func (r *TemplateRule) Apply(g *graph.Graph, m Match) Outcome {
	if m.Rule != r.name {
		return NoMatch
	}
	known := false
	for _, t := range r.templates {
		if t.Case != m.Case {
			continue
		}
		known = true
		if t.holds(g, m.Nodes) {
			t.rewrite(g, m.Nodes)
			return Applied
		}
	}
	if !known {
		return NoMatch
	}
	return StructuralMismatch
}
