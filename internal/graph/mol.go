package graph

import (
	"encoding/hex"
	"fmt"
	"strings"

	"lukechampine.com/blake3"
)

// DomainFingerprint prefixes fingerprint input so digests of different
// encodings can never collide. The suffix versions the encoding.
const DomainFingerprint = "icomb/graph/v1"

// Serialize renders the graph in mol format.
//
// One line per node of a visible kind (L, A, FI, FO, FOE, T, Arrow) in
// ascending id order. Each line is the kind token followed by one token per
// port in the kind's port order:
//
//	n<otherNodeId>               the port is connected
//	p<nodeId>_<label>.<dir>      the port is dangling
//
// Lines are separated by "\n" with no trailing newline. Renderers depend on
// this grammar; do not change it.
func (g *Graph) Serialize() string {
	var lines []string
	for _, id := range g.NodeIDs() {
		kind := g.nodes[id]
		if !kind.Visible() {
			continue
		}
		var b strings.Builder
		b.WriteString(kind.String())
		for _, spec := range kinds[kind].ports {
			b.WriteByte(' ')
			if other, ok := g.edges[Port{Node: id, Label: spec.Label}]; ok {
				fmt.Fprintf(&b, "n%d", other.Node)
			} else {
				fmt.Fprintf(&b, "p%d_%s.%s", id, spec.Label, spec.Direction)
			}
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// FormatWires renders the graph in the wire-named input format accepted
// by Parse. Every node is emitted, including FRIN and FROUT. Edges are
// named w0, w1, ... and dangling ports f0, f1, ... in order of first
// appearance, so the output does not depend on absolute node ids.
func (g *Graph) FormatWires() string {
	names := make(map[Port]string, len(g.edges))
	var nextWire, nextFree int
	var lines []string
	for _, id := range g.NodeIDs() {
		kind := g.nodes[id]
		fields := []string{kind.String()}
		for _, spec := range kinds[kind].ports {
			p := Port{Node: id, Label: spec.Label}
			name, seen := names[p]
			if !seen {
				if other, ok := g.edges[p]; ok {
					name = fmt.Sprintf("w%d", nextWire)
					nextWire++
					names[other] = name
				} else {
					name = fmt.Sprintf("f%d", nextFree)
					nextFree++
				}
				names[p] = name
			}
			fields = append(fields, name)
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	return strings.Join(lines, "\n")
}

// canonical renders every node with ids renumbered densely in ascending
// order and edges naming the far label, so two graphs that differ only by
// id offsets (for example a molecule rebuilt after garbage collection)
// produce the same text.
func (g *Graph) canonical() string {
	ids := g.NodeIDs()
	index := make(map[NodeID]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	var b strings.Builder
	for i, id := range ids {
		kind := g.nodes[id]
		fmt.Fprintf(&b, "%d %s", i, kind)
		for _, spec := range kinds[kind].ports {
			if other, ok := g.edges[Port{Node: id, Label: spec.Label}]; ok {
				fmt.Fprintf(&b, " %d.%s", index[other.Node], other.Label)
			} else {
				b.WriteString(" -")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Fingerprint returns a hex BLAKE3-256 digest of the graph's canonical
// form. Clones have equal fingerprints; so do graphs whose node ids differ
// only by a monotone renumbering.
func (g *Graph) Fingerprint() string {
	h := blake3.New(32, nil)
	h.Write([]byte(DomainFingerprint))
	h.Write([]byte{0x00})
	h.Write([]byte(g.canonical()))
	return hex.EncodeToString(h.Sum(nil))
}
