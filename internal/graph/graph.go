package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph operations.
var (
	// ErrNodeNotFound indicates an operation referenced a removed or unknown node.
	ErrNodeNotFound = errors.New("graph: node not found")

	// ErrPortNotFound indicates the node exists but has no port with that label.
	ErrPortNotFound = errors.New("graph: port not found")

	// ErrSelfLoop indicates an attempt to connect a port to itself.
	ErrSelfLoop = errors.New("graph: port cannot connect to itself")

	// ErrAsymmetricEdge indicates the edge relation lost its symmetry.
	ErrAsymmetricEdge = errors.New("graph: asymmetric edge")
)

// NodeID identifies a node. IDs increase monotonically and are never reused.
type NodeID int

// Port is a connection point, identified by its node and label.
// Ports are plain values and can be used as map keys.
type Port struct {
	Node  NodeID
	Label Label
}

// P is shorthand for Port{Node: id, Label: l}.
func P(id NodeID, l Label) Port {
	return Port{Node: id, Label: l}
}

// String renders the port as "<id>.<label>".
func (p Port) String() string {
	return fmt.Sprintf("%d.%s", p.Node, p.Label)
}

// Graph is a port graph: an arena of typed nodes and a symmetric edge
// relation over their ports.
//
// INVARIANTS:
//   - nodes[id] == 0 marks a removed node; ids are never reused
//   - for every key p in edges, edges[edges[p]] == p
//   - every key and value of edges is a port of a live node
//
// A Graph is not safe for concurrent use. Share it across time only by
// value through Clone.
type Graph struct {
	nodes []Kind
	live  int
	edges map[Port]Port
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{edges: make(map[Port]Port)}
}

// AddNode creates a node of the given kind with all its ports dangling.
// It panics if kind is not a declared kind; that is a programming error.
func (g *Graph) AddNode(kind Kind) NodeID {
	if !kind.Valid() {
		panic(fmt.Sprintf("graph: AddNode with invalid kind %d", kind))
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, kind)
	g.live++
	return id
}

// Has reports whether the node exists.
func (g *Graph) Has(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes) && g.nodes[id] != 0
}

// Kind returns the kind of a live node.
func (g *Graph) Kind(id NodeID) (Kind, bool) {
	if !g.Has(id) {
		return 0, false
	}
	return g.nodes[id], true
}

// Ports returns the ports of a live node in mol argument order.
func (g *Graph) Ports(id NodeID) []Port {
	kind, ok := g.Kind(id)
	if !ok {
		return nil
	}
	specs := kinds[kind].ports
	out := make([]Port, len(specs))
	for i, s := range specs {
		out[i] = Port{Node: id, Label: s.Label}
	}
	return out
}

// Direction returns the direction of a port of a live node.
func (g *Graph) Direction(p Port) (Direction, bool) {
	kind, ok := g.Kind(p.Node)
	if !ok {
		return 0, false
	}
	return kind.Direction(p.Label)
}

// validPort checks that p names an existing port.
func (g *Graph) validPort(p Port) error {
	kind, ok := g.Kind(p.Node)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, p.Node)
	}
	if _, ok := kind.Direction(p.Label); !ok {
		return fmt.Errorf("%w: %s on %s node %d", ErrPortNotFound, p.Label, kind, p.Node)
	}
	return nil
}

// Connect links two ports.
//
// Rewire semantics: if either port is already bound, its previous edge is
// removed in both directions before the new edge is inserted, so the
// relation stays a symmetric matching. Connect does not mutate the graph
// when it returns an error.
func (g *Graph) Connect(a, b Port) error {
	if err := g.validPort(a); err != nil {
		return err
	}
	if err := g.validPort(b); err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("%w: %s", ErrSelfLoop, a)
	}
	g.Disconnect(a)
	g.Disconnect(b)
	g.edges[a] = b
	g.edges[b] = a
	return nil
}

// Disconnect removes the edge at p, in both directions.
// It reports whether an edge existed. Unknown ports are a no-op.
func (g *Graph) Disconnect(p Port) bool {
	other, ok := g.edges[p]
	if !ok {
		return false
	}
	delete(g.edges, p)
	if back, ok := g.edges[other]; ok && back == p {
		delete(g.edges, other)
	}
	return true
}

// Connected returns the port bound to p, if any.
func (g *Graph) Connected(p Port) (Port, bool) {
	other, ok := g.edges[p]
	return other, ok
}

// RemoveNode disconnects every port of the node and deletes it.
// The far ends of its edges become dangling. Returns false if absent.
func (g *Graph) RemoveNode(id NodeID) bool {
	kind, ok := g.Kind(id)
	if !ok {
		return false
	}
	for _, s := range kinds[kind].ports {
		g.Disconnect(Port{Node: id, Label: s.Label})
	}
	g.nodes[id] = 0
	g.live--
	return true
}

// NodeIDs returns the ids of all live nodes in ascending order.
func (g *Graph) NodeIDs() []NodeID {
	out := make([]NodeID, 0, g.live)
	for i, k := range g.nodes {
		if k != 0 {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// NodesOfKind returns the live nodes of one kind in ascending id order.
func (g *Graph) NodesOfKind(kind Kind) []NodeID {
	var out []NodeID
	for i, k := range g.nodes {
		if k == kind {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// NodeCount is the number of live nodes.
func (g *Graph) NodeCount() int {
	return g.live
}

// EdgeCount is the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges) / 2
}

// NextID is the id the next AddNode call will return.
func (g *Graph) NextID() NodeID {
	return NodeID(len(g.nodes))
}

// Clone returns an independent deep copy. Node ids, edges and the id
// counter are preserved; no mutable state is shared with g.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make([]Kind, len(g.nodes)),
		live:  g.live,
		edges: make(map[Port]Port, len(g.edges)),
	}
	copy(c.nodes, g.nodes)
	for p, q := range g.edges {
		c.edges[p] = q
	}
	return c
}

// CheckSymmetry verifies the edge invariants: every edge is mirrored and
// both ends belong to live nodes.
func (g *Graph) CheckSymmetry() error {
	for p, q := range g.edges {
		if back, ok := g.edges[q]; !ok || back != p {
			return fmt.Errorf("%w: %s -> %s", ErrAsymmetricEdge, p, q)
		}
		if err := g.validPort(p); err != nil {
			return fmt.Errorf("edge %s -> %s: %w", p, q, err)
		}
	}
	return nil
}

// String summarises the graph size.
func (g *Graph) String() string {
	return fmt.Sprintf("Graph(%d nodes, %d edges)", g.NodeCount(), g.EdgeCount())
}
