package graph

import "fmt"

// Kind identifies the node type of a chemlambda molecule.
// The set is closed; a node never changes kind after creation.
type Kind uint8

const (
	KindLambda Kind = iota + 1
	KindApplication
	KindFanIn
	KindFanOut
	KindFanOutExtra
	KindTerminator
	KindArrow
	KindFreeInput
	KindFreeOutput
)

// Direction is the orientation of a port relative to its node.
type Direction uint8

const (
	In Direction = iota + 1
	Out
)

// String returns "in" or "out".
func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Label names a port on a node.
type Label string

const (
	LabelMiddle    Label = "middle"
	LabelLeft      Label = "left"
	LabelRight     Label = "right"
	LabelMiddleOut Label = "middle_out"
)

// PortSpec describes one port slot of a kind.
type PortSpec struct {
	Label     Label
	Direction Direction
}

// kindInfo is the static description of a kind.
// ports is in mol argument order.
type kindInfo struct {
	token   string
	visible bool // emitted by Serialize
	ports   []PortSpec
}

var kinds = map[Kind]kindInfo{
	KindLambda: {"L", true, []PortSpec{
		{LabelMiddle, In}, {LabelLeft, Out}, {LabelRight, Out},
	}},
	KindApplication: {"A", true, []PortSpec{
		{LabelLeft, In}, {LabelRight, In}, {LabelMiddle, Out},
	}},
	KindFanIn: {"FI", true, []PortSpec{
		{LabelLeft, In}, {LabelRight, In}, {LabelMiddle, Out},
	}},
	KindFanOut: {"FO", true, []PortSpec{
		{LabelMiddle, In}, {LabelLeft, Out}, {LabelRight, Out},
	}},
	KindFanOutExtra: {"FOE", true, []PortSpec{
		{LabelMiddle, In}, {LabelLeft, Out}, {LabelRight, Out},
	}},
	KindTerminator: {"T", true, []PortSpec{
		{LabelMiddle, In},
	}},
	KindArrow: {"Arrow", true, []PortSpec{
		{LabelMiddle, In}, {LabelMiddleOut, Out},
	}},
	KindFreeInput: {"FRIN", false, []PortSpec{
		{LabelMiddle, Out},
	}},
	KindFreeOutput: {"FROUT", false, []PortSpec{
		{LabelMiddle, In},
	}},
}

var kindsByToken = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for k, info := range kinds {
		m[info.token] = k
	}
	return m
}()

// String returns the mol token of the kind ("L", "A", "Arrow", ...).
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.token
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Ports returns the port slots of the kind in mol argument order.
// The returned slice is a copy.
func (k Kind) Ports() []PortSpec {
	info, ok := kinds[k]
	if !ok {
		return nil
	}
	out := make([]PortSpec, len(info.ports))
	copy(out, info.ports)
	return out
}

// Arity is the number of ports of the kind.
func (k Kind) Arity() int {
	return len(kinds[k].ports)
}

// PortAt returns the port slot at mol argument position i.
func (k Kind) PortAt(i int) (PortSpec, bool) {
	info, ok := kinds[k]
	if !ok || i < 0 || i >= len(info.ports) {
		return PortSpec{}, false
	}
	return info.ports[i], true
}

// Direction returns the direction of the labelled port, if the kind has it.
func (k Kind) Direction(l Label) (Direction, bool) {
	for _, p := range kinds[k].ports {
		if p.Label == l {
			return p.Direction, true
		}
	}
	return 0, false
}

// Visible reports whether nodes of this kind appear in the mol output.
// Free inputs and free outputs are boundary markers and are omitted.
func (k Kind) Visible() bool {
	return kinds[k].visible
}

// ParseKind maps a mol token to its kind.
func ParseKind(token string) (Kind, error) {
	if k, ok := kindsByToken[token]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown node kind %q", token)
}
