package graph

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseErrorCode categorizes mol parse failures.
type ParseErrorCode string

const (
	// ErrCodeUnknownKind indicates a node token that is not a declared kind.
	ErrCodeUnknownKind ParseErrorCode = "UNKNOWN_KIND"

	// ErrCodeArity indicates a node with the wrong number of wires.
	ErrCodeArity ParseErrorCode = "ARITY"

	// ErrCodeWireReuse indicates a wire name used by more than two ports.
	ErrCodeWireReuse ParseErrorCode = "WIRE_REUSE"

	// ErrCodeRead indicates the underlying reader failed.
	ErrCodeRead ParseErrorCode = "READ"
)

// ParseError reports a malformed molecule. Line is 1-based; 0 means the
// error is not tied to a single line.
type ParseError struct {
	Code    ParseErrorCode
	Line    int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("mol:%d: %s: %s", e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("mol: %s: %s", e.Code, e.Message)
}

// wireUse records where a wire name occurs.
type wireUse struct {
	ports []Port
	line  int
}

// Parse builds a graph from wire-named mol text.
//
// Grammar, one node per line (or several separated by ',' or ';'):
//
//	<KIND> <wire> <wire> ...
//
// The number of wires equals the kind's port count and follows its port
// order. A wire name used twice links the two ports; used once it leaves
// the port dangling. Blank lines and '#' comments are ignored. Nodes get
// ids 0, 1, 2, ... in order of appearance.
func Parse(text string) (*Graph, error) {
	return ParseReader(strings.NewReader(text))
}

// ParseReader is Parse over an io.Reader.
func ParseReader(r io.Reader) (*Graph, error) {
	g := New()
	wires := make(map[string]*wireUse)
	var order []string

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		decls := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' })
		for _, decl := range decls {
			fields := strings.Fields(decl)
			if len(fields) == 0 {
				continue
			}
			kind, err := ParseKind(fields[0])
			if err != nil {
				return nil, &ParseError{Code: ErrCodeUnknownKind, Line: line, Message: err.Error()}
			}
			if got := len(fields) - 1; got != kind.Arity() {
				return nil, &ParseError{
					Code:    ErrCodeArity,
					Line:    line,
					Message: fmt.Sprintf("%s takes %d wires, got %d", kind, kind.Arity(), got),
				}
			}
			id := g.AddNode(kind)
			for i, name := range fields[1:] {
				spec, _ := kind.PortAt(i)
				use, ok := wires[name]
				if !ok {
					use = &wireUse{line: line}
					wires[name] = use
					order = append(order, name)
				}
				if len(use.ports) == 2 {
					return nil, &ParseError{
						Code:    ErrCodeWireReuse,
						Line:    line,
						Message: fmt.Sprintf("wire %q used more than twice (first on line %d)", name, use.line),
					}
				}
				use.ports = append(use.ports, Port{Node: id, Label: spec.Label})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Code: ErrCodeRead, Message: err.Error()}
	}

	for _, name := range order {
		use := wires[name]
		if len(use.ports) == 2 {
			if err := g.Connect(use.ports[0], use.ports[1]); err != nil {
				return nil, &ParseError{Code: ErrCodeWireReuse, Line: use.line, Message: err.Error()}
			}
		}
	}
	return g, nil
}

// MustParse is Parse that panics on error. Intended for tests and
// package-level fixtures.
func MustParse(text string) *Graph {
	g, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return g
}
