package parser

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Tree is a parsed, syntactically valid source unit.
type Tree struct {
	tree     *sitter.Tree
	Source   []byte
	Language string
}

func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

func (t *Tree) Close() {
	if t == nil || t.tree == nil {
		return
	}
	t.tree.Close()
	t.tree = nil
}

const (
	SyntaxUnexpected = "unexpected"
	SyntaxMissing    = "missing"
	SyntaxInvalid    = "invalid"
)

const maxSnippet = 40

// SyntaxError points at the first place the grammar could not accept.
// Line and Column are 1-based.
type SyntaxError struct {
	Line    int
	Column  int
	Kind    string
	Snippet string
	Reason  string // set for SyntaxInvalid
}

func (e *SyntaxError) Error() string {
	if e.Kind == SyntaxInvalid {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Reason)
	}
	if e.Kind == SyntaxMissing {
		return fmt.Sprintf("line %d:%d: missing %q", e.Line, e.Column, e.Snippet)
	}
	if e.Snippet == "" {
		return fmt.Sprintf("line %d:%d: invalid syntax", e.Line, e.Column)
	}
	return fmt.Sprintf("line %d:%d: unexpected %q", e.Line, e.Column, e.Snippet)
}

func locateSyntaxError(root *sitter.Node, source []byte) *SyntaxError {
	node := firstErrorNode(root)
	if node == nil {
		node = root
	}

	pos := node.StartPosition()
	synErr := &SyntaxError{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
		Kind:   SyntaxUnexpected,
	}
	if node.IsMissing() {
		synErr.Kind = SyntaxMissing
		synErr.Snippet = node.Kind()
		return synErr
	}
	synErr.Snippet = snippet(source[node.StartByte():node.EndByte()])
	return synErr
}

// firstErrorNode returns the earliest ERROR or MISSING node in source order.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}

// firstRejectedNode finds the earliest construct that tree-sitter-python
// parses cleanly but Python 3 rejects: Python 2 print/exec statements and
// del targets that are not names, attributes or subscripts.
func firstRejectedNode(node *sitter.Node) (*sitter.Node, string) {
	switch node.Kind() {
	case "print_statement":
		return node, "print statement requires parentheses"
	case "exec_statement":
		return node, "exec statement requires parentheses"
	case "delete_statement":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if bad := invalidDeleteTarget(node.NamedChild(i)); bad != nil {
				return bad, "cannot delete " + strings.ReplaceAll(bad.Kind(), "_", " ")
			}
		}
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if found, reason := firstRejectedNode(node.NamedChild(i)); found != nil {
			return found, reason
		}
	}
	return nil, ""
}

func invalidDeleteTarget(node *sitter.Node) *sitter.Node {
	switch node.Kind() {
	case "identifier", "attribute", "subscript", "comment":
		return nil
	case "expression_list", "tuple", "list", "parenthesized_expression",
		"pattern_list", "tuple_pattern", "list_pattern":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if bad := invalidDeleteTarget(node.NamedChild(i)); bad != nil {
				return bad
			}
		}
		return nil
	}
	return node
}

func rejectedSyntax(node *sitter.Node, source []byte, reason string) *SyntaxError {
	pos := node.StartPosition()
	return &SyntaxError{
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
		Kind:    SyntaxInvalid,
		Snippet: snippet(source[node.StartByte():node.EndByte()]),
		Reason:  reason,
	}
}

func snippet(text []byte) string {
	s := string(text)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if len(s) > maxSnippet {
		s = s[:maxSnippet] + "..."
	}
	return s
}
