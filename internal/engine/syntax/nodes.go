package syntax

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Text returns the source bytes spanned by node.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// Unquote strips one layer of matching quotes or backticks.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Walk visits node and its descendants depth first. Returning false from
// visit skips the node's children.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		Walk(node.Child(i), visit)
	}
}

// SyntaxError describes the first error or missing node in a tree.
type SyntaxError struct {
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("syntax error at %d:%d", e.Line, e.Column)
	}
	return fmt.Sprintf("syntax error at %d:%d near %q", e.Line, e.Column, e.Near)
}

// FirstError returns the first ERROR or MISSING node under root, or nil.
func FirstError(root *sitter.Node, source []byte) *SyntaxError {
	if root == nil || !root.HasError() {
		return nil
	}
	var found *SyntaxError
	Walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			pos := n.StartPosition()
			near := Text(n, source)
			if len(near) > 40 {
				near = near[:40]
			}
			found = &SyntaxError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Near: near}
			return false
		}
		return n.HasError()
	})
	if found == nil {
		return &SyntaxError{Line: 1, Column: 1}
	}
	return found
}
