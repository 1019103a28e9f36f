// Package syntax wraps tree-sitter as the syntax tree provider used by the extractor.
package syntax

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrParse indicates the provider could not produce a well-formed tree for a file.
var ErrParse = errors.New("parse failure")

// ParseError describes where a parse failure was detected.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Kind   string // "ERROR" or "MISSING <kind>"
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Path, ErrParse)
	}
	return fmt.Sprintf("%s:%d:%d: %s (%s)", e.Path, e.Line, e.Column, ErrParse, e.Kind)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Provider parses source text into a navigable syntax tree.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Parse returns the tree for source, or an error wrapping ErrParse.
	Parse(ctx context.Context, path string, source []byte) (*Tree, error)

	// Language returns the language name handled by the provider.
	Language() string
}

// Tree is a parsed file. It is owned by a single caller and must be closed.
type Tree struct {
	Path   string
	Source []byte
	tree   *sitter.Tree
}

// Root returns the root node of the tree.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Text returns the source text covered by node.
func (t *Tree) Text(node *sitter.Node) string {
	return nodeText(node, t.Source)
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// firstErrorNode returns the first ERROR or MISSING node in document order.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil || !node.HasError() {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	// HasError is set but no child carries it: the node itself is the culprit.
	return node
}

func newParseError(path string, node *sitter.Node) *ParseError {
	pe := &ParseError{Path: path}
	if node == nil {
		return pe
	}
	pos := node.StartPosition()
	pe.Line = int(pos.Row) + 1
	pe.Column = int(pos.Column) + 1
	if node.IsMissing() {
		pe.Kind = "MISSING " + node.Kind()
	} else {
		pe.Kind = "ERROR"
	}
	return pe
}
