package extractor

import (
	"github.com/mvp-joe/callminer/internal/syntax"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Walker visits every type declaration of a tree in source order and hands it
// to the selector together with its nesting classification.
type Walker struct {
	selector *Selector
	maxDepth int
	isNested func(*sitter.Node) bool
}

// NewWalker creates a walker that dispatches to selector.
func NewWalker(selector *Selector, maxDepth int) *Walker {
	return &Walker{
		selector: selector,
		maxDepth: maxDepth,
		isNested: syntax.IsNestedType,
	}
}

// Walk runs a single pre-order pass over tree. Type declarations at any depth,
// including member types and local classes, are dispatched before their
// children are visited.
func (w *Walker) Walk(tree *syntax.Tree, buf *Buffers) error {
	return w.visit(tree.Root(), 0, buf)
}

func (w *Walker) visit(n *sitter.Node, depth int, buf *Buffers) error {
	if w.maxDepth > 0 && depth > w.maxDepth {
		return overflowError(n, w.maxDepth)
	}

	if syntax.IsTypeDeclaration(n.Kind()) {
		if err := w.selector.Select(n, w.isNested(n), buf); err != nil {
			return err
		}
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		if err := w.visit(n.Child(i), depth+1, buf); err != nil {
			return err
		}
	}
	return nil
}
