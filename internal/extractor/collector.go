package extractor

import (
	"fmt"
	"iter"

	"github.com/mvp-joe/callminer/internal/syntax"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Calls returns the callee name of every method invocation below body, in a
// single pre-order depth-first pass. An invocation's own name is yielded before
// any call found in its receiver or arguments, so b(c()) yields "b" then "c".
//
// Names are yielded verbatim: no deduplication, no overload resolution. If the
// tree is nested deeper than maxDepth the sequence yields one error wrapping
// ErrTraversalOverflow and stops. A maxDepth of zero or less disables the limit.
func Calls(body *sitter.Node, source []byte, maxDepth int) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if body == nil {
			return
		}

		var visit func(n *sitter.Node, depth int) bool
		visit = func(n *sitter.Node, depth int) bool {
			if maxDepth > 0 && depth > maxDepth {
				yield("", overflowError(n, maxDepth))
				return false
			}

			if n.Kind() == syntax.KindMethodInvocation {
				if name := n.ChildByFieldName("name"); name != nil {
					if !yield(string(source[name.StartByte():name.EndByte()]), nil) {
						return false
					}
				}
			}

			for i := uint(0); i < n.ChildCount(); i++ {
				if !visit(n.Child(i), depth+1) {
					return false
				}
			}
			return true
		}

		visit(body, 0)
	}
}

// CollectCalls drains Calls into a slice.
func CollectCalls(body *sitter.Node, source []byte, maxDepth int) ([]string, error) {
	var names []string
	for name, err := range Calls(body, source, maxDepth) {
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func overflowError(n *sitter.Node, maxDepth int) error {
	return fmt.Errorf("%w: more than %d levels at line %d", ErrTraversalOverflow, maxDepth, n.StartPosition().Row+1)
}
