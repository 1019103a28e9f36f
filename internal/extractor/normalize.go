package extractor

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/callminer/internal/syntax"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace replaces every run of whitespace with a single space.
func CollapseWhitespace(text string) string {
	return whitespaceRun.ReplaceAllString(text, " ")
}

// tokenText renders node as a single-line token record. Comments are replaced
// by a space when stripComments is set.
func tokenText(node *sitter.Node, source []byte, stripComments bool, maxDepth int) (string, error) {
	start, end := node.StartByte(), node.EndByte()
	if !stripComments {
		return CollapseWhitespace(string(source[start:end])), nil
	}

	var comments [][2]uint
	var visit func(n *sitter.Node, depth int) error
	visit = func(n *sitter.Node, depth int) error {
		if maxDepth > 0 && depth > maxDepth {
			return overflowError(n, maxDepth)
		}
		if syntax.IsComment(n.Kind()) {
			comments = append(comments, [2]uint{n.StartByte(), n.EndByte()})
			return nil
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			if err := visit(n.Child(i), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(node, 0); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(int(end - start))
	pos := start
	for _, c := range comments {
		sb.Write(source[pos:c[0]])
		sb.WriteByte(' ')
		pos = c[1]
	}
	sb.Write(source[pos:end])

	return CollapseWhitespace(sb.String()), nil
}
