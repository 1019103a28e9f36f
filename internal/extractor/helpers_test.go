package extractor

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/mvp-joe/callminer/internal/syntax"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

const fixtureDir = "../../testdata/java/project/src/demo"

func parseJava(t *testing.T, source string) *syntax.Tree {
	t.Helper()

	tree, err := syntax.NewJavaProvider().Parse(context.Background(), "Test.java", []byte(source))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func readFixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(fixtureDir + "/" + name)
	require.NoError(t, err)
	return string(data)
}

// findMethod returns the first method declaration named name.
func findMethod(t *testing.T, tree *syntax.Tree, name string) *sitter.Node {
	t.Helper()
	return findNamed(t, tree, syntax.KindMethod, name)
}

func findNamed(t *testing.T, tree *syntax.Tree, kind, name string) *sitter.Node {
	t.Helper()

	var found *sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if n.Kind() == kind {
			if nameNode := n.ChildByFieldName("name"); nameNode != nil && tree.Text(nameNode) == name {
				found = n
				return
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	visit(tree.Root())

	require.NotNil(t, found, "%s %s not found", kind, name)
	return found
}

// lines splits buffer content into records, dropping the final newline.
func lines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// walkSource runs a walker with opts over source and returns the buffers.
func walkSource(t *testing.T, source string, opts Options) *Buffers {
	t.Helper()

	tree := parseJava(t, source)
	buf := &Buffers{}
	walker := NewWalker(NewSelector(tree.Source, opts), opts.MaxDepth)
	require.NoError(t, walker.Walk(tree, buf))
	return buf
}

// recordingAppender collects appended records in memory.
type recordingAppender struct {
	mu     sync.Mutex
	tokens strings.Builder
	calls  strings.Builder
	count  int
	err    error
}

func (r *recordingAppender) Append(tokens, calls []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	r.tokens.Write(tokens)
	r.calls.Write(calls)
	r.count++
	return nil
}
