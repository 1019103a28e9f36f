package extractor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Test Plan for Selector:
// - A top-level type emits every method it declares directly, in source order
// - Methods of member types are not emitted through their outer type
// - A nested type emits every method it declares without consulting parent links
// - A method whose enclosing type cannot be resolved is skipped and counted, not failed
// - Bodiless methods are skipped in body scope and emitted in declaration scope
// - Token and call records stay aligned: one line each per emitted method
// - Traversal overflow inside a method body fails the selection
// - A declaration without a name emits nothing and is not counted as a dropped method

const selectorSource = `class Top {
    int add(int a, int b) {
        return sum(a, b);
    }

    static class Member {
        void member() { help(); }
    }

    abstract void hook();

    void after() { a(); b(c()); }
}
`

func TestSelector_TopLevel(t *testing.T) {
	t.Parallel()

	tree := parseJava(t, selectorSource)
	top := findNamed(t, tree, "class_declaration", "Top")

	buf := &Buffers{}
	require.NoError(t, NewSelector(tree.Source, DefaultOptions()).Select(top, false, buf))

	assert.Equal(t, []string{"{ return sum(a, b); }", "{ a(); b(c()); }"}, lines(buf.Tokens.String()))
	assert.Equal(t, []string{"add sum", "after a b c"}, lines(buf.Calls.String()))
	assert.Equal(t, 2, buf.Methods)
	assert.Equal(t, 0, buf.Skipped)
}

func TestSelector_Nested(t *testing.T) {
	t.Parallel()

	tree := parseJava(t, selectorSource)
	member := findNamed(t, tree, "class_declaration", "Member")

	s := NewSelector(tree.Source, DefaultOptions())
	s.enclosingType = func(*sitter.Node) (*sitter.Node, error) {
		t.Fatal("nested types must not resolve parent links")
		return nil, nil
	}

	buf := &Buffers{}
	require.NoError(t, s.Select(member, true, buf))

	assert.Equal(t, []string{"{ help(); }"}, lines(buf.Tokens.String()))
	assert.Equal(t, []string{"member help"}, lines(buf.Calls.String()))
}

func TestSelector_MissingParentLink(t *testing.T) {
	t.Parallel()

	tree := parseJava(t, selectorSource)
	top := findNamed(t, tree, "class_declaration", "Top")
	add := findMethod(t, tree, "add")

	s := NewSelector(tree.Source, DefaultOptions())
	s.enclosingType = func(method *sitter.Node) (*sitter.Node, error) {
		if method.StartByte() == add.StartByte() {
			return nil, ErrMissingParentLink
		}
		return lookupEnclosingType(method)
	}

	buf := &Buffers{}
	require.NoError(t, s.Select(top, false, buf))

	assert.Equal(t, []string{"after a b c"}, lines(buf.Calls.String()))
	assert.Equal(t, 1, buf.Methods)
	assert.Equal(t, 1, buf.Skipped)
}

func TestSelector_NestedOwnerSkipped(t *testing.T) {
	t.Parallel()

	tree := parseJava(t, selectorSource)
	top := findNamed(t, tree, "class_declaration", "Top")

	// Every owner reported as nested: a top-level pass emits nothing.
	s := NewSelector(tree.Source, DefaultOptions())
	s.isNested = func(*sitter.Node) bool { return true }

	buf := &Buffers{}
	require.NoError(t, s.Select(top, false, buf))
	assert.Zero(t, buf.Methods)
	assert.Zero(t, buf.Skipped)
	assert.Empty(t, buf.Tokens.String())
	assert.Empty(t, buf.Calls.String())
}

func TestSelector_DeclarationScope(t *testing.T) {
	t.Parallel()

	tree := parseJava(t, selectorSource)
	top := findNamed(t, tree, "class_declaration", "Top")

	opts := DefaultOptions()
	opts.TokenScope = ScopeDeclaration

	buf := &Buffers{}
	require.NoError(t, NewSelector(tree.Source, opts).Select(top, false, buf))

	assert.Equal(t, []string{
		"int add(int a, int b) { return sum(a, b); }",
		"abstract void hook();",
		"void after() { a(); b(c()); }",
	}, lines(buf.Tokens.String()))
	assert.Equal(t, []string{"add sum", "hook", "after a b c"}, lines(buf.Calls.String()))
	assert.Equal(t, 3, buf.Methods)
}

func TestSelector_Overflow(t *testing.T) {
	t.Parallel()

	tree := parseJava(t, `class T { void m() { a(b(c(d()))); } }`)
	top := findNamed(t, tree, "class_declaration", "T")

	opts := DefaultOptions()
	opts.MaxDepth = 2

	err := NewSelector(tree.Source, opts).Select(top, false, &Buffers{})
	assert.True(t, errors.Is(err, ErrTraversalOverflow))
}

func TestLookupEnclosingType(t *testing.T) {
	t.Parallel()

	tree := parseJava(t, `class T { void m() { Runnable r = new Runnable() { public void run() {} }; } }`)

	owner, err := lookupEnclosingType(findMethod(t, tree, "m"))
	require.NoError(t, err)
	assert.Equal(t, "T", tree.Text(owner.ChildByFieldName("name")))

	// Anonymous class bodies belong to an expression, not a declaration.
	_, err = lookupEnclosingType(findMethod(t, tree, "run"))
	assert.ErrorIs(t, err, ErrMissingParentLink)
}

func TestSelector_EmitWithoutName(t *testing.T) {
	t.Parallel()

	tree := parseJava(t, selectorSource)
	body := findMethod(t, tree, "add").ChildByFieldName("body")
	require.NotNil(t, body)

	buf := &Buffers{}
	require.NoError(t, NewSelector(tree.Source, DefaultOptions()).emit(body, buf))

	assert.Zero(t, buf.Methods)
	assert.Zero(t, buf.Skipped)
	assert.Empty(t, buf.Tokens.String())
	assert.Empty(t, buf.Calls.String())
}
