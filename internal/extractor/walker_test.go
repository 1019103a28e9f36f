package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Walker:
// - Visits type declarations in source order and emits their methods once
// - Member types are reached after the methods of their outer type
// - Local classes inside method bodies are reached and emitted
// - Anonymous class methods contribute calls but no records of their own
// - Enum methods declared after the constants are emitted
// - Interface default methods are emitted; abstract ones are not in body scope
// - Traversal overflow on a deep tree is returned as ErrTraversalOverflow

func TestWalker_Calculator(t *testing.T) {
	t.Parallel()

	buf := walkSource(t, readFixture(t, "Calculator.java"), DefaultOptions())

	assert.Equal(t, []string{
		"{ total = sum(a, b); return total; }",
		"{ a(); b(c()); d(); }",
		"{ assist(); }",
		`{ System.out.println("hi"); }`,
	}, lines(buf.Tokens.String()))
	assert.Equal(t, []string{
		"add sum",
		"m a b c d",
		"help assist",
		"wave println",
	}, lines(buf.Calls.String()))
	assert.Equal(t, 4, buf.Methods)
	assert.Equal(t, 0, buf.Skipped)
}

func TestWalker_LocalAnonymousAndEnum(t *testing.T) {
	t.Parallel()

	buf := walkSource(t, readFixture(t, "Outer.java"), DefaultOptions())

	assert.Equal(t, []string{
		"run forEach log tick inner local",
		"local inner",
		"quick",
	}, lines(buf.Calls.String()))

	tokens := lines(buf.Tokens.String())
	require.Len(t, tokens, 3)
	assert.Equal(t, "{ // walk the list items.forEach(item -> log(item)); Runnable r = new Runnable() { public void run() { tick(); } }; class Local { void local() { inner(); } } new Local().local(); }", tokens[0])
	assert.Equal(t, "{ inner(); }", tokens[1])
	assert.Equal(t, "{ return this == FAST; }", tokens[2])
}

func TestWalker_DeclarationScopeStripComments(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.TokenScope = ScopeDeclaration
	opts.StripComments = true

	buf := walkSource(t, readFixture(t, "Outer.java"), opts)

	tokens := lines(buf.Tokens.String())
	require.Len(t, tokens, 3)
	assert.Equal(t, "void run(List<String> items) { items.forEach(item -> log(item)); Runnable r = new Runnable() { public void run() { tick(); } }; class Local { void local() { inner(); } } new Local().local(); }", tokens[0])
	assert.Equal(t, "boolean quick() { return this == FAST; }", tokens[2])
}

func TestWalker_RecordsAreAligned(t *testing.T) {
	t.Parallel()

	source := `class A {
		void one() { x(); }
		class B {
			void two() {}
			interface C { default void three() { y(); z(); } }
		}
		void four() { new Object() { void hidden() { w(); } }; }
	}`
	buf := walkSource(t, source, DefaultOptions())

	tokens := lines(buf.Tokens.String())
	calls := lines(buf.Calls.String())
	require.Len(t, tokens, buf.Methods)
	require.Len(t, calls, buf.Methods)
	assert.Equal(t, []string{"one x", "four w", "two", "three y z"}, calls)
}

func TestWalker_Overflow(t *testing.T) {
	t.Parallel()

	tree := parseJava(t, readFixture(t, "Calculator.java"))
	walker := NewWalker(NewSelector(tree.Source, DefaultOptions()), 3)

	err := walker.Walk(tree, &Buffers{})
	assert.ErrorIs(t, err, ErrTraversalOverflow)
}
