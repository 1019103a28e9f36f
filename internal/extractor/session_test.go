package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/callminer/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Session:
// - Extract returns aligned records, counts and the content hash without committing
// - Process commits both buffers with a single append
// - A parse failure discards the file: no append, empty records, error wraps ErrParse
// - A read failure is reported without a hash
// - A panic in the provider is recovered as ErrExtractionPanic
// - A failing append is reported and nothing is counted as committed
// - Buffers do not leak between files processed by the same session
// - Traversal overflow fails the file like a parse failure

type panicProvider struct{}

func (panicProvider) Parse(ctx context.Context, path string, source []byte) (*syntax.Tree, error) {
	panic("boom")
}

func (panicProvider) Language() string { return "java" }

func fixturePath(name string) string {
	return filepath.Join(fixtureDir, name)
}

func TestSession_Extract(t *testing.T) {
	t.Parallel()

	out := &recordingAppender{}
	session := NewSession(syntax.NewJavaProvider(), out, DefaultOptions())

	res, err := session.Extract(context.Background(), fixturePath("Calculator.java"))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Methods)
	assert.Len(t, lines(string(res.Tokens)), 4)
	assert.Len(t, lines(string(res.Calls)), 4)
	assert.Len(t, res.Hash, 64)

	source, err := os.ReadFile(fixturePath("Calculator.java"))
	require.NoError(t, err)
	assert.Equal(t, HashSource(source), res.Hash)

	// Extract alone never commits.
	assert.Zero(t, out.count)
}

func TestSession_Process(t *testing.T) {
	t.Parallel()

	out := &recordingAppender{}
	session := NewSession(syntax.NewJavaProvider(), out, DefaultOptions())

	_, err := session.Process(context.Background(), fixturePath("Calculator.java"))
	require.NoError(t, err)
	_, err = session.Process(context.Background(), fixturePath("Outer.java"))
	require.NoError(t, err)

	assert.Equal(t, 2, out.count)
	assert.Equal(t, []string{
		"add sum",
		"m a b c d",
		"help assist",
		"wave println",
		"run forEach log tick inner local",
		"local inner",
		"quick",
	}, lines(out.calls.String()))
	assert.Len(t, lines(out.tokens.String()), 7)
}

func TestSession_ParseFailure(t *testing.T) {
	t.Parallel()

	out := &recordingAppender{}
	session := NewSession(syntax.NewJavaProvider(), out, DefaultOptions())

	res, err := session.Process(context.Background(), fixturePath("Broken.java"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, syntax.ErrParse))

	assert.NotEmpty(t, res.Hash)
	assert.Nil(t, res.Tokens)
	assert.Nil(t, res.Calls)
	assert.Zero(t, res.Methods)
	assert.Zero(t, out.count)

	// The next file starts from empty buffers.
	res, err = session.Process(context.Background(), fixturePath("Calculator.java"))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Methods)
	assert.Len(t, lines(out.calls.String()), 4)
}

func TestSession_ReadFailure(t *testing.T) {
	t.Parallel()

	session := NewSession(syntax.NewJavaProvider(), &recordingAppender{}, DefaultOptions())

	res, err := session.Extract(context.Background(), filepath.Join(t.TempDir(), "Missing.java"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, res.Hash)
}

func TestSession_Panic(t *testing.T) {
	t.Parallel()

	out := &recordingAppender{}
	session := NewSession(panicProvider{}, out, DefaultOptions())

	res, err := session.Process(context.Background(), fixturePath("Calculator.java"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionPanic)
	assert.NotNil(t, res)
	assert.Zero(t, out.count)
}

func TestSession_AppendFailure(t *testing.T) {
	t.Parallel()

	appendErr := errors.New("disk full")
	out := &recordingAppender{err: appendErr}
	session := NewSession(syntax.NewJavaProvider(), out, DefaultOptions())

	_, err := session.Process(context.Background(), fixturePath("Calculator.java"))
	require.Error(t, err)
	assert.ErrorIs(t, err, appendErr)
	assert.Zero(t, out.count)
}

func TestSession_Overflow(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.MaxDepth = 5

	out := &recordingAppender{}
	session := NewSession(syntax.NewJavaProvider(), out, opts)

	_, err := session.Process(context.Background(), fixturePath("Calculator.java"))
	assert.ErrorIs(t, err, ErrTraversalOverflow)
	assert.Zero(t, out.count)
}
