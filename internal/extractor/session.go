package extractor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mvp-joe/callminer/internal/syntax"
)

// Appender persists the records of one file. corpus.Writer implements it.
type Appender interface {
	Append(tokens, calls []byte) error
}

// Result holds the records extracted from one file.
type Result struct {
	Path     string
	Hash     string // SHA-256 of the file content, empty if it could not be read
	Tokens   []byte
	Calls    []byte
	Methods  int
	Skipped  int
	Duration time.Duration
}

// Session extracts one file at a time: parse, walk into session-owned buffers,
// then commit both buffers or discard them. A Session is not safe for
// concurrent use; give each worker its own.
type Session struct {
	provider syntax.Provider
	writer   Appender
	opts     Options
	buf      Buffers
}

// NewSession creates a session that parses with provider and commits to writer.
func NewSession(provider syntax.Provider, writer Appender, opts Options) *Session {
	return &Session{
		provider: provider,
		writer:   writer,
		opts:     opts,
	}
}

// Extract parses and walks path without committing anything. On failure the
// returned Result carries only Path, Hash and Duration, the buffers are
// discarded, and the failure is logged.
func (s *Session) Extract(ctx context.Context, path string) (res *Result, err error) {
	start := time.Now()
	res = &Result{Path: path}

	defer s.buf.Reset()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExtractionPanic, r)
		}
		if err != nil {
			res.Tokens, res.Calls = nil, nil
			res.Methods, res.Skipped = 0, 0
			log.Printf("Warning: failed to extract %s: %v\n", path, err)
		}
		res.Duration = time.Since(start)
	}()

	source, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("failed to read file: %w", err)
	}
	res.Hash = HashSource(source)

	tree, err := s.provider.Parse(ctx, path, source)
	if err != nil {
		return res, err
	}
	defer tree.Close()

	s.buf.Reset()
	walker := NewWalker(NewSelector(tree.Source, s.opts), s.opts.MaxDepth)
	if err := walker.Walk(tree, &s.buf); err != nil {
		return res, err
	}

	res.Tokens = bytes.Clone(s.buf.Tokens.Bytes())
	res.Calls = bytes.Clone(s.buf.Calls.Bytes())
	res.Methods = s.buf.Methods
	res.Skipped = s.buf.Skipped
	return res, nil
}

// Commit appends the records of a successful extraction to the corpora.
func (s *Session) Commit(res *Result) error {
	if err := s.writer.Append(res.Tokens, res.Calls); err != nil {
		log.Printf("Warning: failed to commit %s: %v\n", res.Path, err)
		return fmt.Errorf("failed to commit %s: %w", res.Path, err)
	}
	return nil
}

// Process extracts path and commits its records. A file either contributes all
// of its records to both corpora or none.
func (s *Session) Process(ctx context.Context, path string) (*Result, error) {
	res, err := s.Extract(ctx, path)
	if err != nil {
		return res, err
	}
	if err := s.Commit(res); err != nil {
		return res, err
	}
	return res, nil
}

// HashSource returns the hex SHA-256 of source.
func HashSource(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashSource(source), nil
}
