// Package corpus owns the two append-only output files.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	// DefaultTokensFile holds one whitespace-collapsed method rendering per line.
	DefaultTokensFile = "function_tokens.txt"

	// DefaultCallsFile holds one "name call call ..." sequence per line.
	DefaultCallsFile = "function_call_sequences.txt"
)

var (
	// ErrOutputInitialization indicates the output directory or corpus files could not be created.
	ErrOutputInitialization = errors.New("output initialization failed")

	// ErrNotCreated indicates Append was called before EnsureCreated.
	ErrNotCreated = errors.New("corpus files not created")

	// ErrMisaligned indicates a failed append could not be undone, so the
	// corpora may no longer be line-aligned. The writer refuses further appends.
	ErrMisaligned = errors.New("corpus rollback failed")
)

// corpusFile is the part of *os.File the writer uses.
type corpusFile interface {
	io.Writer
	Truncate(size int64) error
	Sync() error
	Close() error
}

// Writer appends records to the token and call-sequence corpora. Each Append
// writes both files under one lock, so records from concurrent callers never
// interleave and the two files stay line-aligned.
type Writer struct {
	outputDir  string
	tokensName string
	callsName  string

	mu         sync.Mutex
	tokens     corpusFile
	calls      corpusFile
	tokensSize int64
	callsSize  int64
	appends    int
	err        error // sticky once a rollback fails
}

// NewWriter creates a writer for the given output directory and file names.
// Empty names fall back to the defaults.
func NewWriter(outputDir, tokensName, callsName string) *Writer {
	if tokensName == "" {
		tokensName = DefaultTokensFile
	}
	if callsName == "" {
		callsName = DefaultCallsFile
	}
	return &Writer{
		outputDir:  outputDir,
		tokensName: tokensName,
		callsName:  callsName,
	}
}

// EnsureCreated creates the output directory and both corpus files. Existing
// files are kept and appended to. Calling it again is a no-op.
func (w *Writer) EnsureCreated() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tokens != nil {
		return nil
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %v", ErrOutputInitialization, err)
	}

	tokens, tokensSize, err := openAppend(w.TokensPath())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputInitialization, err)
	}
	calls, callsSize, err := openAppend(w.CallsPath())
	if err != nil {
		tokens.Close()
		return fmt.Errorf("%w: %v", ErrOutputInitialization, err)
	}

	w.tokens, w.tokensSize = tokens, tokensSize
	w.calls, w.callsSize = calls, callsSize
	return nil
}

func openAppend(path string) (*os.File, int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return f, info.Size(), nil
}

// Append writes the records of one file to both corpora. If either write fails
// both files are truncated back to their previous length. If that truncation
// fails too, the error wraps ErrMisaligned and every later Append returns it.
func (w *Writer) Append(tokens, calls []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tokens == nil {
		return ErrNotCreated
	}
	if w.err != nil {
		return w.err
	}

	if _, err := w.tokens.Write(tokens); err != nil {
		return w.rollback(fmt.Errorf("failed to append to %s: %w", w.tokensName, err))
	}
	if _, err := w.calls.Write(calls); err != nil {
		return w.rollback(fmt.Errorf("failed to append to %s: %w", w.callsName, err))
	}

	w.tokensSize += int64(len(tokens))
	w.callsSize += int64(len(calls))
	w.appends++
	return nil
}

// rollback truncates both files to their last committed length and returns
// cause, or a sticky ErrMisaligned error when truncation fails. mu must be held.
func (w *Writer) rollback(cause error) error {
	var errs []error
	if err := w.tokens.Truncate(w.tokensSize); err != nil {
		errs = append(errs, fmt.Errorf("failed to truncate %s: %w", w.tokensName, err))
	}
	if err := w.calls.Truncate(w.callsSize); err != nil {
		errs = append(errs, fmt.Errorf("failed to truncate %s: %w", w.callsName, err))
	}
	if len(errs) == 0 {
		return cause
	}
	w.err = fmt.Errorf("%w: %w", ErrMisaligned, errors.Join(append([]error{cause}, errs...)...))
	return w.err
}

// Appends returns the number of successful Append calls.
func (w *Writer) Appends() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appends
}

// TokensPath returns the path of the token corpus.
func (w *Writer) TokensPath() string {
	return filepath.Join(w.outputDir, w.tokensName)
}

// CallsPath returns the path of the call-sequence corpus.
func (w *Writer) CallsPath() string {
	return filepath.Join(w.outputDir, w.callsName)
}

// Close flushes both files to disk and closes them.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tokens == nil {
		return nil
	}

	var errs []error
	for _, f := range []corpusFile{w.tokens, w.calls} {
		if err := f.Sync(); err != nil {
			errs = append(errs, err)
		}
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	w.tokens, w.calls = nil, nil
	return errors.Join(errs...)
}
