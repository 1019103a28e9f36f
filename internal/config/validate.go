package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/mvp-joe/callminer/internal/extractor"
)

var (
	// ErrEmptyCodePatterns indicates no source file pattern is configured
	ErrEmptyCodePatterns = errors.New("empty code patterns")

	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidDepth indicates a non-positive traversal depth
	ErrInvalidDepth = errors.New("invalid max depth")

	// ErrInvalidTokenScope indicates an unknown token scope
	ErrInvalidTokenScope = errors.New("invalid token scope")

	// ErrInvalidJobs indicates a non-positive worker count
	ErrInvalidJobs = errors.New("invalid jobs")

	// ErrInvalidOutputFile indicates a missing or path-like corpus file name
	ErrInvalidOutputFile = errors.New("invalid output file name")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateExtraction(&cfg.Extraction); err != nil {
		errs = append(errs, err)
	}

	if err := validateOutput(&cfg.Output); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	if len(cfg.Code) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one code pattern required", ErrEmptyCodePatterns))
	}

	for _, pattern := range append(append([]string{}, cfg.Code...), cfg.Ignore...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateExtraction(cfg *ExtractionConfig) error {
	var errs []error

	if cfg.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_depth must be positive, got %d", ErrInvalidDepth, cfg.MaxDepth))
	}

	if _, err := extractor.ParseTokenScope(cfg.TokenScope); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidTokenScope, err))
	}

	if cfg.Jobs <= 0 {
		errs = append(errs, fmt.Errorf("%w: jobs must be positive, got %d", ErrInvalidJobs, cfg.Jobs))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateOutput(cfg *OutputConfig) error {
	var errs []error

	files := []struct {
		key  string
		name string
	}{
		{"tokens_file", cfg.TokensFile},
		{"calls_file", cfg.CallsFile},
	}
	for _, f := range files {
		if strings.TrimSpace(f.name) == "" {
			errs = append(errs, fmt.Errorf("%w: %s is required", ErrInvalidOutputFile, f.key))
			continue
		}
		if filepath.Base(f.name) != f.name {
			errs = append(errs, fmt.Errorf("%w: %s must be a bare file name, got '%s'", ErrInvalidOutputFile, f.key, f.name))
		}
	}

	if cfg.TokensFile != "" && cfg.TokensFile == cfg.CallsFile {
		errs = append(errs, fmt.Errorf("%w: tokens_file and calls_file must differ", ErrInvalidOutputFile))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
