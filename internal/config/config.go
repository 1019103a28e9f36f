// Package config loads callminer settings from .callminer/config.yml in the
// scanned root, with CALLMINER_* environment variable overrides.
package config

import (
	"github.com/mvp-joe/callminer/internal/corpus"
	"github.com/mvp-joe/callminer/internal/extractor"
)

// Config represents the complete callminer configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

// PathsConfig defines which files are mined.
type PathsConfig struct {
	Code             []string `yaml:"code" mapstructure:"code"`                           // glob patterns for source files
	Ignore           []string `yaml:"ignore" mapstructure:"ignore"`                       // glob patterns to ignore
	RespectGitignore bool     `yaml:"respect_gitignore" mapstructure:"respect_gitignore"` // skip files matched by <root>/.gitignore
}

// ExtractionConfig controls how methods are rendered.
type ExtractionConfig struct {
	MaxDepth      int    `yaml:"max_depth" mapstructure:"max_depth"`           // traversal depth before a file fails
	TokenScope    string `yaml:"token_scope" mapstructure:"token_scope"`       // "body" or "declaration"
	StripComments bool   `yaml:"strip_comments" mapstructure:"strip_comments"` // drop comments from token records
	Jobs          int    `yaml:"jobs" mapstructure:"jobs"`                     // parallel extraction workers
}

// OutputConfig names the output artifacts.
type OutputConfig struct {
	TokensFile string `yaml:"tokens_file" mapstructure:"tokens_file"`
	CallsFile  string `yaml:"calls_file" mapstructure:"calls_file"`
	Ledger     bool   `yaml:"ledger" mapstructure:"ledger"` // record runs in <output>/ledger.db
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Code:   []string{"**/*.java"},
			Ignore: []string{},
		},
		Extraction: ExtractionConfig{
			MaxDepth:   extractor.DefaultMaxDepth,
			TokenScope: string(extractor.ScopeBody),
			Jobs:       1,
		},
		Output: OutputConfig{
			TokensFile: corpus.DefaultTokensFile,
			CallsFile:  corpus.DefaultCallsFile,
		},
	}
}

// ExtractorOptions converts the extraction section into extractor.Options.
func (c *Config) ExtractorOptions() (extractor.Options, error) {
	scope, err := extractor.ParseTokenScope(c.Extraction.TokenScope)
	if err != nil {
		return extractor.Options{}, err
	}
	return extractor.Options{
		MaxDepth:      c.Extraction.MaxDepth,
		TokenScope:    scope,
		StripComments: c.Extraction.StripComments,
	}, nil
}
