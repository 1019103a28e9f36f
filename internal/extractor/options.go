package extractor

import "fmt"

// TokenScope selects which part of a method is rendered into the token corpus.
type TokenScope string

const (
	// ScopeBody renders the method body block only. Bodiless methods are not emitted.
	ScopeBody TokenScope = "body"

	// ScopeDeclaration renders the whole declaration: modifiers, signature and body.
	ScopeDeclaration TokenScope = "declaration"
)

// DefaultMaxDepth bounds the recursion of every tree traversal.
const DefaultMaxDepth = 4000

// Options configures method extraction.
type Options struct {
	MaxDepth      int
	TokenScope    TokenScope
	StripComments bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxDepth:   DefaultMaxDepth,
		TokenScope: ScopeBody,
	}
}

// ParseTokenScope converts a configuration value into a TokenScope.
func ParseTokenScope(s string) (TokenScope, error) {
	switch TokenScope(s) {
	case ScopeBody, ScopeDeclaration:
		return TokenScope(s), nil
	case "":
		return ScopeBody, nil
	}
	return "", fmt.Errorf("unknown token scope %q (valid: body, declaration)", s)
}
