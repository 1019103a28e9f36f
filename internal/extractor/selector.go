package extractor

import (
	"bytes"
	"fmt"

	"github.com/mvp-joe/callminer/internal/syntax"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Buffers accumulates the records of one file before they are committed.
type Buffers struct {
	Tokens  bytes.Buffer
	Calls   bytes.Buffer
	Methods int // records written to both buffers
	Skipped int // methods dropped for a missing parent link
}

// Reset discards everything accumulated so far.
func (b *Buffers) Reset() {
	b.Tokens.Reset()
	b.Calls.Reset()
	b.Methods = 0
	b.Skipped = 0
}

// Selector decides which methods of a type declaration are emitted and renders
// their records.
type Selector struct {
	source []byte
	opts   Options

	// enclosingType resolves a method's owning type declaration.
	enclosingType func(*sitter.Node) (*sitter.Node, error)
	isNested      func(*sitter.Node) bool
}

// NewSelector creates a selector over the source of one parsed file.
func NewSelector(source []byte, opts Options) *Selector {
	return &Selector{
		source:        source,
		opts:          opts,
		enclosingType: lookupEnclosingType,
		isNested:      syntax.IsNestedType,
	}
}

func lookupEnclosingType(method *sitter.Node) (*sitter.Node, error) {
	owner, ok := syntax.EnclosingType(method)
	if !ok {
		return nil, fmt.Errorf("%w: method at line %d", ErrMissingParentLink, method.StartPosition().Row+1)
	}
	return owner, nil
}

// Select emits every eligible method declared directly in decl. Methods of types
// nested inside decl are left to the walker.
//
// When decl is not nested, a method is emitted only if its enclosing type is not
// nested either; a method whose enclosing type cannot be resolved is skipped.
// When decl is nested, every method it declares is emitted.
func (s *Selector) Select(decl *sitter.Node, nested bool, buf *Buffers) error {
	for _, member := range syntax.Members(decl) {
		if member.Kind() != syntax.KindMethod {
			continue
		}

		if !nested {
			owner, err := s.enclosingType(member)
			if err != nil {
				buf.Skipped++
				continue
			}
			if s.isNested(owner) {
				continue
			}
		}

		if err := s.emit(member, buf); err != nil {
			return err
		}
	}
	return nil
}

// emit appends one token record and one call-sequence record for method.
func (s *Selector) emit(method *sitter.Node, buf *Buffers) error {
	nameNode := method.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	body := method.ChildByFieldName("body")

	tokenNode := body
	if s.opts.TokenScope == ScopeDeclaration {
		tokenNode = method
	}
	if tokenNode == nil {
		// abstract or interface method in body scope
		return nil
	}

	calls, err := CollectCalls(body, s.source, s.opts.MaxDepth)
	if err != nil {
		return err
	}
	tokens, err := tokenText(tokenNode, s.source, s.opts.StripComments, s.opts.MaxDepth)
	if err != nil {
		return err
	}

	buf.Tokens.WriteString(tokens)
	buf.Tokens.WriteByte('\n')

	buf.Calls.Write(s.source[nameNode.StartByte():nameNode.EndByte()])
	for _, name := range calls {
		buf.Calls.WriteByte(' ')
		buf.Calls.WriteString(name)
	}
	buf.Calls.WriteByte('\n')

	buf.Methods++
	return nil
}
