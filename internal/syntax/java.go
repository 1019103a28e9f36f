package syntax

import (
	"context"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// Java node kinds used by the extractor.
const (
	KindClass          = "class_declaration"
	KindInterface      = "interface_declaration"
	KindEnum           = "enum_declaration"
	KindRecord         = "record_declaration"
	KindAnnotationType = "annotation_type_declaration"

	KindClassBody          = "class_body"
	KindInterfaceBody      = "interface_body"
	KindEnumBody           = "enum_body"
	KindEnumBodyDecls      = "enum_body_declarations"
	KindAnnotationTypeBody = "annotation_type_body"
	KindMethod             = "method_declaration"
	KindMethodInvocation   = "method_invocation"
	KindLineComment        = "line_comment"
	KindBlockComment       = "block_comment"
)

// JavaProvider parses Java files with the tree-sitter Java grammar.
type JavaProvider struct {
	language *sitter.Language
}

// NewJavaProvider creates a new Java provider.
func NewJavaProvider() *JavaProvider {
	return &JavaProvider{
		language: sitter.NewLanguage(java.Language()),
	}
}

// Language returns "java".
func (p *JavaProvider) Language() string {
	return "java"
}

// Parse parses a Java source file. Trees containing ERROR or MISSING nodes are
// rejected with a *ParseError.
func (p *JavaProvider) Parse(ctx context.Context, path string, source []byte) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set java language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, newParseError(path, nil)
	}

	root := tree.RootNode()
	if root.HasError() {
		pe := newParseError(path, firstErrorNode(root))
		tree.Close()
		return nil, pe
	}

	return &Tree{Path: path, Source: source, tree: tree}, nil
}

// IsTypeDeclaration reports whether kind is a class, interface, enum, record or
// annotation type declaration.
func IsTypeDeclaration(kind string) bool {
	switch kind {
	case KindClass, KindInterface, KindEnum, KindRecord, KindAnnotationType:
		return true
	}
	return false
}

// isTypeBody reports whether kind is a node that holds the members of a type.
func isTypeBody(kind string) bool {
	switch kind {
	case KindClassBody, KindInterfaceBody, KindEnumBody, KindEnumBodyDecls, KindAnnotationTypeBody:
		return true
	}
	return false
}

// IsNestedType reports whether a type declaration is a member of another type.
// Local classes declared inside a method body are not nested.
func IsNestedType(decl *sitter.Node) bool {
	_, ok := EnclosingType(decl)
	return ok
}

// EnclosingType returns the type declaration whose body directly contains node.
// The second result is false when node is not a direct member of any type.
func EnclosingType(node *sitter.Node) (*sitter.Node, bool) {
	if node == nil {
		return nil, false
	}
	parent := node.Parent()
	if parent == nil || !isTypeBody(parent.Kind()) {
		return nil, false
	}
	for parent != nil && isTypeBody(parent.Kind()) {
		parent = parent.Parent()
	}
	if parent == nil || !IsTypeDeclaration(parent.Kind()) {
		return nil, false
	}
	return parent, true
}

// Members returns the member declarations of a type declaration in source order.
// Enum members are read from the enum_body_declarations section.
func Members(decl *sitter.Node) []*sitter.Node {
	body := decl.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	if body.Kind() == KindEnumBody {
		decls := findChildByKind(body, KindEnumBodyDecls)
		if decls == nil {
			return nil
		}
		body = decls
	}

	members := make([]*sitter.Node, 0, body.NamedChildCount())
	for i := uint(0); i < body.NamedChildCount(); i++ {
		members = append(members, body.NamedChild(i))
	}
	return members
}

// IsComment reports whether kind is a Java comment node.
func IsComment(kind string) bool {
	return kind == KindLineComment || kind == KindBlockComment
}

// findChildByKind finds the first child node with the given kind.
func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}
