// Package syntax parses Rust source with tree-sitter and exposes the
// top-level items unsafe-finder inspects: impl blocks and trait definitions
// together with their function members.
package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/unsafe-finder/internal/lang"
)

// ItemKind is the closed set of top-level item variants.
type ItemKind int

const (
	ItemOther ItemKind = iota
	ItemImpl
	ItemTrait
)

// MemberKind is the closed set of member variants inside an impl or trait body.
type MemberKind int

const (
	MemberOther MemberKind = iota
	MemberFunction
)

// Visibility of an impl member. Only a bare `pub` counts as Public.
type Visibility int

const (
	Private Visibility = iota
	Public
)

// Block is a function body. It is only valid until the owning File is closed.
type Block struct {
	node *sitter.Node
}

// Node returns the underlying tree-sitter block node.
func (b *Block) Node() *sitter.Node {
	return b.node
}

// Member is a single declaration inside an impl or trait body.
type Member struct {
	Kind       MemberKind
	Name       string
	Visibility Visibility
	Unsafe     bool
	Body       *Block // nil for a trait signature without a default body
	Line       int
}

// Item is a top-level declaration of a source file.
type Item struct {
	Kind ItemKind
	// Header is the item's declaration rendered with an empty member list.
	Header  string
	Line    int
	Members []Member
}

// File is a parsed source file. Close releases the syntax tree; member
// bodies must not be used afterwards.
type File struct {
	Items []Item
	tree  *sitter.Tree
}

// Close releases the underlying tree-sitter tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// ParseError reports the position of the first syntax error that leaves the
// shape of an impl block or trait definition in doubt.
type ParseError struct {
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column)
}

// extras are named nodes that may appear anywhere and are not declarations.
var extras = map[string]struct{}{
	"line_comment":         {},
	"block_comment":        {},
	"attribute_item":       {},
	"inner_attribute_item": {},
}

// Parse parses source with a parser configured for Rust. The returned File
// must be closed by the caller.
//
// The grammar lags behind the language, so syntax it does not know yet is
// tolerated where tree-sitter recovers it locally: inside any block, and in
// top-level items that are neither impls nor traits. Only an error that
// touches an impl or trait outside its function bodies, or an unbalanced
// block, yields a ParseError.
func Parse(parser *sitter.Parser, source []byte) (*File, error) {
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	root := tree.RootNode()
	if n := firstFatalError(root); n != nil {
		perr := &ParseError{
			Line:   int(n.StartPoint().Row) + 1,
			Column: int(n.StartPoint().Column) + 1,
		}
		tree.Close()
		return nil, perr
	}

	f := &File{tree: tree}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if _, skip := extras[child.Type()]; skip {
			continue
		}
		f.Items = append(f.Items, extractItem(child, source))
	}
	return f, nil
}

func extractItem(node *sitter.Node, source []byte) Item {
	item := Item{Line: int(node.StartPoint().Row) + 1}
	switch node.Type() {
	case "impl_item":
		item.Kind = ItemImpl
	case "trait_item":
		item.Kind = ItemTrait
	default:
		return item
	}

	item.Header = renderHeader(node, source)

	body := node.ChildByFieldName("body")
	if body == nil {
		return item
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if _, skip := extras[child.Type()]; skip {
			continue
		}
		item.Members = append(item.Members, extractMember(child, source))
	}
	return item
}

func extractMember(node *sitter.Node, source []byte) Member {
	m := Member{Line: int(node.StartPoint().Row) + 1}
	switch node.Type() {
	case "function_item", "function_signature_item":
		m.Kind = MemberFunction
	default:
		return m
	}

	if name := node.ChildByFieldName("name"); name != nil {
		m.Name = lang.NodeText(name, source)
		m.Line = int(name.StartPoint().Row) + 1
	}
	if body := node.ChildByFieldName("body"); body != nil {
		m.Body = &Block{node: body}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "visibility_modifier":
			if lang.CollapseWhitespace(lang.NodeText(child, source)) == "pub" {
				m.Visibility = Public
			}
		case "function_modifiers":
			for j := 0; j < int(child.ChildCount()); j++ {
				if child.Child(j).Type() == "unsafe" {
					m.Unsafe = true
				}
			}
		}
	}
	return m
}

type errorFrame struct {
	node    *sitter.Node
	inBlock bool
	inItem  bool
}

// firstFatalError returns the first ERROR or MISSING node in document order
// that is not recovered locally, or nil.
func firstFatalError(root *sitter.Node) *sitter.Node {
	stack := []errorFrame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node

		if n.IsMissing() {
			if !f.inBlock || n.Type() == "}" {
				return n
			}
			continue
		}
		if n.Type() == "ERROR" {
			switch {
			case f.inBlock:
			case f.inItem, containsItem(n):
				return n
			}
			continue
		}
		if !n.HasError() {
			continue
		}

		child := errorFrame{
			inBlock: f.inBlock || n.Type() == "block",
			inItem:  f.inItem || n.Type() == "impl_item" || n.Type() == "trait_item",
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			child.node = n.Child(i)
			stack = append(stack, child)
		}
	}
	return nil
}

// containsItem reports whether an ERROR node swallowed an impl or trait.
func containsItem(n *sitter.Node) bool {
	stack := []*sitter.Node{n}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch c.Type() {
		case "impl", "trait", "impl_item", "trait_item":
			return true
		}
		for i := 0; i < int(c.ChildCount()); i++ {
			stack = append(stack, c.Child(i))
		}
	}
	return false
}
