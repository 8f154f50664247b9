package syntax

import (
	"regexp"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/unsafe-finder/internal/lang"
)

var (
	spaceAfterOpen   = regexp.MustCompile(`([<(\[])\s+`)
	spaceBeforeClose = regexp.MustCompile(`\s+([>)\],])`)
	trailingComma    = regexp.MustCompile(`,([>)\]])`)
)

// renderHeader renders an impl or trait item with an empty member list:
//
//	/// Docs.
//	#[attr]
//	impl<T> Trait for Type<T>
//	where
//	    T: Bound,
//	{}
func renderHeader(node *sitter.Node, source []byte) string {
	var b strings.Builder

	for _, attr := range outerAttributes(node, source) {
		if attr.Type() == "line_comment" {
			b.WriteString(strings.TrimRightFunc(lang.NodeText(attr, source), unicode.IsSpace))
		} else {
			b.WriteString(lang.CollapseWhitespace(lang.NodeText(attr, source)))
		}
		b.WriteByte('\n')
	}

	end := node.EndByte()
	if body := node.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	var where *sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == "where_clause" {
			where = c
			end = c.StartByte()
			break
		}
	}

	sig := normalizeSignature(string(source[node.StartByte():end]))
	b.WriteString(strings.TrimSuffix(sig, ";"))

	if where == nil {
		b.WriteString(" {}\n")
		return b.String()
	}

	b.WriteString("\nwhere\n")
	for i := 0; i < int(where.NamedChildCount()); i++ {
		pred := where.NamedChild(i)
		if pred.Type() != "where_predicate" {
			continue
		}
		b.WriteString("    ")
		b.WriteString(normalizeSignature(lang.NodeText(pred, source)))
		b.WriteString(",\n")
	}
	b.WriteString("{}\n")
	return b.String()
}

// outerAttributes returns the attributes and `///` doc comments attached to
// node, in source order.
func outerAttributes(node *sitter.Node, source []byte) []*sitter.Node {
	var attrs []*sitter.Node
loop:
	for s := node.PrevNamedSibling(); s != nil; s = s.PrevNamedSibling() {
		switch s.Type() {
		case "attribute_item":
			attrs = append(attrs, s)
		case "line_comment":
			if isOuterDoc(lang.NodeText(s, source)) {
				attrs = append(attrs, s)
			}
		case "block_comment":
		default:
			break loop
		}
	}
	for i, j := 0, len(attrs)-1; i < j; i, j = i+1, j-1 {
		attrs[i], attrs[j] = attrs[j], attrs[i]
	}
	return attrs
}

// isOuterDoc reports whether a line comment is an outer doc comment. Four or
// more slashes make a plain comment.
func isOuterDoc(text string) bool {
	return strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////")
}

func normalizeSignature(s string) string {
	s = lang.CollapseWhitespace(s)
	s = spaceAfterOpen.ReplaceAllString(s, "$1")
	s = spaceBeforeClose.ReplaceAllString(s, "$1")
	s = trailingComma.ReplaceAllString(s, "$1")
	return s
}
