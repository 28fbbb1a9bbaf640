package gotreesitter

import (
	"strconv"
	"strings"
)

// SExpr renders the subtree as an S-expression of named nodes with field
// labels, in the format used by tree-sitter corpus tests:
//
//	(expression left: (number) right: (number))
//
// Anonymous nodes are omitted unless MISSING. ERROR nodes are always shown.
func (n *Node) SExpr(lang *Language) string {
	var b strings.Builder
	writeSExpr(&b, n, lang, "")
	return b.String()
}

// String returns the S-expression of the tree's root.
func (t *Tree) String() string {
	if t == nil || t.root == nil {
		return ""
	}
	return t.root.SExpr(t.language)
}

func printable(n *Node) bool {
	return n.symbol == ErrorSymbol || n.isMissing || (n.visible && n.isNamed)
}

func writeSExpr(b *strings.Builder, n *Node, lang *Language, field string) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	if field != "" {
		b.WriteString(field)
		b.WriteString(": ")
	}
	b.WriteByte('(')
	name := lang.SymbolName(n.publicSymbol)
	if n.isMissing {
		b.WriteString("MISSING ")
		if !n.isNamed {
			name = strconv.Quote(name)
		}
	}
	b.WriteString(name)
	writeSExprChildren(b, n, lang)
	b.WriteByte(')')
}

func writeSExprChildren(b *strings.Builder, n *Node, lang *Language) {
	for i, c := range n.children {
		field := ""
		if fid := n.FieldIDForChild(i); fid != 0 {
			field = lang.FieldName(fid)
		}
		switch {
		case printable(c):
			writeSExpr(b, c, lang, field)
		case len(c.children) > 0:
			writeSExprChildren(b, c, lang)
		}
	}
}
