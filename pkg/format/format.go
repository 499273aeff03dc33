package format

import (
	"strings"

	"github.com/leapstack-labs/sqlcst/pkg/cst"
)

// Source renders a document back to the exact text it was parsed from.
func Source(doc *cst.Document) string {
	if doc == nil {
		return ""
	}
	return Statements(doc.Statements) + doc.Trailing
}

// Statements concatenates the source of every leaf token, whitespace
// included. Whitespace after the last token is not part of any statement.
func Statements(stmts []*cst.Statement) string {
	var b strings.Builder
	for _, tok := range cst.DocumentLeaves(stmts) {
		b.WriteString(tok.WhitespaceBefore)
		b.WriteString(tok.Text)
	}
	return b.String()
}

// Node renders the source of a single node without its leading whitespace.
func Node(n cst.Node) string {
	var b strings.Builder
	for i, tok := range cst.Leaves(n) {
		if i > 0 {
			b.WriteString(tok.WhitespaceBefore)
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}

// Tree prints an indented outline with one line per node.
//
//	statement ;
//	  clause SELECT
//	    array_subscript my_array
//	      parenthesis [ ]
//	        NUMBER "5"
func Tree(stmts []*cst.Statement) string {
	p := newPrinter()
	for _, s := range stmts {
		p.node(s)
	}
	return p.String()
}
