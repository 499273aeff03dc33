// Package format renders concrete syntax trees as text.
package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlcst/pkg/cst"
	"github.com/leapstack-labs/sqlcst/pkg/token"
)

const indentSize = 2

// printer writes an indented outline of a tree.
type printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter() *printer {
	return &printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

func (p *printer) String() string {
	return p.output.String()
}

func (p *printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *printer) writef(format string, args ...any) {
	p.write(fmt.Sprintf(format, args...))
}

func (p *printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *printer) writeIndent() {
	p.output.WriteString(strings.Repeat(" ", p.depth*indentSize))
	p.atLineStart = false
}

func (p *printer) indent() {
	p.depth++
}

func (p *printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *printer) children(nodes []cst.Node) {
	p.indent()
	for _, n := range nodes {
		p.node(n)
	}
	p.dedent()
}

func (p *printer) node(n cst.Node) {
	switch n := n.(type) {
	case *cst.Statement:
		p.write("statement")
		if n.HasSemicolon {
			p.write(" ;")
		}
		p.writeln()
		p.children(n.Children)
	case *cst.Clause:
		p.writef("clause %s", n.NameToken.Value)
		p.writeln()
		p.children(n.Children)
	case *cst.Parenthesis:
		p.writef("parenthesis %s %s", n.OpenParen, n.CloseParen)
		p.writeln()
		p.children(n.Children)
	case *cst.ArraySubscript:
		p.writef("array_subscript %s", n.ArrayToken.Text)
		p.writeln()
		if n.Parenthesis != nil {
			p.children([]cst.Node{n.Parenthesis})
		}
	case *cst.TokenNode:
		p.token(n.Token)
		p.writeln()
	}
}

func (p *printer) token(tok token.Token) {
	p.writef("%s %q", tok.Type, tok.Text)
	if tok.Value != tok.Text {
		p.writef(" = %q", tok.Value)
	}
}
