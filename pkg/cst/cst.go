// Package cst defines the concrete syntax tree produced by the parser.
//
// Node is a closed sum type: the only implementations are the five node
// kinds declared here. Every token of the input appears in exactly one leaf
// position, so a tree can always be rendered back to its source text.
package cst

import (
	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// Kind identifies the node variant.
type Kind string

// Node kinds. The values double as the "type" field of the JSON encoding.
const (
	KindStatement      Kind = "statement"
	KindClause         Kind = "clause"
	KindParenthesis    Kind = "parenthesis"
	KindArraySubscript Kind = "array_subscript"
	KindToken          Kind = "token"
)

// Node is implemented by *Statement, *Clause, *Parenthesis,
// *ArraySubscript and *TokenNode.
type Node interface {
	Kind() Kind
	node()
}

// TokenNode is a leaf wrapping one token.
type TokenNode struct {
	Token token.Token
}

// Statement is one SQL statement. Semicolon is only meaningful when
// HasSemicolon is set.
type Statement struct {
	Children     []Node
	HasSemicolon bool
	Semicolon    token.Token
}

// Clause is a reserved-command-headed clause and the nodes following it.
type Clause struct {
	NameToken token.Token
	Children  []Node
}

// Parenthesis is a matched bracket pair and its contents. OpenParen and
// CloseParen are the configured markers of one pair; Open and Close are
// the source tokens.
type Parenthesis struct {
	OpenParen  string
	CloseParen string
	Open       token.Token
	Close      token.Token
	Children   []Node
}

// ArraySubscript is an identifier immediately followed by a bracketed
// subscript.
type ArraySubscript struct {
	ArrayToken  token.Token
	Parenthesis *Parenthesis
}

// Document is the result of parsing a whole input: its statements plus the
// whitespace and comments after the last token.
type Document struct {
	Statements []*Statement
	Trailing   string
}

func (*TokenNode) Kind() Kind      { return KindToken }
func (*Statement) Kind() Kind      { return KindStatement }
func (*Clause) Kind() Kind         { return KindClause }
func (*Parenthesis) Kind() Kind    { return KindParenthesis }
func (*ArraySubscript) Kind() Kind { return KindArraySubscript }

func (*TokenNode) node()      {}
func (*Statement) node()      {}
func (*Clause) node()         {}
func (*Parenthesis) node()    {}
func (*ArraySubscript) node() {}

// NewToken wraps a token in a leaf node.
func NewToken(tok token.Token) *TokenNode {
	return &TokenNode{Token: tok}
}

// NewParenthesis builds a parenthesis node from its bracket tokens. The
// markers are taken from the token values.
func NewParenthesis(open token.Token, children []Node, close token.Token) *Parenthesis {
	return &Parenthesis{
		OpenParen:  open.Value,
		CloseParen: close.Value,
		Open:       open,
		Close:      close,
		Children:   children,
	}
}

// Walk traverses the tree depth-first in source order. If fn returns false
// the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Statement:
		for _, c := range n.Children {
			Walk(c, fn)
		}
	case *Clause:
		for _, c := range n.Children {
			Walk(c, fn)
		}
	case *Parenthesis:
		for _, c := range n.Children {
			Walk(c, fn)
		}
	case *ArraySubscript:
		if n.Parenthesis != nil {
			Walk(n.Parenthesis, fn)
		}
	case *TokenNode:
	}
}

// Leaves returns every token under n in source order, including bracket
// tokens, clause names and statement semicolons.
func Leaves(n Node) []token.Token {
	var out []token.Token
	appendLeaves(&out, n)
	return out
}

// DocumentLeaves returns the tokens of all statements in source order.
func DocumentLeaves(stmts []*Statement) []token.Token {
	var out []token.Token
	for _, s := range stmts {
		appendLeaves(&out, s)
	}
	return out
}

func appendLeaves(out *[]token.Token, n Node) {
	switch n := n.(type) {
	case *TokenNode:
		*out = append(*out, n.Token)
	case *Statement:
		for _, c := range n.Children {
			appendLeaves(out, c)
		}
		if n.HasSemicolon {
			*out = append(*out, n.Semicolon)
		}
	case *Clause:
		*out = append(*out, n.NameToken)
		for _, c := range n.Children {
			appendLeaves(out, c)
		}
	case *Parenthesis:
		*out = append(*out, n.Open)
		for _, c := range n.Children {
			appendLeaves(out, c)
		}
		*out = append(*out, n.Close)
	case *ArraySubscript:
		*out = append(*out, n.ArrayToken)
		if n.Parenthesis != nil {
			appendLeaves(out, n.Parenthesis)
		}
	}
}
