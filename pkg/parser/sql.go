package parser

import (
	"github.com/leapstack-labs/sqlcst/pkg/cst"
	"github.com/leapstack-labs/sqlcst/pkg/dialect"
	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// subscriptOpen is the bracket that turns a preceding identifier into an
// array subscript.
const subscriptOpen = "["

// plainTypes are the token types that become TokenNode leaves.
var plainTypes = []token.Type{
	token.QUOTED_IDENTIFIER,
	token.STRING,
	token.NUMBER,
	token.OPERATOR,
	token.RESERVED_KEYWORD,
	token.RESERVED_DEPENDENT_CLAUSE,
	token.RESERVED_JOIN,
	token.RESERVED_JOIN_CONDITION,
}

// SQLGrammar returns the statement grammar for the given bracket pairs.
// Its start symbol builds a []*cst.Statement.
//
// Statements are runs of expressions and clauses separated by ";". A clause
// is a reserved command (or binary command such as UNION) followed by the
// expressions up to the next clause. Each configured pair gets its own
// parenthesis rule so a close marker only ever matches its own open marker.
// An identifier becomes an array subscript only when "[" follows it with no
// whitespace in between.
func SQLGrammar(pairs []dialect.ParenPair) Grammar {
	var rules []Rule
	add := func(name string, build BuildFunc, syms ...Symbol) {
		rules = append(rules, Rule{Name: name, Symbols: syms, Build: build})
	}

	add("main", buildStatements, Ref("stmts"))
	add("main", buildStatementsFinal, Ref("stmts"), Ref("final"))

	add("stmts", emptyStatements)
	add("stmts", appendStatement, Ref("stmts"), Ref("stmt_semi"))
	add("stmt_semi", buildTerminated, Ref("body"), Term(Terminal{Name: ";", Types: []token.Type{token.SEMICOLON}}))
	add("final", buildFinal, Ref("body1"))

	add("body", emptyNodes)
	add("body", passNodes, Ref("body1"))
	add("body1", concatNodes, Ref("exprs1"), Ref("clauses"))
	add("body1", passNodes, Ref("clauses1"))

	add("exprs", emptyNodes)
	add("exprs", passNodes, Ref("exprs1"))
	add("exprs1", appendNode, Ref("exprs"), Ref("expression"))

	add("clauses", emptyNodes)
	add("clauses", passNodes, Ref("clauses1"))
	add("clauses1", appendNode, Ref("clauses"), Ref("clause"))

	for _, typ := range []token.Type{token.RESERVED_COMMAND, token.RESERVED_BINARY_COMMAND} {
		add("clause", buildClause, Term(Terminal{Types: []token.Type{typ}}), Ref("exprs"))
	}

	add("expression", passNode, Ref("parenthesis"))
	add("expression", passNode, Ref("plain"))

	subscript := false
	for _, p := range pairs {
		add("parenthesis", buildParenthesis, parenSymbols(p)...)
		if p.Open == subscriptOpen {
			subscript = true
			add("paren_subscript", buildParenthesis, parenSymbols(p)...)
		}
	}

	identFollow := FollowAny
	if subscript {
		identFollow = FollowNotAdjacent(subscriptOpen)
		add("expression", passNode, Ref("array_subscript"))
		add("array_subscript", buildArraySubscript,
			Term(Terminal{Name: "IDENTIFIER", Types: []token.Type{token.IDENTIFIER}, Follow: FollowAdjacent(subscriptOpen)}),
			Ref("paren_subscript"))
	}

	add("plain", buildToken, Term(Terminal{Name: "IDENTIFIER", Types: []token.Type{token.IDENTIFIER}, Follow: identFollow}))
	for _, typ := range plainTypes {
		add("plain", buildToken, Term(Terminal{Types: []token.Type{typ}}))
	}

	return Grammar{Start: "main", Rules: rules}
}

func parenSymbols(p dialect.ParenPair) []Symbol {
	return []Symbol{
		Term(Terminal{Name: quoteMarker(p.Open), Types: []token.Type{token.OPEN_PAREN}, Texts: []string{p.Open}}),
		Ref("body"),
		Term(Terminal{Name: quoteMarker(p.Close), Types: []token.Type{token.CLOSE_PAREN}, Texts: []string{p.Close}}),
	}
}

func quoteMarker(s string) string {
	return `"` + s + `"`
}

// Build callbacks. They run once per node of the unique derivation, so every
// list value has a single consumer and is appended to in place.

func emptyNodes([]any) any { return []cst.Node{} }

func passNodes(c []any) any { return c[0].([]cst.Node) }

func passNode(c []any) any { return c[0].(cst.Node) }

func appendNode(c []any) any {
	return append(c[0].([]cst.Node), c[1].(cst.Node))
}

func concatNodes(c []any) any {
	a, b := c[0].([]cst.Node), c[1].([]cst.Node)
	out := make([]cst.Node, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

func buildToken(c []any) any {
	return cst.Node(cst.NewToken(c[0].(token.Token)))
}

func buildClause(c []any) any {
	return cst.Node(&cst.Clause{NameToken: c[0].(token.Token), Children: c[1].([]cst.Node)})
}

func buildParenthesis(c []any) any {
	return cst.Node(cst.NewParenthesis(c[0].(token.Token), c[1].([]cst.Node), c[2].(token.Token)))
}

func buildArraySubscript(c []any) any {
	return cst.Node(&cst.ArraySubscript{
		ArrayToken:  c[0].(token.Token),
		Parenthesis: c[1].(cst.Node).(*cst.Parenthesis),
	})
}

func emptyStatements([]any) any { return []*cst.Statement{} }

func appendStatement(c []any) any {
	return append(c[0].([]*cst.Statement), c[1].(*cst.Statement))
}

func buildTerminated(c []any) any {
	return &cst.Statement{Children: c[0].([]cst.Node), HasSemicolon: true, Semicolon: c[1].(token.Token)}
}

func buildFinal(c []any) any {
	return &cst.Statement{Children: c[0].([]cst.Node)}
}

func buildStatements(c []any) any { return c[0].([]*cst.Statement) }

func buildStatementsFinal(c []any) any {
	return append(c[0].([]*cst.Statement), c[1].(*cst.Statement))
}
