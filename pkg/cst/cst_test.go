package cst

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlcst/pkg/token"
)

func tk(typ token.Type, text, ws string) token.Token {
	return token.Token{Type: typ, Text: text, Value: text, WhitespaceBefore: ws}
}

// subscriptStatement is the tree of "SELECT my_array[5];".
func subscriptStatement() *Statement {
	paren := NewParenthesis(
		tk(token.OPEN_PAREN, "[", ""),
		[]Node{NewToken(tk(token.NUMBER, "5", ""))},
		tk(token.CLOSE_PAREN, "]", ""),
	)
	return &Statement{
		Children: []Node{
			&Clause{
				NameToken: tk(token.RESERVED_COMMAND, "SELECT", ""),
				Children: []Node{
					&ArraySubscript{ArrayToken: tk(token.IDENTIFIER, "my_array", " "), Parenthesis: paren},
				},
			},
		},
		HasSemicolon: true,
		Semicolon:    tk(token.SEMICOLON, ";", ""),
	}
}

func TestKinds(t *testing.T) {
	nodes := []Node{&TokenNode{}, &Statement{}, &Clause{}, &Parenthesis{}, &ArraySubscript{}}
	kinds := make([]Kind, len(nodes))
	for i, n := range nodes {
		kinds[i] = n.Kind()
	}
	assert.Equal(t, []Kind{KindToken, KindStatement, KindClause, KindParenthesis, KindArraySubscript}, kinds)
}

func TestNewParenthesisUsesTokenValues(t *testing.T) {
	p := NewParenthesis(
		token.Token{Type: token.OPEN_PAREN, Text: "case", Value: "CASE"},
		nil,
		token.Token{Type: token.CLOSE_PAREN, Text: "end", Value: "END"},
	)
	assert.Equal(t, "CASE", p.OpenParen)
	assert.Equal(t, "END", p.CloseParen)
	assert.Equal(t, "case", p.Open.Text)
}

func TestLeaves(t *testing.T) {
	leaves := Leaves(subscriptStatement())

	texts := make([]string, len(leaves))
	for i, l := range leaves {
		texts[i] = l.Text
	}
	assert.Equal(t, []string{"SELECT", "my_array", "[", "5", "]", ";"}, texts)

	src := ""
	for _, l := range DocumentLeaves([]*Statement{subscriptStatement()}) {
		src += l.Source()
	}
	assert.Equal(t, "SELECT my_array[5];", src)
}

func TestWalk(t *testing.T) {
	var kinds []Kind
	Walk(subscriptStatement(), func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})
	assert.Equal(t, []Kind{KindStatement, KindClause, KindArraySubscript, KindParenthesis, KindToken}, kinds)

	kinds = nil
	Walk(subscriptStatement(), func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != KindClause
	})
	assert.Equal(t, []Kind{KindStatement, KindClause}, kinds)
}

func TestMarshalJSON(t *testing.T) {
	stmts := []*Statement{
		{
			Children:     []Node{NewToken(tk(token.IDENTIFIER, "foo", ""))},
			HasSemicolon: true,
			Semicolon:    tk(token.SEMICOLON, ";", ""),
		},
		{
			Children: []Node{NewToken(tk(token.IDENTIFIER, "bar", " "))},
		},
	}

	data, err := json.Marshal(stmts)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type": "statement", "hasSemicolon": true, "children": [
			{"type": "token", "token": {"type": "IDENTIFIER", "text": "foo", "value": "foo", "whitespaceBefore": ""}}
		]},
		{"type": "statement", "hasSemicolon": false, "children": [
			{"type": "token", "token": {"type": "IDENTIFIER", "text": "bar", "value": "bar", "whitespaceBefore": " "}}
		]}
	]`, string(data))
}

func TestMarshalJSONSubscript(t *testing.T) {
	data, err := json.Marshal(subscriptStatement())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "statement", "hasSemicolon": true, "children": [
		{"type": "clause",
		 "nameToken": {"type": "RESERVED_COMMAND", "text": "SELECT", "value": "SELECT", "whitespaceBefore": ""},
		 "children": [
			{"type": "array_subscript",
			 "arrayToken": {"type": "IDENTIFIER", "text": "my_array", "value": "my_array", "whitespaceBefore": " "},
			 "parenthesis": {"type": "parenthesis", "openParen": "[", "closeParen": "]", "children": [
				{"type": "token", "token": {"type": "NUMBER", "text": "5", "value": "5", "whitespaceBefore": ""}}
			 ]}}
		 ]}
	]}`, string(data))
}

func TestMarshalEmptyChildren(t *testing.T) {
	data, err := json.Marshal(&Statement{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "statement", "hasSemicolon": false, "children": []}`, string(data))
}

func TestPlain(t *testing.T) {
	plain, err := Plain([]*Statement{subscriptStatement()})
	require.NoError(t, err)

	list, ok := plain.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	stmt, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "statement", stmt["type"])
	assert.Equal(t, true, stmt["hasSemicolon"])
}
