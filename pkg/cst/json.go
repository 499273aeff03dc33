package cst

import (
	"encoding/json"

	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// The JSON shape mirrors the node model: every object carries a "type"
// discriminator and tokens are encoded with their leading whitespace.

type tokenJSON struct {
	Type  Kind        `json:"type"`
	Token token.Token `json:"token"`
}

type statementJSON struct {
	Type         Kind   `json:"type"`
	Children     []Node `json:"children"`
	HasSemicolon bool   `json:"hasSemicolon"`
}

type clauseJSON struct {
	Type      Kind        `json:"type"`
	NameToken token.Token `json:"nameToken"`
	Children  []Node      `json:"children"`
}

type parenthesisJSON struct {
	Type       Kind   `json:"type"`
	OpenParen  string `json:"openParen"`
	CloseParen string `json:"closeParen"`
	Children   []Node `json:"children"`
}

type arraySubscriptJSON struct {
	Type        Kind         `json:"type"`
	ArrayToken  token.Token  `json:"arrayToken"`
	Parenthesis *Parenthesis `json:"parenthesis"`
}

func nonNil(nodes []Node) []Node {
	if nodes == nil {
		return []Node{}
	}
	return nodes
}

// MarshalJSON implements json.Marshaler.
func (n *TokenNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(tokenJSON{Type: KindToken, Token: n.Token})
}

// MarshalJSON implements json.Marshaler.
func (n *Statement) MarshalJSON() ([]byte, error) {
	return json.Marshal(statementJSON{Type: KindStatement, Children: nonNil(n.Children), HasSemicolon: n.HasSemicolon})
}

// MarshalJSON implements json.Marshaler.
func (n *Clause) MarshalJSON() ([]byte, error) {
	return json.Marshal(clauseJSON{Type: KindClause, NameToken: n.NameToken, Children: nonNil(n.Children)})
}

// MarshalJSON implements json.Marshaler.
func (n *Parenthesis) MarshalJSON() ([]byte, error) {
	return json.Marshal(parenthesisJSON{
		Type:       KindParenthesis,
		OpenParen:  n.OpenParen,
		CloseParen: n.CloseParen,
		Children:   nonNil(n.Children),
	})
}

// MarshalJSON implements json.Marshaler.
func (n *ArraySubscript) MarshalJSON() ([]byte, error) {
	return json.Marshal(arraySubscriptJSON{Type: KindArraySubscript, ArrayToken: n.ArrayToken, Parenthesis: n.Parenthesis})
}

// Plain converts nodes (or a slice of them) into maps and slices with the
// same shape as the JSON encoding, for encoders that do not honour
// json.Marshaler such as YAML.
func Plain(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
