// Package token defines the lexical categories and token values shared by the
// tokenizer, the parser and the CST.
//
// The category set is closed: dialects change which words land in which
// category, never the categories themselves.
package token

import (
	"fmt"
	"strings"
)

// Type represents the lexical category of a token.
type Type int

//nolint:revive // category names mirror the SQL token conventions used across the codebase
const (
	IDENTIFIER Type = iota
	QUOTED_IDENTIFIER
	STRING
	NUMBER
	OPERATOR
	RESERVED_COMMAND
	RESERVED_DEPENDENT_CLAUSE
	RESERVED_BINARY_COMMAND
	RESERVED_JOIN
	RESERVED_JOIN_CONDITION
	RESERVED_KEYWORD
	OPEN_PAREN
	CLOSE_PAREN
	LINE_COMMENT  // folded into WhitespaceBefore, never emitted
	BLOCK_COMMENT // folded into WhitespaceBefore, never emitted
	SEMICOLON
)

// typeNames maps token types to their string representations.
var typeNames = map[Type]string{
	IDENTIFIER:                "IDENTIFIER",
	QUOTED_IDENTIFIER:         "QUOTED_IDENTIFIER",
	STRING:                    "STRING",
	NUMBER:                    "NUMBER",
	OPERATOR:                  "OPERATOR",
	RESERVED_COMMAND:          "RESERVED_COMMAND",
	RESERVED_DEPENDENT_CLAUSE: "RESERVED_DEPENDENT_CLAUSE",
	RESERVED_BINARY_COMMAND:   "RESERVED_BINARY_COMMAND",
	RESERVED_JOIN:             "RESERVED_JOIN",
	RESERVED_JOIN_CONDITION:   "RESERVED_JOIN_CONDITION",
	RESERVED_KEYWORD:          "RESERVED_KEYWORD",
	OPEN_PAREN:                "OPEN_PAREN",
	CLOSE_PAREN:               "CLOSE_PAREN",
	LINE_COMMENT:              "LINE_COMMENT",
	BLOCK_COMMENT:             "BLOCK_COMMENT",
	SEMICOLON:                 "SEMICOLON",
}

// String returns a human-readable representation of the token type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", int(t))
}

// MarshalText encodes the type by name so JSON and YAML output stay readable.
func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("unknown token type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name produced by MarshalText.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, ok := ParseType(string(b))
	if !ok {
		return fmt.Errorf("unknown token type %q", string(b))
	}
	*t = parsed
	return nil
}

// ParseType returns the token type with the given name (case-insensitive).
func ParseType(name string) (Type, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == upper {
			return t, true
		}
	}
	return 0, false
}

// Types returns every token type in declaration order.
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for t := IDENTIFIER; t <= SEMICOLON; t++ {
		out = append(out, t)
	}
	return out
}

// IsReserved returns true for the reserved word categories.
func (t Type) IsReserved() bool {
	return t >= RESERVED_COMMAND && t <= RESERVED_KEYWORD
}

// IsComment returns true for the comment categories.
func (t Type) IsComment() bool {
	return t == LINE_COMMENT || t == BLOCK_COMMENT
}

// Token is one lexical unit. It is created once by the tokenizer and never
// mutated afterwards.
type Token struct {
	Type             Type     `json:"type" yaml:"type"`
	Text             string   `json:"text" yaml:"text"`   // exact source text
	Value            string   `json:"value" yaml:"value"` // normalized text
	WhitespaceBefore string   `json:"whitespaceBefore" yaml:"whitespaceBefore"`
	Pos              Position `json:"-" yaml:"-"`
}

// End returns the position just past the token text.
func (t Token) End() Position {
	return t.Pos.Advance(t.Text)
}

// Span returns the source range covered by the token text.
func (t Token) Span() Span {
	return Span{Start: t.Pos, End: t.End()}
}

// Source returns the leading whitespace followed by the token text, i.e. the
// exact slice of input the token accounts for.
func (t Token) Source() string {
	return t.WhitespaceBefore + t.Text
}

// Is reports whether the token has the given type and, when values are
// given, a value equal to one of them (case-insensitive).
func (t Token) Is(typ Type, values ...string) bool {
	if t.Type != typ {
		return false
	}
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if strings.EqualFold(t.Value, v) {
			return true
		}
	}
	return false
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Type, t.Text)
}
