package parser

import (
	"slices"

	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// Marker is a saved adapter position.
type Marker int

// TokenSource is the cursor the engine pulls tokens from.
type TokenSource interface {
	Next() (token.Token, bool)
	Save() Marker
	Restore(Marker)
}

// LexerAdapter turns a tokenize function into a restartable token cursor.
// The input is tokenized once per Reset; Save and Restore only move an index
// over the cached tokens.
type LexerAdapter struct {
	tokenize func(string) ([]token.Token, error)
	tokens   []token.Token
	index    int
}

// NewLexerAdapter wraps a tokenize function.
func NewLexerAdapter(tokenize func(string) ([]token.Token, error)) *LexerAdapter {
	return &LexerAdapter{tokenize: tokenize}
}

// FromTokens creates an adapter over an already tokenized input.
func FromTokens(tokens []token.Token) *LexerAdapter {
	return &LexerAdapter{tokens: slices.Clone(tokens)}
}

// Reset tokenizes chunk and rewinds the cursor to its first token.
func (a *LexerAdapter) Reset(chunk string) error {
	a.index = 0
	a.tokens = nil
	if a.tokenize == nil {
		return nil
	}
	tokens, err := a.tokenize(chunk)
	if err != nil {
		return err
	}
	a.tokens = tokens
	return nil
}

// Next returns the token at the cursor and advances. ok is false at end of
// input.
func (a *LexerAdapter) Next() (token.Token, bool) {
	if a.index >= len(a.tokens) {
		return token.Token{}, false
	}
	tok := a.tokens[a.index]
	a.index++
	return tok, true
}

// Peek returns the token at the cursor without advancing.
func (a *LexerAdapter) Peek() (token.Token, bool) {
	if a.index >= len(a.tokens) {
		return token.Token{}, false
	}
	return a.tokens[a.index], true
}

// Save returns the current position.
func (a *LexerAdapter) Save() Marker {
	return Marker(a.index)
}

// Restore rewinds (or fast-forwards) to a saved position.
func (a *LexerAdapter) Restore(m Marker) {
	a.index = min(max(int(m), 0), len(a.tokens))
}

// Eof reports whether every token has been consumed.
func (a *LexerAdapter) Eof() bool {
	return a.index >= len(a.tokens)
}

// Tokens returns a copy of the cached tokens.
func (a *LexerAdapter) Tokens() []token.Token {
	return slices.Clone(a.tokens)
}
