package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlcst/pkg/dialect"
	"github.com/leapstack-labs/sqlcst/pkg/lexer"
	"github.com/leapstack-labs/sqlcst/pkg/token"
)

func countingAdapter(t *testing.T) (*LexerAdapter, *int) {
	t.Helper()
	tz, err := lexer.New(dialect.MustGet("standard"))
	require.NoError(t, err)
	calls := 0
	return NewLexerAdapter(func(src string) ([]token.Token, error) {
		calls++
		return tz.Tokenize(src)
	}), &calls
}

func TestLexerAdapterSaveRestore(t *testing.T) {
	a, calls := countingAdapter(t)
	require.NoError(t, a.Reset("SELECT a, b FROM t"))

	first, ok := a.Next()
	require.True(t, ok)
	assert.Equal(t, "SELECT", first.Value)

	m := a.Save()
	var pass1 []token.Token
	for tok, ok := a.Next(); ok; tok, ok = a.Next() {
		pass1 = append(pass1, tok)
	}
	assert.True(t, a.Eof())

	a.Restore(m)
	var pass2 []token.Token
	for tok, ok := a.Next(); ok; tok, ok = a.Next() {
		pass2 = append(pass2, tok)
	}

	assert.Equal(t, pass1, pass2)
	assert.Len(t, pass1, 5)
	assert.Equal(t, 1, *calls, "tokenizer must run once per Reset")
}

func TestLexerAdapterPeek(t *testing.T) {
	a := FromTokens([]token.Token{
		{Type: token.IDENTIFIER, Text: "a", Value: "a"},
		{Type: token.SEMICOLON, Text: ";", Value: ";"},
	})

	tok, ok := a.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", tok.Text)
	assert.Equal(t, Marker(0), a.Save(), "peek does not advance")

	a.Next()
	a.Next()
	_, ok = a.Peek()
	assert.False(t, ok)
	_, ok = a.Next()
	assert.False(t, ok)
}

func TestLexerAdapterRestoreClamps(t *testing.T) {
	a := FromTokens([]token.Token{{Type: token.NUMBER, Text: "1", Value: "1"}})

	a.Restore(Marker(10))
	assert.True(t, a.Eof())

	a.Restore(Marker(-3))
	tok, ok := a.Next()
	require.True(t, ok)
	assert.Equal(t, "1", tok.Text)
}

func TestFromTokensCopies(t *testing.T) {
	in := []token.Token{{Type: token.IDENTIFIER, Text: "a", Value: "a"}}
	a := FromTokens(in)
	in[0].Text = "changed"

	tok, _ := a.Next()
	assert.Equal(t, "a", tok.Text)

	out := a.Tokens()
	out[0].Text = "changed"
	assert.Equal(t, "a", a.Tokens()[0].Text)
}

func TestLexerAdapterResetError(t *testing.T) {
	boom := errors.New("boom")
	a := NewLexerAdapter(func(string) ([]token.Token, error) { return nil, boom })

	err := a.Reset("x")
	require.ErrorIs(t, err, boom)
	assert.True(t, a.Eof())
}

func TestLexerAdapterResetRewinds(t *testing.T) {
	a, calls := countingAdapter(t)
	require.NoError(t, a.Reset("a b"))
	a.Next()
	a.Next()

	require.NoError(t, a.Reset("c"))
	tok, ok := a.Next()
	require.True(t, ok)
	assert.Equal(t, "c", tok.Text)
	assert.Equal(t, 2, *calls)
}
