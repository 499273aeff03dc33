package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlcst/pkg/dialect"
	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// tok is a compact expectation: type, text and leading whitespace.
type tok struct {
	typ  token.Type
	text string
	ws   string
}

func lexWith(t *testing.T, name, src string) []token.Token {
	t.Helper()
	tokens, err := Tokenize(dialect.MustGet(name), src)
	require.NoError(t, err)
	return tokens
}

func assertTokens(t *testing.T, want []tok, got []token.Token) {
	t.Helper()
	require.Len(t, got, len(want), "tokens: %v", got)
	for i, w := range want {
		assert.Equal(t, w.typ, got[i].Type, "token %d (%q) type", i, got[i].Text)
		assert.Equal(t, w.text, got[i].Text, "token %d text", i)
		assert.Equal(t, w.ws, got[i].WhitespaceBefore, "token %d whitespace", i)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	for _, src := range []string{"", "   ", "\n-- only a comment\n"} {
		tokens, err := Tokenize(dialect.MustGet("standard"), src)
		require.NoError(t, err)
		assert.Empty(t, tokens)
	}
}

func TestTokenizeBasic(t *testing.T) {
	got := lexWith(t, "standard", "SELECT (birth_year - (CURRENT_DATE + 1))")
	assertTokens(t, []tok{
		{token.RESERVED_COMMAND, "SELECT", ""},
		{token.OPEN_PAREN, "(", " "},
		{token.IDENTIFIER, "birth_year", ""},
		{token.OPERATOR, "-", " "},
		{token.OPEN_PAREN, "(", " "},
		{token.IDENTIFIER, "CURRENT_DATE", ""},
		{token.OPERATOR, "+", " "},
		{token.NUMBER, "1", " "},
		{token.CLOSE_PAREN, ")", ""},
		{token.CLOSE_PAREN, ")", ""},
	}, got)
	assert.Equal(t, "CURRENT_DATE", got[5].Value)
}

func TestTokenizeStatements(t *testing.T) {
	assertTokens(t, []tok{
		{token.IDENTIFIER, "foo", ""},
		{token.SEMICOLON, ";", ""},
		{token.IDENTIFIER, "bar", " "},
	}, lexWith(t, "standard", "foo; bar"))
}

func TestReservedPhrases(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		src     string
		typ     token.Type
		text    string
		value   string
	}{
		{"single word", "standard", "select", token.RESERVED_COMMAND, "select", "SELECT"},
		{"multi word", "standard", "CREATE TABLE", token.RESERVED_COMMAND, "CREATE TABLE", "CREATE TABLE"},
		{"whitespace run between words", "standard", "create \n\t table", token.RESERVED_COMMAND, "create \n\t table", "CREATE TABLE"},
		{"strict prefix degrades", "standard", "CREATE", token.IDENTIFIER, "CREATE", "CREATE"},
		{"word boundary", "standard", "SELECTED", token.IDENTIFIER, "SELECTED", "SELECTED"},
		{"keyword", "standard", "between", token.RESERVED_KEYWORD, "between", "BETWEEN"},
		{"binary command", "standard", "UNION", token.RESERVED_BINARY_COMMAND, "UNION", "UNION"},
		{"dependent clause", "standard", "WHEN", token.RESERVED_DEPENDENT_CLAUSE, "WHEN", "WHEN"},
		{"join", "standard", "Join", token.RESERVED_JOIN, "Join", "JOIN"},
		{"join condition", "standard", "using", token.RESERVED_JOIN_CONDITION, "using", "USING"},
		{"longest join wins", "postgresql", "left  outer join", token.RESERVED_JOIN, "left  outer join", "LEFT OUTER JOIN"},
		{"longest binary wins", "postgresql", "UNION ALL", token.RESERVED_BINARY_COMMAND, "UNION ALL", "UNION ALL"},
		{"longer phrase across categories", "postgresql", "ON CONFLICT", token.RESERVED_COMMAND, "ON CONFLICT", "ON CONFLICT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexWith(t, tt.dialect, tt.src)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.typ, got[0].Type)
			assert.Equal(t, tt.text, got[0].Text)
			assert.Equal(t, tt.value, got[0].Value)
		})
	}
}

func TestPartialPhraseFallsBack(t *testing.T) {
	assertTokens(t, []tok{
		{token.IDENTIFIER, "CREATE", ""},
		{token.IDENTIFIER, "VIEW", " "},
	}, lexWith(t, "standard", "CREATE VIEW"))

	assertTokens(t, []tok{
		{token.IDENTIFIER, "LEFT", ""},
		{token.IDENTIFIER, "OUTER", " "},
		{token.IDENTIFIER, "x", " "},
	}, lexWith(t, "postgresql", "LEFT OUTER x"))
}

func TestQualifiedNameIsNotReserved(t *testing.T) {
	assertTokens(t, []tok{
		{token.IDENTIFIER, "t", ""},
		{token.OPERATOR, ".", ""},
		{token.IDENTIFIER, "select", ""},
	}, lexWith(t, "standard", "t.select"))
}

func TestComments(t *testing.T) {
	tz, err := New(dialect.MustGet("standard"))
	require.NoError(t, err)

	res, err := tz.Lex("SELECT -- pick\n  a /* block */ FROM t /* tail")
	require.NoError(t, err)
	assertTokens(t, []tok{
		{token.RESERVED_COMMAND, "SELECT", ""},
		{token.IDENTIFIER, "a", " -- pick\n  "},
		{token.RESERVED_COMMAND, "FROM", " /* block */ "},
		{token.IDENTIFIER, "t", " "},
	}, res.Tokens)
	assert.Equal(t, " /* tail", res.Trailing)

	require.Len(t, res.Comments, 3)
	assert.Equal(t, token.LineComment, res.Comments[0].Kind)
	assert.Equal(t, "-- pick", res.Comments[0].Text)
	assert.Equal(t, token.Position{Line: 1, Column: 8, Offset: 7}, res.Comments[0].Span.Start)
	assert.Equal(t, token.BlockComment, res.Comments[1].Kind)
	assert.Equal(t, "/* tail", res.Comments[2].Text)
}

func TestMySQLHashComment(t *testing.T) {
	assertTokens(t, []tok{
		{token.RESERVED_COMMAND, "SELECT", ""},
		{token.NUMBER, "1", " # one\n"},
	}, lexWith(t, "mysql", "SELECT # one\n1"))
}

func TestStrings(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		src     string
		typ     token.Type
		value   string
	}{
		{"single quoted", "standard", "'abc'", token.STRING, "abc"},
		{"doubled quote", "standard", "'it''s'", token.STRING, "it's"},
		{"backslash quote", "standard", `'it\'s'`, token.STRING, "it's"},
		{"empty", "standard", "''", token.STRING, ""},
		{"quoted identifier", "standard", `"my ""col"""`, token.QUOTED_IDENTIFIER, `my "col"`},
		{"escape string", "postgresql", `E'a\nb'`, token.STRING, `a\nb`},
		{"unicode string", "postgresql", "u&'d\\0061t'", token.STRING, `d\0061t`},
		{"dollar quoted", "postgresql", "$$it's$$", token.STRING, "it's"},
		{"tagged dollar", "postgresql", "$fn$ SELECT $$x$$ $fn$", token.STRING, " SELECT $$x$$ "},
		{"hex string", "mysql", "X'FF'", token.STRING, "FF"},
		{"national string", "tsql", "N'héllo'", token.STRING, "héllo"},
		{"backtick identifier", "mysql", "`order`", token.QUOTED_IDENTIFIER, "order"},
		{"bracket identifier", "tsql", "[my]]col]", token.QUOTED_IDENTIFIER, "my]col"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexWith(t, tt.dialect, tt.src)
			require.Len(t, got, 1)
			assert.Equal(t, tt.typ, got[0].Type)
			assert.Equal(t, tt.src, got[0].Text)
			assert.Equal(t, tt.value, got[0].Value)
		})
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		src  string
		want []tok
	}{
		{"42", []tok{{token.NUMBER, "42", ""}}},
		{"3.14", []tok{{token.NUMBER, "3.14", ""}}},
		{".5", []tok{{token.NUMBER, ".5", ""}}},
		{"1.", []tok{{token.NUMBER, "1.", ""}}},
		{"1e10", []tok{{token.NUMBER, "1e10", ""}}},
		{"2.5E-3", []tok{{token.NUMBER, "2.5E-3", ""}}},
		{"0xFF", []tok{{token.NUMBER, "0xFF", ""}}},
		{"0b101", []tok{{token.NUMBER, "0b101", ""}}},
		{"1abc", []tok{{token.IDENTIFIER, "1abc", ""}}},
		{"a.5", []tok{{token.IDENTIFIER, "a", ""}, {token.OPERATOR, ".", ""}, {token.NUMBER, "5", ""}}},
		{"-7", []tok{{token.OPERATOR, "-", ""}, {token.NUMBER, "7", ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assertTokens(t, tt.want, lexWith(t, "standard", tt.src))
		})
	}
}

func TestOperators(t *testing.T) {
	assertTokens(t, []tok{
		{token.IDENTIFIER, "a", ""},
		{token.OPERATOR, "<>", " "},
		{token.IDENTIFIER, "b", " "},
		{token.OPERATOR, "||", " "},
		{token.IDENTIFIER, "c", " "},
		{token.OPERATOR, "<", " "},
		{token.OPERATOR, "=", " "},
		{token.NUMBER, "1", ""},
	}, lexWith(t, "standard", "a <> b || c < =1"))

	assertTokens(t, []tok{
		{token.IDENTIFIER, "x", ""},
		{token.OPERATOR, "::", ""},
		{token.IDENTIFIER, "int", ""},
		{token.OPERATOR, "->>", " "},
		{token.STRING, "'k'", " "},
	}, lexWith(t, "postgresql", "x::int ->> 'k'"))
}

func TestExtraIdentChars(t *testing.T) {
	assertTokens(t, []tok{
		{token.RESERVED_COMMAND, "DECLARE", ""},
		{token.IDENTIFIER, "@total", " "},
		{token.IDENTIFIER, "#tmp", " "},
	}, lexWith(t, "tsql", "DECLARE @total #tmp"))

	assertTokens(t, []tok{
		{token.IDENTIFIER, "a", ""},
		{token.OPERATOR, "=", " "},
		{token.IDENTIFIER, "$1", " "},
	}, lexWith(t, "postgresql", "a = $1"))
}

func TestWordParenMarkers(t *testing.T) {
	cfg := dialect.Extend(dialect.MustGet("standard")).
		Name("case-blocks").
		Parens("CASE", "END").
		Build()

	tokens, err := Tokenize(cfg, "case when x end")
	require.NoError(t, err)
	assertTokens(t, []tok{
		{token.OPEN_PAREN, "case", ""},
		{token.RESERVED_DEPENDENT_CLAUSE, "when", " "},
		{token.IDENTIFIER, "x", " "},
		{token.CLOSE_PAREN, "end", " "},
	}, tokens)
	assert.Equal(t, "CASE", tokens[0].Value)

	tokens, err = Tokenize(cfg, "cases")
	require.NoError(t, err)
	assert.Equal(t, token.IDENTIFIER, tokens[0].Type)
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantPos token.Position
		wantMsg string
	}{
		{"unterminated string", "SELECT 'abc", token.Position{Line: 1, Column: 8, Offset: 7}, "unterminated string literal"},
		{"unterminated identifier", "SELECT\n  \"abc", token.Position{Line: 2, Column: 3, Offset: 9}, "unterminated quoted identifier literal"},
		{"unknown character", "SELECT `x`", token.Position{Line: 1, Column: 8, Offset: 7}, "unexpected character '`'"},
		{"unknown character after unicode", "'é' $", token.Position{Line: 1, Column: 5, Offset: 5}, "unexpected character '$'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(dialect.MustGet("standard"), tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLex)

			var lexErr *LexError
			require.ErrorAs(t, err, &lexErr)
			assert.Equal(t, tt.wantPos, lexErr.Pos)
			assert.Contains(t, lexErr.Error(), tt.wantMsg)
			assert.True(t, strings.HasPrefix(lexErr.Error(), "lexer error at line"))
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(dialect.Config{Name: "broken"})
	assert.ErrorIs(t, err, dialect.ErrInvalidConfig)
}

func TestPositions(t *testing.T) {
	got := lexWith(t, "standard", "SELECT a,\n  b")
	require.Len(t, got, 4)
	assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, got[0].Pos)
	assert.Equal(t, token.Position{Line: 1, Column: 8, Offset: 7}, got[1].Pos)
	assert.Equal(t, token.Position{Line: 2, Column: 3, Offset: 12}, got[3].Pos)
	assert.Equal(t, token.Position{Line: 2, Column: 4, Offset: 13}, got[3].End())
}

func TestRoundTrip(t *testing.T) {
	inputs := map[string]string{
		"standard":   "SELECT a, b -- cols\nFROM t\nWHERE x LIKE 'a%' /* c */ ;\n\n",
		"postgresql": "WITH q AS (SELECT $$x$$::text AS v)\nSELECT v[1] FROM q LEFT   JOIN r ON q.v = r.v;",
		"mysql":      "SELECT `a` FROM t # trailing\n",
		"tsql":       "SELECT TOP 10 [col] FROM #tmp CROSS APPLY f(@x)",
	}

	for name, src := range inputs {
		t.Run(name, func(t *testing.T) {
			tz, err := New(dialect.MustGet(name))
			require.NoError(t, err)
			res, err := tz.Lex(src)
			require.NoError(t, err)

			var b strings.Builder
			for _, tk := range res.Tokens {
				b.WriteString(tk.Source())
			}
			b.WriteString(res.Trailing)
			assert.Equal(t, src, b.String())
		})
	}
}
