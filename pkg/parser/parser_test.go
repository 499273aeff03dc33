package parser_test

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlcst/internal/testutil"
	"github.com/leapstack-labs/sqlcst/pkg/cst"
	"github.com/leapstack-labs/sqlcst/pkg/dialect"
	"github.com/leapstack-labs/sqlcst/pkg/lexer"
	"github.com/leapstack-labs/sqlcst/pkg/parser"
	"github.com/leapstack-labs/sqlcst/pkg/token"
)

func parse(t *testing.T, src string) []*cst.Statement {
	t.Helper()
	return parseWith(t, "standard", src)
}

func parseWith(t *testing.T, name, src string) []*cst.Statement {
	t.Helper()
	p, err := parser.New(dialect.MustGet(name), parser.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	doc, err := p.ParseString(src)
	require.NoError(t, err)
	return doc.Statements
}

func leaf(t *testing.T, n cst.Node) token.Token {
	t.Helper()
	tn, ok := n.(*cst.TokenNode)
	require.True(t, ok, "expected token node, got %T", n)
	return tn.Token
}

func TestParseEmpty(t *testing.T) {
	for _, src := range []string{"", "  \n", "-- nothing here\n"} {
		assert.Empty(t, parse(t, src), "input %q", src)
	}

	stmts, err := parser.Parse(nil, dialect.MustGet("standard"))
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestParseStatementSplitting(t *testing.T) {
	stmts := parse(t, "foo; bar")
	require.Len(t, stmts, 2)

	assert.True(t, stmts[0].HasSemicolon)
	require.Len(t, stmts[0].Children, 1)
	foo := leaf(t, stmts[0].Children[0])
	assert.Equal(t, token.IDENTIFIER, foo.Type)
	assert.Equal(t, "foo", foo.Text)
	assert.Equal(t, "", foo.WhitespaceBefore)

	assert.False(t, stmts[1].HasSemicolon)
	require.Len(t, stmts[1].Children, 1)
	bar := leaf(t, stmts[1].Children[0])
	assert.Equal(t, "bar", bar.Text)
	assert.Equal(t, " ", bar.WhitespaceBefore)

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

func TestParseSemicolons(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantCount int
		wantSemi  []bool
		wantLen   []int
	}{
		{name: "trailing semicolon", src: "foo;", wantCount: 1, wantSemi: []bool{true}, wantLen: []int{1}},
		{name: "trailing semicolon and space", src: "foo;\n", wantCount: 1, wantSemi: []bool{true}, wantLen: []int{1}},
		{name: "double semicolon", src: ";;", wantCount: 2, wantSemi: []bool{true, true}, wantLen: []int{0, 0}},
		{name: "empty statement between", src: "a;;b", wantCount: 3, wantSemi: []bool{true, true, false}, wantLen: []int{1, 0, 1}},
		{name: "no semicolon", src: "a b c", wantCount: 1, wantSemi: []bool{false}, wantLen: []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts := parse(t, tt.src)
			require.Len(t, stmts, tt.wantCount)
			for i, s := range stmts {
				assert.Equal(t, tt.wantSemi[i], s.HasSemicolon, "statement %d", i)
				assert.Len(t, s.Children, tt.wantLen[i], "statement %d", i)
			}
		})
	}
}

func TestParseArraySubscript(t *testing.T) {
	stmts := parse(t, "SELECT my_array[5]")
	require.Len(t, stmts, 1)
	require.Len(t, stmts[0].Children, 1)

	clause, ok := stmts[0].Children[0].(*cst.Clause)
	require.True(t, ok)
	assert.Equal(t, token.RESERVED_COMMAND, clause.NameToken.Type)
	assert.Equal(t, "SELECT", clause.NameToken.Value)
	require.Len(t, clause.Children, 1)

	sub, ok := clause.Children[0].(*cst.ArraySubscript)
	require.True(t, ok, "got %T", clause.Children[0])
	assert.Equal(t, "my_array", sub.ArrayToken.Text)
	require.NotNil(t, sub.Parenthesis)
	assert.Equal(t, "[", sub.Parenthesis.OpenParen)
	assert.Equal(t, "]", sub.Parenthesis.CloseParen)
	require.Len(t, sub.Parenthesis.Children, 1)
	five := leaf(t, sub.Parenthesis.Children[0])
	assert.Equal(t, token.NUMBER, five.Type)
	assert.Equal(t, "5", five.Text)
}

func TestParseSeparatedBracketIsNotSubscript(t *testing.T) {
	stmts := parse(t, "my_array [5]")
	require.Len(t, stmts, 1)
	require.Len(t, stmts[0].Children, 2)

	assert.Equal(t, "my_array", leaf(t, stmts[0].Children[0]).Text)
	paren, ok := stmts[0].Children[1].(*cst.Parenthesis)
	require.True(t, ok)
	assert.Equal(t, "[", paren.OpenParen)
}

func TestParseNestedParentheses(t *testing.T) {
	stmts := parse(t, "SELECT (birth_year - (CURRENT_DATE + 1))")
	require.Len(t, stmts, 1)
	require.Len(t, stmts[0].Children, 1)

	clause, ok := stmts[0].Children[0].(*cst.Clause)
	require.True(t, ok)
	assert.Equal(t, "SELECT", clause.NameToken.Text)
	require.Len(t, clause.Children, 1)

	outer, ok := clause.Children[0].(*cst.Parenthesis)
	require.True(t, ok)
	assert.Equal(t, "(", outer.OpenParen)
	assert.Equal(t, ")", outer.CloseParen)
	assert.Equal(t, " ", outer.Open.WhitespaceBefore)
	require.Len(t, outer.Children, 3)

	birth := leaf(t, outer.Children[0])
	assert.Equal(t, "birth_year", birth.Text)
	assert.Equal(t, "", birth.WhitespaceBefore)
	minus := leaf(t, outer.Children[1])
	assert.Equal(t, token.OPERATOR, minus.Type)
	assert.Equal(t, "-", minus.Text)
	assert.Equal(t, " ", minus.WhitespaceBefore)

	inner, ok := outer.Children[2].(*cst.Parenthesis)
	require.True(t, ok)
	assert.Equal(t, " ", inner.Open.WhitespaceBefore)
	require.Len(t, inner.Children, 3)

	want := []struct {
		typ  token.Type
		text string
		ws   string
	}{
		{token.IDENTIFIER, "CURRENT_DATE", ""},
		{token.OPERATOR, "+", " "},
		{token.NUMBER, "1", " "},
	}
	for i, w := range want {
		got := leaf(t, inner.Children[i])
		assert.Equal(t, w.typ, got.Type, "child %d", i)
		assert.Equal(t, w.text, got.Text, "child %d", i)
		assert.Equal(t, w.ws, got.WhitespaceBefore, "child %d", i)
	}
	assert.Equal(t, "", inner.Close.WhitespaceBefore)
	assert.Equal(t, "", outer.Close.WhitespaceBefore)
}

func TestParseClauses(t *testing.T) {
	stmts := parse(t, "SELECT a FROM (SELECT b FROM t) x WHERE c = 1 UNION SELECT 2")
	require.Len(t, stmts, 1)

	var names []string
	for _, n := range stmts[0].Children {
		c, ok := n.(*cst.Clause)
		require.True(t, ok, "top level node %T", n)
		names = append(names, c.NameToken.Value)
	}
	assert.Equal(t, []string{"SELECT", "FROM", "WHERE", "UNION", "SELECT"}, names)

	from := stmts[0].Children[1].(*cst.Clause)
	require.Len(t, from.Children, 2)
	sub, ok := from.Children[0].(*cst.Parenthesis)
	require.True(t, ok)
	require.Len(t, sub.Children, 2)
	assert.Equal(t, "SELECT", sub.Children[0].(*cst.Clause).NameToken.Value)
	assert.Equal(t, "FROM", sub.Children[1].(*cst.Clause).NameToken.Value)
	assert.Equal(t, "x", leaf(t, from.Children[1]).Text)

	union := stmts[0].Children[3].(*cst.Clause)
	assert.Equal(t, token.RESERVED_BINARY_COMMAND, union.NameToken.Type)
	assert.Empty(t, union.Children)
}

func TestParseLeadingExpressions(t *testing.T) {
	stmts := parse(t, "foo BETWEEN 1 SELECT a")
	require.Len(t, stmts, 1)
	require.Len(t, stmts[0].Children, 4)
	assert.Equal(t, token.RESERVED_KEYWORD, leaf(t, stmts[0].Children[1]).Type)
	_, ok := stmts[0].Children[3].(*cst.Clause)
	assert.True(t, ok)
}

func TestParseMultiWordCommand(t *testing.T) {
	stmts := parse(t, "CREATE   TABLE foo (id)")
	require.Len(t, stmts, 1)
	clause := stmts[0].Children[0].(*cst.Clause)
	assert.Equal(t, "CREATE TABLE", clause.NameToken.Value)
	assert.Equal(t, "CREATE   TABLE", clause.NameToken.Text)
	require.Len(t, clause.Children, 2)
	assert.IsType(t, &cst.Parenthesis{}, clause.Children[1])
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"foo; bar",
		"SELECT my_array[5];",
		"  SELECT (birth_year - (CURRENT_DATE + 1))  \n",
		"-- leading comment\nSELECT a, /* inline */ b\nFROM t\tWHERE x <> 'it''s';\n\n;",
		"SELECT a FROM t JOIN u ON t.id = u.id LIMIT 10 -- done",
	}
	cfg := dialect.MustGet("standard")

	for _, src := range inputs {
		doc, err := parser.ParseString(cfg, src)
		require.NoError(t, err, "input %q", src)

		var b strings.Builder
		for _, tok := range cst.DocumentLeaves(doc.Statements) {
			b.WriteString(tok.Source())
		}
		b.WriteString(doc.Trailing)
		assert.Equal(t, src, b.String())
	}
}

func TestParseTokensMatchesParseString(t *testing.T) {
	cfg := dialect.MustGet("postgresql")
	src := "SELECT a->>'k', arr[1] FROM t WHERE x::int > 2; SELECT 1"

	tokens, err := lexer.Tokenize(cfg, src)
	require.NoError(t, err)
	fromTokens, err := parser.Parse(tokens, cfg)
	require.NoError(t, err)

	doc, err := parser.ParseString(cfg, src)
	require.NoError(t, err)
	assert.Equal(t, fromTokens, doc.Statements)
	assert.Equal(t, tokens, cst.DocumentLeaves(doc.Statements))
}

func TestParseMismatchedBrackets(t *testing.T) {
	_, err := parser.ParseString(dialect.MustGet("standard"), "(5]")
	require.ErrorIs(t, err, parser.ErrSyntax)

	var se *parser.SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Index)
	require.NotNil(t, se.Found)
	assert.Equal(t, "]", se.Found.Text)
	assert.Equal(t, 3, se.Pos.Column)
	assert.Contains(t, se.Expected, `")"`)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantIndex int
		wantFound string // empty means end of input
	}{
		{name: "unclosed paren", src: "SELECT (a", wantIndex: 3},
		{name: "stray close", src: "SELECT a)", wantIndex: 2, wantFound: ")"},
		{name: "close in second statement", src: "a; b ] c", wantIndex: 3, wantFound: "]"},
		{name: "semicolon inside parens", src: "(a; b)", wantIndex: 2, wantFound: ";"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseString(dialect.MustGet("standard"), tt.src)
			var se *parser.SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantIndex, se.Index)
			if tt.wantFound == "" {
				assert.Nil(t, se.Found)
			} else {
				require.NotNil(t, se.Found)
				assert.Equal(t, tt.wantFound, se.Found.Text)
			}
		})
	}
}

func TestParseLexError(t *testing.T) {
	_, err := parser.ParseString(dialect.MustGet("standard"), "SELECT 'open")
	assert.ErrorIs(t, err, lexer.ErrLex)
}

func TestNewRejectsInvalidDialect(t *testing.T) {
	cfg := dialect.NewDialect("broken").Commands("SELECT").Build()
	_, err := parser.New(cfg)
	assert.ErrorIs(t, err, dialect.ErrInvalidConfig)
}

func TestParseWordParenMarkers(t *testing.T) {
	cfg := dialect.Extend(dialect.MustGet("standard")).
		Name("case-blocks").
		DependentClauses("THEN").
		Parens("CASE", "END").
		Build()
	p, err := parser.New(cfg)
	require.NoError(t, err)

	doc, err := p.ParseString("SELECT case WHEN a THEN b ELSE c end")
	require.NoError(t, err)
	clause := doc.Statements[0].Children[0].(*cst.Clause)
	block, ok := clause.Children[0].(*cst.Parenthesis)
	require.True(t, ok)
	assert.Equal(t, "CASE", block.OpenParen)
	assert.Equal(t, "END", block.CloseParen)
	assert.Equal(t, "case", block.Open.Text)
	assert.Len(t, block.Children, 6)
}

func TestParserReuse(t *testing.T) {
	p, err := parser.New(dialect.MustGet("mysql"))
	require.NoError(t, err)
	for _, src := range []string{"SELECT 1", "SELECT `a` FROM t # c", "x := 1; y"} {
		_, err := p.ParseString(src)
		assert.NoError(t, err, src)
	}
}

func TestParserLogging(t *testing.T) {
	logger, logs := testutil.NewCaptureLogger()
	p, err := parser.New(dialect.MustGet("standard"), parser.WithLogger(logger))
	require.NoError(t, err)

	_, err = p.ParseString("SELECT 1; SELECT 2")
	require.NoError(t, err)
	assert.True(t, logs.Contains("msg=parsing", "tokens=5"))
	assert.True(t, logs.Contains("msg=parsed", "statements=2"))

	_, err = p.ParseString("SELECT (")
	require.Error(t, err)
	assert.True(t, logs.Contains(`msg="parse failed"`))
}

func longSelect(n int) string {
	return "SELECT " + strings.Repeat("a , ", n) + "1"
}

func TestParseLongListAllocationsGrowLinearly(t *testing.T) {
	cfg := dialect.MustGet("standard")
	allocated := func(n int) uint64 {
		src := longSelect(n)
		runtime.GC()
		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		doc, err := parser.ParseString(cfg, src)
		runtime.ReadMemStats(&after)
		require.NoError(t, err)
		require.Len(t, doc.Statements, 1)
		return after.TotalAlloc - before.TotalAlloc
	}

	small := allocated(1000)
	large := allocated(4000)
	ratio := float64(large) / float64(small)
	assert.Less(t, ratio, 6.0, "4x input allocated %.1fx the memory", ratio)
}

func TestParseLongList(t *testing.T) {
	if testing.Short() {
		t.Skip("long input")
	}
	const n = 20000

	start := time.Now()
	doc, err := parser.ParseString(dialect.MustGet("standard"), longSelect(n))
	elapsed := time.Since(start)
	require.NoError(t, err)

	require.Len(t, doc.Statements, 1)
	clause, ok := doc.Statements[0].Children[0].(*cst.Clause)
	require.True(t, ok)
	assert.Len(t, clause.Children, 2*n+1)
	assert.Less(t, elapsed, 10*time.Second)
}
