// Package lexer turns SQL text into classified tokens under a dialect
// configuration.
//
// Whitespace and comments are never emitted as tokens. They are carried in
// the WhitespaceBefore field of the token that follows them, so the token
// stream (plus Result.Trailing) reproduces the input exactly.
package lexer

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/sqlcst/pkg/dialect"
	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// singleOperators is the set of one-character operators.
const singleOperators = "+-*/%=<>!|&^~:.,@#?"

// Tokenizer tokenizes SQL for one dialect. It holds only compiled,
// read-only tables and may be shared between goroutines.
type Tokenizer struct {
	cfg       dialect.Config
	phrases   *phraseTable // commands, binary commands, dependent clauses, joins, join conditions
	keywords  *phraseTable
	quotes    []quoteStyle // string literal styles
	idents    []quoteStyle // quoted identifier styles
	parens    []parenMarker
	comments  []string
	operators []string // multi-character, longest first
	single    string
	extra     string
}

// Result is the full output of Lex.
type Result struct {
	Tokens   []token.Token
	Trailing string          // whitespace and comments after the last token
	Comments []token.Comment // every comment, in source order
}

// New validates cfg and compiles a tokenizer for it.
func New(cfg dialect.Config) (*Tokenizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	cats := cfg.ReservedCategories()
	t := &Tokenizer{
		cfg:      cfg,
		phrases:  newPhraseTable(cats[:len(cats)-1]),
		keywords: newPhraseTable(cats[len(cats)-1:]),
		parens:   compileParens(cfg),
		comments: cfg.CommentMarkers(),
		extra:    cfg.ExtraIdentChars,
	}
	for _, s := range cfg.StringTypes {
		t.quotes = append(t.quotes, compileQuote(s))
	}
	for _, s := range cfg.IdentTypes {
		t.idents = append(t.idents, compileQuote(s))
	}
	sortQuotes(t.quotes)
	sortQuotes(t.idents)

	t.operators = slices.Clone(cfg.Operators)
	slices.SortStableFunc(t.operators, func(a, b string) int { return len(b) - len(a) })
	t.single = strings.Map(func(r rune) rune {
		if strings.ContainsRune(t.extra, r) {
			return -1
		}
		return r
	}, singleOperators)
	return t, nil
}

// sortQuotes puts prefixed styles first so N'x' is read as one literal.
func sortQuotes(qs []quoteStyle) {
	slices.SortStableFunc(qs, func(a, b quoteStyle) int { return len(b.prefix) - len(a.prefix) })
}

// Config returns a copy of the tokenizer's dialect configuration.
func (t *Tokenizer) Config() dialect.Config {
	return t.cfg.Clone()
}

// Tokenize returns the tokens of src. Empty input yields an empty slice.
func (t *Tokenizer) Tokenize(src string) ([]token.Token, error) {
	res, err := t.Lex(src)
	if err != nil {
		return nil, err
	}
	return res.Tokens, nil
}

// Lex tokenizes src and also returns the trailing whitespace and the comments.
func (t *Tokenizer) Lex(src string) (*Result, error) {
	s := &scanner{
		t:      t,
		src:    src,
		pos:    token.StartPosition,
		tokens: make([]token.Token, 0, len(src)/4),
	}
	for {
		ws := s.skipWhitespace()
		if s.off >= len(s.src) {
			return &Result{Tokens: s.tokens, Trailing: ws, Comments: s.comments}, nil
		}
		tok, err := s.next(ws)
		if err != nil {
			return nil, err
		}
		s.tokens = append(s.tokens, tok)
	}
}

// Tokenize tokenizes src with a one-off tokenizer for cfg.
func Tokenize(cfg dialect.Config, src string) ([]token.Token, error) {
	t, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return t.Tokenize(src)
}

func (t *Tokenizer) isIdent(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || strings.ContainsRune(t.extra, r)
}

// scanner holds the cursor state of one Lex call.
type scanner struct {
	t        *Tokenizer
	src      string
	off      int
	pos      token.Position
	tokens   []token.Token
	comments []token.Comment
}

// advance consumes n bytes and returns them.
func (s *scanner) advance(n int) string {
	text := s.src[s.off : s.off+n]
	s.off += n
	s.pos = s.pos.Advance(text)
	return text
}

// skipWhitespace consumes whitespace and comments and returns them verbatim.
func (s *scanner) skipWhitespace() string {
	start := s.off
	for s.off < len(s.src) {
		rest := s.src[s.off:]
		if n := spaceLen(rest); n > 0 {
			s.advance(n)
			continue
		}
		if s.t.isLineComment(rest) {
			n := strings.IndexByte(rest, '\n')
			if n < 0 {
				n = len(rest)
			}
			s.comment(token.LineComment, n)
			continue
		}
		if strings.HasPrefix(rest, "/*") {
			n := len(rest)
			if end := strings.Index(rest[2:], "*/"); end >= 0 {
				n = end + 4
			}
			s.comment(token.BlockComment, n)
			continue
		}
		break
	}
	return s.src[start:s.off]
}

func (s *scanner) comment(kind token.CommentKind, n int) {
	start := s.pos
	text := s.advance(n)
	s.comments = append(s.comments, token.Comment{
		Kind: kind,
		Text: text,
		Span: token.Span{Start: start, End: s.pos},
	})
}

func (t *Tokenizer) isLineComment(s string) bool {
	for _, m := range t.comments {
		if strings.HasPrefix(s, m) {
			return true
		}
	}
	return false
}

// prev returns the last emitted token, if any.
func (s *scanner) prev() (token.Token, bool) {
	if len(s.tokens) == 0 {
		return token.Token{}, false
	}
	return s.tokens[len(s.tokens)-1], true
}

// next scans one token at the cursor, trying the match rules in priority order.
func (s *scanner) next(ws string) (token.Token, error) {
	t := s.t
	rest := s.src[s.off:]
	start := s.pos
	emit := func(typ token.Type, n int, value func(string) string) token.Token {
		text := s.advance(n)
		return token.Token{Type: typ, Text: text, Value: value(text), WhitespaceBefore: ws, Pos: start}
	}
	verbatim := func(text string) string { return text }

	prev, hasPrev := s.prev()
	afterDot := hasPrev && prev.Type == token.OPERATOR && prev.Text == "."

	// Reserved phrases, unless qualified (t.select)
	if !afterDot {
		if typ, n, ok := t.phrases.match(rest, t.isIdent); ok {
			return emit(typ, n, dialect.NormalizePhrase), nil
		}
	}

	// Strings, then quoted identifiers
	for _, group := range []struct {
		styles []quoteStyle
		typ    token.Type
		kind   string
	}{
		{t.quotes, token.STRING, "string"},
		{t.idents, token.QUOTED_IDENTIFIER, "quoted identifier"},
	} {
		for _, q := range group.styles {
			n, value, ok, unterminated := q.match(rest)
			if unterminated {
				return token.Token{}, &LexError{Pos: start, Message: fmt.Sprintf(errUnterminatedString, group.kind, q.name)}
			}
			if ok {
				return emit(group.typ, n, func(string) string { return value }), nil
			}
		}
	}

	for _, m := range t.parens {
		if m.match(rest, t.isIdent) {
			value := verbatim
			if m.word {
				value = strings.ToUpper
			}
			return emit(m.typ, len(m.text), value), nil
		}
	}

	if n := scanNumber(rest, s.leadingDotAllowed(ws), t.isIdent); n > 0 {
		return emit(token.NUMBER, n, verbatim), nil
	}

	if !afterDot {
		if typ, n, ok := t.keywords.match(rest, t.isIdent); ok {
			return emit(typ, n, dialect.NormalizePhrase), nil
		}
	}

	for _, op := range t.operators {
		if strings.HasPrefix(rest, op) {
			return emit(token.OPERATOR, len(op), verbatim), nil
		}
	}
	r, size := utf8.DecodeRuneInString(rest)
	if r == ';' {
		return emit(token.SEMICOLON, 1, verbatim), nil
	}
	if strings.ContainsRune(t.single, r) {
		return emit(token.OPERATOR, size, verbatim), nil
	}

	if n := wordLen(rest, t.isIdent); n > 0 {
		return emit(token.IDENTIFIER, n, verbatim), nil
	}

	return token.Token{}, &LexError{Pos: start, Message: fmt.Sprintf(errUnexpectedChar, r)}
}

// leadingDotAllowed reports whether ".5" may start a number here. A dot
// directly after an operand qualifies it instead.
func (s *scanner) leadingDotAllowed(ws string) bool {
	prev, ok := s.prev()
	if !ok || ws != "" {
		return true
	}
	switch prev.Type {
	case token.IDENTIFIER, token.QUOTED_IDENTIFIER, token.STRING, token.NUMBER, token.CLOSE_PAREN:
		return false
	}
	return true
}
