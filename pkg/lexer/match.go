package lexer

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/sqlcst/pkg/dialect"
	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// phrase is one reserved phrase split into upper-case words.
type phrase struct {
	words []string
	typ   token.Type
	rank  int // category priority, lower wins on equal length
}

// phraseTable indexes reserved phrases by their first word.
type phraseTable struct {
	byFirst map[string][]phrase
}

func newPhraseTable(cats []dialect.Category) *phraseTable {
	t := &phraseTable{byFirst: make(map[string][]phrase)}
	for rank, cat := range cats {
		for _, p := range cat.Phrases {
			words := strings.Fields(dialect.NormalizePhrase(p))
			if len(words) == 0 {
				continue
			}
			t.byFirst[words[0]] = append(t.byFirst[words[0]], phrase{words: words, typ: cat.Type, rank: rank})
		}
	}
	for _, list := range t.byFirst {
		slices.SortStableFunc(list, func(a, b phrase) int {
			if len(a.words) != len(b.words) {
				return len(b.words) - len(a.words)
			}
			return a.rank - b.rank
		})
	}
	return t
}

// match returns the longest phrase starting at s. Words may be separated by
// any run of whitespace and the phrase must end on a word boundary.
func (t *phraseTable) match(s string, isIdent func(rune) bool) (token.Type, int, bool) {
	first := wordLen(s, isIdent)
	if first == 0 {
		return 0, 0, false
	}
	for _, p := range t.byFirst[strings.ToUpper(s[:first])] {
		if n, ok := p.matchRest(s, first, isIdent); ok {
			return p.typ, n, true
		}
	}
	return 0, 0, false
}

func (p phrase) matchRest(s string, off int, isIdent func(rune) bool) (int, bool) {
	for _, w := range p.words[1:] {
		ws := spaceLen(s[off:])
		if ws == 0 {
			return 0, false
		}
		off += ws
		l := wordLen(s[off:], isIdent)
		if l == 0 || strings.ToUpper(s[off:off+l]) != w {
			return 0, false
		}
		off += l
	}
	return off, true
}

// wordLen returns the byte length of the identifier-character run at s.
func wordLen(s string, isIdent func(rune) bool) int {
	n := 0
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if !isIdent(r) {
			break
		}
		n += size
	}
	return n
}

func spaceLen(s string) int {
	n := 0
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if !unicode.IsSpace(r) {
			break
		}
		n += size
	}
	return n
}

// quoteStyle is a compiled string or quoted identifier style.
type quoteStyle struct {
	name      string
	prefix    string // N, X, B, E, U& (upper-case); empty for none
	open      byte
	close     byte
	backslash bool // \ escapes the next character
	dollar    bool // $tag$ ... $tag$
}

func compileQuote(style string) quoteStyle {
	style = strings.ToUpper(style)
	if style == dialect.QuoteDollar {
		return quoteStyle{name: style, dollar: true}
	}
	q := quoteStyle{
		name:   style,
		prefix: style[:len(style)-2],
		open:   style[len(style)-2],
		close:  style[len(style)-1],
	}
	switch style {
	case dialect.QuoteSingle, dialect.QuoteDouble, dialect.QuoteBacktick, dialect.QuoteEscape:
		q.backslash = true
	}
	return q
}

// match scans a quoted literal at the start of s. It returns the literal
// length and its unquoted value. unterminated is set when the opening
// delimiter matched but no closing delimiter follows.
func (q quoteStyle) match(s string) (n int, value string, ok, unterminated bool) {
	if q.dollar {
		return matchDollar(s)
	}
	start := len(q.prefix)
	if len(s) <= start || s[start] != q.open || !strings.EqualFold(s[:start], q.prefix) {
		return 0, "", false, false
	}

	var b strings.Builder
	for i := start + 1; i < len(s); {
		c := s[i]
		switch {
		case q.backslash && c == '\\' && i+1 < len(s):
			next := s[i+1]
			if next != q.close && next != '\\' {
				b.WriteByte(c)
			}
			b.WriteByte(next)
			i += 2
		case c == q.close:
			if i+1 < len(s) && s[i+1] == q.close {
				b.WriteByte(c)
				i += 2
				continue
			}
			return i + 1, b.String(), true, false
		default:
			b.WriteByte(c)
			i++
		}
	}
	return 0, "", true, true
}

// matchDollar scans a PostgreSQL dollar-quoted string ($$...$$ or $tag$...$tag$).
func matchDollar(s string) (int, string, bool, bool) {
	if len(s) < 2 || s[0] != '$' {
		return 0, "", false, false
	}
	i := 1
	for i < len(s) && (s[i] == '_' || isASCIILetter(s[i]) || (i > 1 && isDigit(s[i]))) {
		i++
	}
	if i >= len(s) || s[i] != '$' {
		return 0, "", false, false
	}
	delim := s[:i+1]
	end := strings.Index(s[len(delim):], delim)
	if end < 0 {
		return 0, "", true, true
	}
	return 2*len(delim) + end, s[len(delim) : len(delim)+end], true, false
}

// parenMarker is a compiled bracket marker. Word markers (CASE/END style)
// match case-insensitively on word boundaries.
type parenMarker struct {
	text string
	typ  token.Type
	word bool
}

func compileParens(cfg dialect.Config) []parenMarker {
	var out []parenMarker
	add := func(m string, typ token.Type) {
		out = append(out, parenMarker{text: m, typ: typ, word: isWord(m)})
	}
	for _, m := range cfg.OpenParens {
		add(m, token.OPEN_PAREN)
	}
	for _, m := range cfg.CloseParens {
		add(m, token.CLOSE_PAREN)
	}
	slices.SortStableFunc(out, func(a, b parenMarker) int { return len(b.text) - len(a.text) })
	return out
}

func (m parenMarker) match(s string, isIdent func(rune) bool) bool {
	if m.word {
		n := wordLen(s, isIdent)
		return n == len(m.text) && strings.EqualFold(s[:n], m.text)
	}
	return strings.HasPrefix(s, m.text)
}

// scanNumber returns the length of the numeric literal at s, or 0. A
// literal that runs into identifier characters is not a number.
func scanNumber(s string, leadingDot bool, isIdent func(rune) bool) int {
	if len(s) > 2 && s[0] == '0' {
		var digit func(byte) bool
		switch s[1] {
		case 'x', 'X':
			digit = isHexDigit
		case 'b', 'B':
			digit = func(c byte) bool { return c == '0' || c == '1' }
		}
		if digit != nil {
			n := 2 + countBytes(s[2:], digit)
			if n > 2 && !identFollows(s[n:], isIdent) {
				return n
			}
		}
	}

	i := countBytes(s, isDigit)
	if i < len(s) && s[i] == '.' && (i > 0 || leadingDot) {
		frac := countBytes(s[i+1:], isDigit)
		switch {
		case frac > 0:
			i += 1 + frac
		case i > 0 && !identFollows(s[i+1:], isIdent):
			i++ // 1.
		}
	}
	if i == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if d := countBytes(s[j:], isDigit); d > 0 {
			i = j + d
		}
	}
	if identFollows(s[i:], isIdent) {
		return 0
	}
	return i
}

func identFollows(s string, isIdent func(rune) bool) bool {
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return isIdent(r)
}

func countBytes(s string, pred func(byte) bool) int {
	n := 0
	for n < len(s) && pred(s[n]) {
		n++
	}
	return n
}

func isDigit(c byte) bool       { return c >= '0' && c <= '9' }
func isASCIILetter(c byte) bool { return (c|0x20) >= 'a' && (c|0x20) <= 'z' }
func isHexDigit(c byte) bool    { return isDigit(c) || ((c|0x20) >= 'a' && (c|0x20) <= 'f') }

func isWord(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }) < 0
}
