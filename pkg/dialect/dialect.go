// Package dialect provides the tokenizer configuration for SQL dialects.
//
// A dialect is pure data: which words are reserved and in which category,
// which bracket pairs exist, and which quoting styles delimit strings and
// identifiers. Concrete dialects are registered from builtin.go or loaded
// from YAML/TOML files.
package dialect

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// Quote styles understood by the tokenizer.
const (
	QuoteSingle    = "''"
	QuoteDouble    = `""`
	QuoteBacktick  = "``"
	QuoteBracket   = "[]"
	QuoteBrace     = "{}"
	QuoteNational  = "N''"
	QuoteHex       = "X''"
	QuoteBit       = "B''"
	QuoteEscape    = "E''"
	QuoteUnicode   = "U&''"
	QuoteDollar    = "$$"
	DefaultComment = "--"
)

// knownQuotes lists every quote style in the order the tokenizer tries them.
// Prefixed styles come first so N'x' is never read as identifier N.
var knownQuotes = []string{
	QuoteUnicode, QuoteNational, QuoteHex, QuoteBit, QuoteEscape,
	QuoteDollar, QuoteSingle, QuoteDouble, QuoteBacktick, QuoteBracket, QuoteBrace,
}

// KnownQuoteStyles returns the supported quote styles.
func KnownQuoteStyles() []string {
	return slices.Clone(knownQuotes)
}

// IsKnownQuoteStyle reports whether style is a supported quote style.
func IsKnownQuoteStyle(style string) bool {
	return slices.Contains(knownQuotes, strings.ToUpper(style))
}

// Config is the tokenizer configuration of one dialect.
//
// A Config produced by Builder.Build, Get or LoadFile shares no slices with
// any other value, so callers may keep it without copying.
type Config struct {
	Name    string `koanf:"name" yaml:"name"`
	Extends string `koanf:"extends" yaml:"extends,omitempty"`

	ReservedCommands         []string `koanf:"reserved_commands" yaml:"reserved_commands"`
	ReservedDependentClauses []string `koanf:"reserved_dependent_clauses" yaml:"reserved_dependent_clauses"`
	ReservedBinaryCommands   []string `koanf:"reserved_binary_commands" yaml:"reserved_binary_commands"`
	ReservedJoins            []string `koanf:"reserved_joins" yaml:"reserved_joins"`
	ReservedJoinConditions   []string `koanf:"reserved_join_conditions" yaml:"reserved_join_conditions"`
	ReservedKeywords         []string `koanf:"reserved_keywords" yaml:"reserved_keywords"`

	OpenParens  []string `koanf:"open_parens" yaml:"open_parens"`
	CloseParens []string `koanf:"close_parens" yaml:"close_parens"`

	StringTypes      []string `koanf:"string_types" yaml:"string_types"`
	IdentTypes       []string `koanf:"ident_types" yaml:"ident_types"`
	LineCommentTypes []string `koanf:"line_comment_types" yaml:"line_comment_types,omitempty"`
	Operators        []string `koanf:"operators" yaml:"operators,omitempty"`
	ExtraIdentChars  string   `koanf:"extra_ident_chars" yaml:"extra_ident_chars,omitempty"`
}

// ParenPair is one configured bracket style.
type ParenPair struct {
	Open  string
	Close string
}

// Category couples a reserved token type with the phrases that produce it.
type Category struct {
	Type    token.Type
	Phrases []string
}

// Clone returns a deep copy of the config.
func (c Config) Clone() Config {
	out := c
	out.ReservedCommands = slices.Clone(c.ReservedCommands)
	out.ReservedDependentClauses = slices.Clone(c.ReservedDependentClauses)
	out.ReservedBinaryCommands = slices.Clone(c.ReservedBinaryCommands)
	out.ReservedJoins = slices.Clone(c.ReservedJoins)
	out.ReservedJoinConditions = slices.Clone(c.ReservedJoinConditions)
	out.ReservedKeywords = slices.Clone(c.ReservedKeywords)
	out.OpenParens = slices.Clone(c.OpenParens)
	out.CloseParens = slices.Clone(c.CloseParens)
	out.StringTypes = slices.Clone(c.StringTypes)
	out.IdentTypes = slices.Clone(c.IdentTypes)
	out.LineCommentTypes = slices.Clone(c.LineCommentTypes)
	out.Operators = slices.Clone(c.Operators)
	return out
}

// ReservedCategories returns the reserved phrase sets in tokenizer priority
// order: phrase categories first, keywords last.
func (c Config) ReservedCategories() []Category {
	return []Category{
		{Type: token.RESERVED_COMMAND, Phrases: c.ReservedCommands},
		{Type: token.RESERVED_BINARY_COMMAND, Phrases: c.ReservedBinaryCommands},
		{Type: token.RESERVED_DEPENDENT_CLAUSE, Phrases: c.ReservedDependentClauses},
		{Type: token.RESERVED_JOIN, Phrases: c.ReservedJoins},
		{Type: token.RESERVED_JOIN_CONDITION, Phrases: c.ReservedJoinConditions},
		{Type: token.RESERVED_KEYWORD, Phrases: c.ReservedKeywords},
	}
}

// ParenPairs returns the configured bracket pairs in declaration order.
// Pairs are only meaningful on a config that passed Validate.
func (c Config) ParenPairs() []ParenPair {
	n := min(len(c.OpenParens), len(c.CloseParens))
	pairs := make([]ParenPair, n)
	for i := range n {
		pairs[i] = ParenPair{Open: c.OpenParens[i], Close: c.CloseParens[i]}
	}
	return pairs
}


// CommentMarkers returns the line comment markers, defaulting to "--".
func (c Config) CommentMarkers() []string {
	if len(c.LineCommentTypes) == 0 {
		return []string{DefaultComment}
	}
	return slices.Clone(c.LineCommentTypes)
}

// NormalizePhrase upper-cases a reserved phrase and collapses any whitespace
// run between its words into a single space.
func NormalizePhrase(p string) string {
	return strings.Join(strings.Fields(strings.ToUpper(p)), " ")
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	cfg Config
}

// NewDialect creates a new dialect builder with the given name.
func NewDialect(name string) *Builder {
	return &Builder{cfg: Config{Name: name}}
}

// Extend creates a builder that starts from a copy of base. The result keeps
// the base name until Name is called.
func Extend(base Config) *Builder {
	cfg := base.Clone()
	cfg.Extends = base.Name
	return &Builder{cfg: cfg}
}

// Name sets the dialect name.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Commands adds reserved commands (SELECT, GROUP BY, ...).
func (b *Builder) Commands(phrases ...string) *Builder {
	b.cfg.ReservedCommands = append(b.cfg.ReservedCommands, phrases...)
	return b
}

// DependentClauses adds clauses that attach to an enclosing command (WHEN, ELSE).
func (b *Builder) DependentClauses(phrases ...string) *Builder {
	b.cfg.ReservedDependentClauses = append(b.cfg.ReservedDependentClauses, phrases...)
	return b
}

// BinaryCommands adds commands that join two statements (UNION, EXCEPT).
func (b *Builder) BinaryCommands(phrases ...string) *Builder {
	b.cfg.ReservedBinaryCommands = append(b.cfg.ReservedBinaryCommands, phrases...)
	return b
}

// Joins adds join phrases (JOIN, LEFT OUTER JOIN).
func (b *Builder) Joins(phrases ...string) *Builder {
	b.cfg.ReservedJoins = append(b.cfg.ReservedJoins, phrases...)
	return b
}

// JoinConditions adds join condition words (ON, USING).
func (b *Builder) JoinConditions(phrases ...string) *Builder {
	b.cfg.ReservedJoinConditions = append(b.cfg.ReservedJoinConditions, phrases...)
	return b
}

// Keywords adds operator-like reserved words (BETWEEN, LIKE).
func (b *Builder) Keywords(words ...string) *Builder {
	b.cfg.ReservedKeywords = append(b.cfg.ReservedKeywords, words...)
	return b
}

// Without removes phrases from every reserved category.
func (b *Builder) Without(phrases ...string) *Builder {
	drop := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		drop[NormalizePhrase(p)] = struct{}{}
	}
	keep := func(list []string) []string {
		return slices.DeleteFunc(list, func(p string) bool {
			_, ok := drop[NormalizePhrase(p)]
			return ok
		})
	}
	b.cfg.ReservedCommands = keep(b.cfg.ReservedCommands)
	b.cfg.ReservedDependentClauses = keep(b.cfg.ReservedDependentClauses)
	b.cfg.ReservedBinaryCommands = keep(b.cfg.ReservedBinaryCommands)
	b.cfg.ReservedJoins = keep(b.cfg.ReservedJoins)
	b.cfg.ReservedJoinConditions = keep(b.cfg.ReservedJoinConditions)
	b.cfg.ReservedKeywords = keep(b.cfg.ReservedKeywords)
	return b
}

// Parens adds a bracket pair.
func (b *Builder) Parens(open, close string) *Builder {
	b.cfg.OpenParens = append(b.cfg.OpenParens, open)
	b.cfg.CloseParens = append(b.cfg.CloseParens, close)
	return b
}

// Strings adds string literal quote styles.
func (b *Builder) Strings(styles ...string) *Builder {
	b.cfg.StringTypes = append(b.cfg.StringTypes, styles...)
	return b
}

// Idents adds quoted identifier styles.
func (b *Builder) Idents(styles ...string) *Builder {
	b.cfg.IdentTypes = append(b.cfg.IdentTypes, styles...)
	return b
}

// LineComments sets the line comment markers.
func (b *Builder) LineComments(markers ...string) *Builder {
	b.cfg.LineCommentTypes = append(b.cfg.LineCommentTypes, markers...)
	return b
}

// Operators adds multi-character operators (::, ->>, <=>).
func (b *Builder) Operators(ops ...string) *Builder {
	b.cfg.Operators = append(b.cfg.Operators, ops...)
	return b
}

// ExtraIdentChars adds characters allowed inside bare identifiers.
func (b *Builder) ExtraIdentChars(chars string) *Builder {
	b.cfg.ExtraIdentChars += chars
	return b
}

// Build returns the constructed config. Reserved phrases are normalized and
// de-duplicated within their category; the builder may be reused afterwards
// without affecting the returned value.
func (b *Builder) Build() Config {
	out := b.cfg.Clone()
	out.ReservedCommands = normalizePhrases(out.ReservedCommands)
	out.ReservedDependentClauses = normalizePhrases(out.ReservedDependentClauses)
	out.ReservedBinaryCommands = normalizePhrases(out.ReservedBinaryCommands)
	out.ReservedJoins = normalizePhrases(out.ReservedJoins)
	out.ReservedJoinConditions = normalizePhrases(out.ReservedJoinConditions)
	out.ReservedKeywords = normalizePhrases(out.ReservedKeywords)
	out.StringTypes = normalizeQuotes(out.StringTypes)
	out.IdentTypes = normalizeQuotes(out.IdentTypes)
	out.Operators = dedupe(trimAll(out.Operators))
	return out
}

func normalizePhrases(list []string) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, NormalizePhrase(p))
	}
	return dedupe(out)
}

func normalizeQuotes(list []string) []string {
	out := make([]string, 0, len(list))
	for _, q := range list {
		out = append(out, strings.ToUpper(strings.TrimSpace(q)))
	}
	return dedupe(out)
}

func trimAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

// dedupe removes repeated entries keeping first occurrences in order.
func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
