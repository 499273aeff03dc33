package dialect

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// ErrInvalidConfig is matched by every error returned from Validate.
var ErrInvalidConfig = errors.New("invalid dialect configuration")

// ConfigError collects every problem found in one dialect configuration.
type ConfigError struct {
	Dialect  string
	Problems []error
}

func (e *ConfigError) Error() string {
	name := e.Dialect
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("invalid dialect %q: %v", name, errors.Join(e.Problems...))
}

// Unwrap exposes ErrInvalidConfig and the individual problems to errors.Is.
func (e *ConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.Problems...)
}

// Validate checks the structural invariants of the config. Overlapping
// reserved categories are reported, never resolved: a word that is both a
// command and a keyword would make every parse of it ambiguous.
func (c Config) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	// Parenthesis pairs
	switch {
	case len(c.OpenParens) == 0:
		add("at least one parenthesis pair is required")
	case len(c.OpenParens) != len(c.CloseParens):
		add("open_parens has %d entries but close_parens has %d", len(c.OpenParens), len(c.CloseParens))
	}
	markers := make(map[string]string)
	checkMarker := func(kind, m string) {
		if strings.TrimSpace(m) == "" {
			add("%s marker must not be empty", kind)
			return
		}
		key := strings.ToUpper(m)
		if prev, ok := markers[key]; ok {
			add("parenthesis marker %q used as both %s and %s", m, prev, kind)
			return
		}
		markers[key] = kind
	}
	for i, m := range c.OpenParens {
		checkMarker(fmt.Sprintf("open paren #%d", i+1), m)
	}
	for i, m := range c.CloseParens {
		checkMarker(fmt.Sprintf("close paren #%d", i+1), m)
	}

	// Quote styles
	quoteOwner := make(map[string]string)
	checkQuotes := func(kind string, styles []string) {
		for _, s := range styles {
			if !IsKnownQuoteStyle(s) {
				add("unknown %s quote style %q", kind, s)
				continue
			}
			norm := strings.ToUpper(s)
			if prev, ok := quoteOwner[norm]; ok {
				add("quote style %q used for both %s and %s", s, prev, kind)
				continue
			}
			quoteOwner[norm] = kind
			if owner, ok := markers[s[:1]]; ok && !isPrefixed(norm) {
				add("quote style %q opens with %s marker %q", s, owner, s[:1])
			}
		}
	}
	checkQuotes("string", c.StringTypes)
	checkQuotes("identifier", c.IdentTypes)

	for _, m := range c.LineCommentTypes {
		if strings.TrimSpace(m) == "" {
			add("line comment marker must not be empty")
		}
	}
	for _, op := range c.Operators {
		if op == "" || strings.ContainsFunc(op, unicode.IsSpace) {
			add("operator %q must be non-empty and contain no whitespace", op)
		}
	}

	// Reserved categories
	owner := make(map[string]token.Type)
	for _, cat := range c.ReservedCategories() {
		for _, p := range cat.Phrases {
			norm := NormalizePhrase(p)
			if norm == "" {
				add("empty phrase in %s", cat.Type)
				continue
			}
			if prev, ok := owner[norm]; ok && prev != cat.Type {
				add("phrase %q is reserved as both %s and %s", norm, prev, cat.Type)
				continue
			}
			owner[norm] = cat.Type
			if kind, ok := markers[norm]; ok {
				add("phrase %q is reserved as %s and used as %s marker", norm, cat.Type, kind)
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &ConfigError{Dialect: c.Name, Problems: problems}
}

// isPrefixed reports whether the quote style starts with a letter prefix
// (N'', U&'') rather than with its delimiter.
func isPrefixed(style string) bool {
	return len(style) > 0 && unicode.IsLetter(rune(style[0]))
}
