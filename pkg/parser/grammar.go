package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// BuildFunc builds the value of a completed rule from the values of its
// symbols: token.Token for terminals, the nonterminal's built value otherwise.
type BuildFunc func(children []any) any

// Rule is one production: Name -> Symbols.
type Rule struct {
	Name    string
	Symbols []Symbol
	Build   BuildFunc // nil returns the children slice
}

// Grammar is a set of rules and the name of the start nonterminal.
type Grammar struct {
	Start string
	Rules []Rule
}

// Symbol is either a reference to a nonterminal or a terminal.
type Symbol struct {
	ref  string
	term *Terminal
}

// Ref returns a symbol referring to the nonterminal name.
func Ref(name string) Symbol {
	return Symbol{ref: name}
}

// Term returns a terminal symbol.
func Term(t Terminal) Symbol {
	return Symbol{term: &t}
}

// IsTerminal reports whether s is a terminal.
func (s Symbol) IsTerminal() bool {
	return s.term != nil
}

func (s Symbol) String() string {
	if s.term != nil {
		return s.term.String()
	}
	return s.ref
}

type followKind int

const (
	followAny followKind = iota
	followAdjacent
	followNotAdjacent
)

// Follow constrains the token after a terminal.
type Follow struct {
	kind followKind
	text string
}

// FollowAny places no constraint on the next token.
var FollowAny = Follow{}

// FollowAdjacent requires the next token to be text with no whitespace
// before it.
func FollowAdjacent(text string) Follow {
	return Follow{kind: followAdjacent, text: text}
}

// FollowNotAdjacent rejects exactly what FollowAdjacent(text) accepts.
func FollowNotAdjacent(text string) Follow {
	return Follow{kind: followNotAdjacent, text: text}
}

// Allows reports whether next (ok is false at end of input) satisfies f.
func (f Follow) Allows(next token.Token, ok bool) bool {
	adjacent := ok && next.WhitespaceBefore == "" && next.Value == f.text
	switch f.kind {
	case followAdjacent:
		return adjacent
	case followNotAdjacent:
		return !adjacent
	default:
		return true
	}
}

// Terminal matches one token.
type Terminal struct {
	Name   string       // shown in diagnostics
	Types  []token.Type // empty matches any type
	Texts  []string     // empty matches any value; compared case-insensitively
	Follow Follow
}

// Matches reports whether tok is accepted, ignoring the follow constraint.
func (t Terminal) Matches(tok token.Token) bool {
	if len(t.Types) > 0 && !containsType(t.Types, tok.Type) {
		return false
	}
	if len(t.Texts) == 0 {
		return true
	}
	for _, s := range t.Texts {
		if strings.EqualFold(s, tok.Value) {
			return true
		}
	}
	return false
}

func (t Terminal) String() string {
	if t.Name != "" {
		return t.Name
	}
	if len(t.Texts) > 0 {
		return fmt.Sprintf("%q", strings.Join(t.Texts, "|"))
	}
	names := make([]string, len(t.Types))
	for i, typ := range t.Types {
		names[i] = typ.String()
	}
	return strings.Join(names, "|")
}

func containsType(types []token.Type, typ token.Type) bool {
	for _, t := range types {
		if t == typ {
			return true
		}
	}
	return false
}

// ErrInvalidGrammar is matched by errors returned from Grammar.Validate.
var ErrInvalidGrammar = errors.New("invalid grammar")

// Validate checks that the start symbol and every reference are defined.
func (g Grammar) Validate() error {
	defined := make(map[string]bool, len(g.Rules))
	for _, r := range g.Rules {
		defined[r.Name] = true
	}

	var problems []error
	if !defined[g.Start] {
		problems = append(problems, fmt.Errorf("%w: start symbol %q has no rules", ErrInvalidGrammar, g.Start))
	}
	for _, r := range g.Rules {
		if r.Name == "" {
			problems = append(problems, fmt.Errorf("%w: rule with empty name", ErrInvalidGrammar))
		}
		for _, s := range r.Symbols {
			if !s.IsTerminal() && !defined[s.ref] {
				problems = append(problems, fmt.Errorf("%w: rule %s references undefined %q", ErrInvalidGrammar, r.Name, s.ref))
			}
		}
	}
	return errors.Join(problems...)
}

func (r Rule) String() string {
	parts := make([]string, len(r.Symbols))
	for i, s := range r.Symbols {
		parts[i] = s.String()
	}
	if len(parts) == 0 {
		return r.Name + " -> ε"
	}
	return r.Name + " -> " + strings.Join(parts, " ")
}
