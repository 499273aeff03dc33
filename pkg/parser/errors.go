package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// Sentinels matched by errors.Is.
var (
	ErrSyntax    = errors.New("syntax error")
	ErrAmbiguous = errors.New("ambiguous grammar")
)

// maxExpected caps the expectations listed in a syntax error message.
const maxExpected = 8

// SyntaxError is returned when no derivation consumes the whole input. It
// points at the furthest token any derivation reached.
type SyntaxError struct {
	Pos      token.Position
	Index    int          // token index; equals the token count at end of input
	Found    *token.Token // nil at end of input
	Expected []string
}

func (e *SyntaxError) Error() string {
	var msg string
	if e.Found != nil {
		msg = fmt.Sprintf("unexpected %s %q", e.Found.Type, e.Found.Text)
	} else {
		msg = "unexpected end of input"
	}
	if len(e.Expected) > 0 {
		exp := e.Expected
		more := ""
		if len(exp) > maxExpected {
			exp, more = exp[:maxExpected], ", ..."
		}
		msg += fmt.Sprintf(", expected %s%s", strings.Join(exp, ", "), more)
	}
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, msg)
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// AmbiguousGrammarError is returned when the input has more than one
// derivation. It is never resolved by picking one of them.
type AmbiguousGrammarError struct {
	Start  string
	Tokens int
}

func (e *AmbiguousGrammarError) Error() string {
	return fmt.Sprintf("ambiguous grammar: %d tokens have more than one derivation of %s", e.Tokens, e.Start)
}

// Is reports whether target is ErrAmbiguous.
func (e *AmbiguousGrammarError) Is(target error) bool {
	return target == ErrAmbiguous
}
