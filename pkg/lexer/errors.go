package lexer

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// ErrLex is matched by every *LexError.
var ErrLex = errors.New("lexer error")

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Is reports whether target is ErrLex.
func (e *LexError) Is(target error) bool {
	return target == ErrLex
}

// Common error messages
const (
	errUnterminatedString = "unterminated %s literal starting with %q"
	errUnexpectedChar     = "unexpected character %q"
)
