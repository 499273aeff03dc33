package token

// CommentKind distinguishes line vs block comments.
type CommentKind int

// Comment kinds.
const (
	LineComment  CommentKind = iota // -- comment
	BlockComment                    // /* comment */
)

// Type returns the token category a comment of this kind belongs to.
func (k CommentKind) Type() Type {
	if k == BlockComment {
		return BLOCK_COMMENT
	}
	return LINE_COMMENT
}

// Comment is a SQL comment found while collecting the whitespace in front of
// a token. The comment text is also part of that token's WhitespaceBefore.
type Comment struct {
	Kind CommentKind
	Text string // includes delimiters (-- or /* */)
	Span Span
}

// IsLineComment returns true if this is a line comment.
func (c *Comment) IsLineComment() bool {
	return c.Kind == LineComment
}

// IsBlockComment returns true if this is a block comment.
func (c *Comment) IsBlockComment() bool {
	return c.Kind == BlockComment
}
