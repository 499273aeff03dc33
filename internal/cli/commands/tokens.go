package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlcst/internal/cli/output"
	"github.com/leapstack-labs/sqlcst/pkg/lexer"
	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// TokenRow is one token in structured output.
type TokenRow struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Type   string `json:"type"`
	Text   string `json:"text"`
	Value  string `json:"value"`
}

// TokensOutput is the structured output of the tokens command.
type TokensOutput struct {
	Tokens   []TokenRow `json:"tokens"`
	Comments []TokenRow `json:"comments,omitempty"`
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	var showComments bool

	cmd := &cobra.Command{
		Use:   "tokens [file|-]",
		Short: "Print the tokens of a SQL file",
		Long: `Tokenize SQL with the configured dialect and print one row per token.

Reads standard input when no file is given or the file is "-".`,
		Example: `  sqlcst tokens query.sql
  echo "SELECT a FROM t" | sqlcst tokens -d postgresql
  sqlcst tokens query.sql --comments -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, args, showComments)
		},
	}

	cmd.Flags().BoolVar(&showComments, "comments", false, "Also list comments")
	return cmd
}

func runTokens(cmd *cobra.Command, args []string, showComments bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	_, src, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	tz, err := lexer.New(cmdCtx.Dialect)
	if err != nil {
		return err
	}
	res, err := tz.Lex(string(src))
	if err != nil {
		return err
	}

	out := TokensOutput{Tokens: tokenRows(res.Tokens)}
	if showComments {
		for _, c := range res.Comments {
			out.Comments = append(out.Comments, TokenRow{
				Line:   c.Span.Start.Line,
				Column: c.Span.Start.Column,
				Type:   c.Kind.Type().String(),
				Text:   c.Text,
				Value:  c.Text,
			})
		}
	}
	return renderTokens(cmdCtx.Renderer, out)
}

func tokenRows(toks []token.Token) []TokenRow {
	rows := make([]TokenRow, len(toks))
	for i, t := range toks {
		rows[i] = TokenRow{
			Line:   t.Pos.Line,
			Column: t.Pos.Column,
			Type:   t.Type.String(),
			Text:   t.Text,
			Value:  t.Value,
		}
	}
	return rows
}

func renderTokens(r *output.Renderer, out TokensOutput) error {
	if wrote, err := r.Structured(out); wrote || err != nil {
		return err
	}

	r.Table([]string{"pos", "type", "text", "value"}, tableRows(out.Tokens))
	if len(out.Comments) > 0 {
		r.Println()
		r.Header(2, "Comments")
		r.Table([]string{"pos", "type", "text"}, commentRows(out.Comments))
	}
	r.Muted(fmt.Sprintf("%d tokens", len(out.Tokens)))
	return nil
}

func tableRows(rows []TokenRow) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = []any{fmt.Sprintf("%d:%d", row.Line, row.Column), row.Type, fmt.Sprintf("%q", row.Text), row.Value}
	}
	return out
}

func commentRows(rows []TokenRow) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = []any{fmt.Sprintf("%d:%d", row.Line, row.Column), row.Type, fmt.Sprintf("%q", row.Text)}
	}
	return out
}
