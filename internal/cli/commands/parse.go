package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlcst/internal/cli/output"
	"github.com/leapstack-labs/sqlcst/pkg/cst"
	"github.com/leapstack-labs/sqlcst/pkg/format"
	"github.com/leapstack-labs/sqlcst/pkg/parser"
)

// ErrRoundTrip is returned when rendering a tree does not reproduce its
// source text.
var ErrRoundTrip = errors.New("round trip mismatch")

// ParseOutput is the structured output of the parse command.
type ParseOutput struct {
	Statements []*cst.Statement `json:"statements"`
	Trailing   string           `json:"trailing"`
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	var checkRoundTrip bool

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Print the concrete syntax tree of a SQL file",
		Long: `Parse SQL with the configured dialect and print its concrete syntax tree.

Text output is an indented outline with one line per node. JSON and YAML
output carry every token, including its leading whitespace.

Reads standard input when no file is given or the file is "-".`,
		Example: `  sqlcst parse query.sql
  sqlcst parse query.sql -o yaml
  cat query.sql | sqlcst parse --check-roundtrip`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, checkRoundTrip)
		},
	}

	cmd.Flags().BoolVar(&checkRoundTrip, "check-roundtrip", false, "Fail unless the tree renders back to the exact input")
	return cmd
}

func runParse(cmd *cobra.Command, args []string, checkRoundTrip bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	name, src, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	p, err := parser.New(cmdCtx.Dialect, parser.WithLogger(cmdCtx.Logger))
	if err != nil {
		return err
	}
	doc, err := p.ParseString(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	cmdCtx.Logger.Debug("parsed input",
		slog.String("input", name),
		slog.Int("statements", len(doc.Statements)))

	if checkRoundTrip {
		if err := verifyRoundTrip(doc, string(src)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return renderDocument(cmdCtx.Renderer, doc, checkRoundTrip)
}

// verifyRoundTrip checks that doc renders back to src byte for byte.
func verifyRoundTrip(doc *cst.Document, src string) error {
	got := format.Source(doc)
	if got == src {
		return nil
	}
	n := min(len(got), len(src))
	at := n
	for i := 0; i < n; i++ {
		if got[i] != src[i] {
			at = i
			break
		}
	}
	return fmt.Errorf("%w at byte %d", ErrRoundTrip, at)
}

func renderDocument(r *output.Renderer, doc *cst.Document, roundTripped bool) error {
	out := ParseOutput{Statements: doc.Statements, Trailing: doc.Trailing}
	if out.Statements == nil {
		out.Statements = []*cst.Statement{}
	}
	if wrote, err := r.Structured(out); wrote || err != nil {
		return err
	}

	if tree := format.Tree(doc.Statements); tree != "" {
		r.Printf("%s", tree)
	}
	r.Muted(fmt.Sprintf("%d statements", len(doc.Statements)))
	if roundTripped {
		r.Success("round trip ok")
	}
	return nil
}
