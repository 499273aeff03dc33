package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlcst/internal/cli/output"
	"github.com/leapstack-labs/sqlcst/pkg/dialect"
	"github.com/leapstack-labs/sqlcst/pkg/format"
	"github.com/leapstack-labs/sqlcst/pkg/parser"
)

const (
	replPrompt     = "sqlcst> "
	replContPrompt = "    ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Parse SQL interactively",
		Long: `Start an interactive session that parses each statement as it is entered.

Input is collected until a line ends with a semicolon, then the tree is
printed. Type .help for the available dot-commands.`,
		Args: cobra.NoArgs,
		RunE: runREPL,
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeText)
	session, err := newREPLSession(r, cmdCtx.Logger, cmdCtx.Dialect)
	if err != nil {
		return err
	}

	historyFile := ""
	if !cmdCtx.Cfg.NoCache {
		dir := filepath.Dir(cmdCtx.Cfg.CachePath)
		if err := os.MkdirAll(dir, 0750); err == nil {
			historyFile = filepath.Join(dir, "repl_history")
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newDotCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           readline.NewCancelableStdin(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Printf("sqlcst REPL (dialect: %s)\n", cmdCtx.Dialect.Name)
	r.Println("Type .help for commands, .quit to exit")
	r.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			session.Interrupt()
			rl.SetPrompt(session.Prompt())
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if quit := session.HandleLine(line); quit {
			break
		}
		rl.SetPrompt(session.Prompt())
	}
	return nil
}

// replSession holds the state of an interactive session: the dialect in
// use and any statement still being typed.
type replSession struct {
	r          *output.Renderer
	logger     *slog.Logger
	dialect    dialect.Config
	parser     *parser.Parser
	showTokens bool
	buf        strings.Builder
}

func newREPLSession(r *output.Renderer, logger *slog.Logger, d dialect.Config) (*replSession, error) {
	s := &replSession{r: r, logger: logger}
	if err := s.setDialect(d); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *replSession) setDialect(d dialect.Config) error {
	p, err := parser.New(d, parser.WithLogger(s.logger))
	if err != nil {
		return err
	}
	s.dialect = d
	s.parser = p
	return nil
}

// Prompt returns the prompt for the next line.
func (s *replSession) Prompt() string {
	if s.buf.Len() > 0 {
		return replContPrompt
	}
	return replPrompt
}

// Interrupt drops a partially entered statement.
func (s *replSession) Interrupt() {
	s.buf.Reset()
}

// HandleLine processes one input line and reports whether the session
// should end.
func (s *replSession) HandleLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if s.buf.Len() == 0 {
		if trimmed == "" {
			return false
		}
		if strings.HasPrefix(trimmed, ".") {
			return s.handleDotCommand(trimmed)
		}
	} else {
		s.buf.WriteString("\n")
	}

	// Accumulate multi-line SQL until semicolon
	s.buf.WriteString(line)
	if !strings.HasSuffix(trimmed, ";") {
		return false
	}

	src := s.buf.String()
	s.buf.Reset()
	s.evaluate(src)
	s.r.Println()
	return false
}

func (s *replSession) evaluate(src string) {
	if s.showTokens {
		toks, err := s.parser.Tokenizer().Tokenize(src)
		if err != nil {
			s.r.Error(err)
			return
		}
		if err := renderTokens(s.r, TokensOutput{Tokens: tokenRows(toks)}); err != nil {
			s.r.Error(err)
			return
		}
	}

	doc, err := s.parser.ParseString(src)
	if err != nil {
		s.r.Error(err)
		return
	}
	s.r.Printf("%s", format.Tree(doc.Statements))
}

func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.r.Writer())

	case ".tokens":
		switch {
		case len(parts) == 1:
			s.showTokens = !s.showTokens
		case strings.EqualFold(parts[1], "on"):
			s.showTokens = true
		case strings.EqualFold(parts[1], "off"):
			s.showTokens = false
		default:
			s.r.Warning("usage: .tokens [on|off]")
			return false
		}
		s.r.Muted(fmt.Sprintf("token listing %s", onOff(s.showTokens)))

	case ".dialect":
		if len(parts) == 1 {
			s.r.KeyValue("dialect", s.dialect.Name)
			return false
		}
		d, err := dialect.Lookup(parts[1])
		if err != nil {
			s.r.Error(err)
			return false
		}
		if err := s.setDialect(d); err != nil {
			s.r.Error(err)
			return false
		}
		s.r.Success("dialect " + d.Name)

	case ".dialects":
		for _, name := range dialect.List() {
			if strings.EqualFold(name, s.dialect.Name) {
				s.r.Println("* " + name)
			} else {
				s.r.Println("  " + name)
			}
		}

	default:
		s.r.Warning(fmt.Sprintf("unknown command: %s (type .help for commands)", command))
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .tokens [on|off]  Toggle the token listing before each tree
  .dialect [name]   Show or switch the dialect
  .dialects         List the built-in dialects
  .quit / .exit     Exit the REPL

Tips:
  - Statements are parsed when a line ends with a semicolon (;)
  - Ctrl+C discards the statement being typed
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

// newDotCompleter completes dot-commands and dialect names.
func newDotCompleter() *readline.PrefixCompleter {
	var names []readline.PrefixCompleterInterface
	for _, name := range dialect.List() {
		names = append(names, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".tokens", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem(".dialect", names...),
		readline.PcItem(".dialects"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
