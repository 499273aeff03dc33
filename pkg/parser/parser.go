// Package parser builds a concrete syntax tree from SQL tokens.
//
// # Usage
//
//	cfg := dialect.MustGet("postgresql")
//	doc, err := parser.ParseString(cfg, "SELECT a FROM t; SELECT b")
//	if err != nil {
//	    // *lexer.LexError, *parser.SyntaxError or *parser.AmbiguousGrammarError
//	}
//
// A Parser compiles the tokenizer and grammar once and can be reused:
//
//	p, err := parser.New(cfg, parser.WithLogger(logger))
//	stmts, err := p.Parse(tokens)
//
// # Grammar Overview
//
// The grammar is data (see SQLGrammar) run by an Earley engine that tracks
// every derivation at once. The input must have exactly one derivation:
//
//	main        → stmts [final]
//	stmts       → { body ";" }
//	body        → { expression } { clause }
//	clause      → (RESERVED_COMMAND | RESERVED_BINARY_COMMAND) { expression }
//	expression  → array_subscript | parenthesis | token
//	parenthesis → OPEN body CLOSE              (markers of one configured pair)
//	array_subscript → IDENTIFIER "[" body "]"  (no whitespace before "[")
package parser

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlcst/pkg/cst"
	"github.com/leapstack-labs/sqlcst/pkg/dialect"
	"github.com/leapstack-labs/sqlcst/pkg/lexer"
	"github.com/leapstack-labs/sqlcst/pkg/token"
)

// Parser parses SQL for one dialect. The tokenizer and engine are read-only
// after New, so a Parser may be shared; each call owns its own state.
type Parser struct {
	tokenizer *lexer.Tokenizer
	engine    *Engine
	logger    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a parser for cfg.
func New(cfg dialect.Config, opts ...Option) (*Parser, error) {
	tz, err := lexer.New(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(SQLGrammar(cfg.ParenPairs()))
	if err != nil {
		return nil, fmt.Errorf("building grammar for %s: %w", cfg.Name, err)
	}
	p := &Parser{
		tokenizer: tz,
		engine:    engine,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Tokenizer returns the parser's tokenizer.
func (p *Parser) Tokenizer() *lexer.Tokenizer {
	return p.tokenizer
}

// Parse builds the statements of an already tokenized input.
func (p *Parser) Parse(tokens []token.Token) ([]*cst.Statement, error) {
	return p.run(FromTokens(tokens), len(tokens))
}

// ParseString tokenizes and parses src. The returned document keeps the
// whitespace after the last token so that it renders back to src.
func (p *Parser) ParseString(src string) (*cst.Document, error) {
	var trailing string
	adapter := NewLexerAdapter(func(chunk string) ([]token.Token, error) {
		res, err := p.tokenizer.Lex(chunk)
		if err != nil {
			return nil, err
		}
		trailing = res.Trailing
		return res.Tokens, nil
	})
	if err := adapter.Reset(src); err != nil {
		return nil, err
	}
	stmts, err := p.run(adapter, len(adapter.tokens))
	if err != nil {
		return nil, err
	}
	return &cst.Document{Statements: stmts, Trailing: trailing}, nil
}

func (p *Parser) run(src TokenSource, n int) ([]*cst.Statement, error) {
	p.logger.Debug("parsing", slog.Int("tokens", n))
	v, err := p.engine.Run(src)
	if err != nil {
		p.logger.Debug("parse failed", slog.String("error", err.Error()))
		return nil, err
	}
	stmts := v.([]*cst.Statement)
	p.logger.Debug("parsed", slog.Int("statements", len(stmts)))
	return stmts, nil
}

// Parse parses tokens produced for cfg.
func Parse(tokens []token.Token, cfg dialect.Config) ([]*cst.Statement, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return p.Parse(tokens)
}

// ParseString tokenizes and parses src with a one-off parser for cfg.
func ParseString(cfg dialect.Config, src string) (*cst.Document, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return p.ParseString(src)
}
