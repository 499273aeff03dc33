package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/sqlcst/pkg/dialect"
)

// generateDialectDocs writes one reference page per built-in dialect and an
// index linking them.
func generateDialectDocs(outDir string) error {
	log.Printf("Generating dialect docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	names := dialect.List()
	if err := os.WriteFile(filepath.Join(outDir, "index.md"), dialectIndex(names), 0600); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	log.Printf("  Generated index.md")

	for _, name := range names {
		page := dialectPage(dialect.MustGet(name))
		if err := os.WriteFile(filepath.Join(outDir, name+".md"), page, 0600); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", name, err)
		}
		log.Printf("  Generated %s.md", name)
	}
	return nil
}

func dialectIndex(names []string) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("Dialects", "Built-in SQL dialects")
	w.GeneratedMarker()

	w.Header(1, "Dialects")
	w.Paragraph("A dialect tells the tokenizer which phrases are reserved, which brackets pair up, " +
		"and how strings, identifiers and comments are quoted. Select one with " +
		InlineCode("--dialect") + " or load your own with " + InlineCode("--dialect-file") + ".")

	var rows [][]string
	for _, name := range names {
		d := dialect.MustGet(name)
		rows = append(rows, []string{
			fmt.Sprintf("[%s](/dialects/%s)", InlineCode(name), name),
			fmt.Sprintf("%d", countPhrases(d)),
			strings.Join(codeList(d.IdentTypes), " "),
		})
	}
	w.Table([]string{"Dialect", "Reserved phrases", "Identifier quotes"}, rows)

	w.Header(2, "Custom dialects")
	w.CodeBlock("yaml", `name: warehouse
extends: postgresql
reserved_keywords: [QUALIFY]
operators: ["=>"]`)
	w.CodeBlock("bash", "sqlcst dialects validate warehouse.yaml\nsqlcst parse --dialect-file warehouse.yaml query.sql")
	return w.Bytes()
}

func dialectPage(d dialect.Config) []byte {
	title := cases.Title(language.English).String(d.Name)

	w := NewMarkdownWriter()
	w.Frontmatter(title, fmt.Sprintf("Tokenizer settings of the %s dialect", d.Name))
	w.GeneratedMarker()

	w.Header(1, title)
	if d.Extends != "" {
		w.Paragraph("Extends " + InlineCode(d.Extends) + ".")
	}
	w.CodeBlock("bash", "sqlcst parse --dialect "+d.Name+" query.sql")

	w.Header(2, "Lexical settings")
	var pairs []string
	for _, p := range d.ParenPairs() {
		pairs = append(pairs, InlineCode(p.Open+" "+p.Close))
	}
	settings := [][]string{
		{"Brackets", strings.Join(pairs, " ")},
		{"String quotes", strings.Join(codeList(d.StringTypes), " ")},
		{"Identifier quotes", strings.Join(codeList(d.IdentTypes), " ")},
		{"Line comments", strings.Join(codeList(d.CommentMarkers()), " ")},
	}
	if len(d.Operators) > 0 {
		settings = append(settings, []string{"Operators", strings.Join(codeList(d.Operators), " ")})
	}
	if d.ExtraIdentChars != "" {
		settings = append(settings, []string{"Extra identifier characters", InlineCode(d.ExtraIdentChars)})
	}
	w.Table([]string{"Setting", "Value"}, settings)

	w.Header(2, "Reserved phrases")
	w.Paragraph("Categories are listed in the order the tokenizer tries them.")
	for _, cat := range d.ReservedCategories() {
		if len(cat.Phrases) == 0 {
			continue
		}
		w.Header(3, cat.Type.String())
		w.BulletList(codeList(cat.Phrases))
	}
	return w.Bytes()
}

func countPhrases(d dialect.Config) int {
	n := 0
	for _, cat := range d.ReservedCategories() {
		n += len(cat.Phrases)
	}
	return n
}

func codeList(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = InlineCode(s)
	}
	return out
}
