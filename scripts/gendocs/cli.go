package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/sqlcst/internal/cli"
	"github.com/leapstack-labs/sqlcst/internal/cli/config"
)

// generateCLIDocs generates CLI documentation from Cobra commands.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rootCmd := cli.NewRootCmd()

	// Generate index page
	if err := generateCLIIndex(rootCmd, outDir); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	log.Printf("  Generated index.md")

	// Generate page for each command
	for _, cmd := range rootCmd.Commands() {
		if !documented(cmd) {
			continue
		}
		if err := generateCommandPage(cmd, outDir); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", cmd.Name(), err)
		}
		log.Printf("  Generated %s.md", cmd.Name())
	}

	return nil
}

// documented reports whether cmd gets its own page.
func documented(cmd *cobra.Command) bool {
	return !cmd.Hidden && cmd.Name() != "help" && cmd.Name() != "__complete"
}

// generateCLIIndex generates the CLI overview page.
func generateCLIIndex(rootCmd *cobra.Command, outDir string) error {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for sqlcst")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(rootCmd.Long)

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/sqlcst/cmd/sqlcst@latest")

	w.Header(2, "Basic Usage")
	w.CodeBlock("bash", "sqlcst <command> [options]")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range rootCmd.Commands() {
		if !documented(cmd) {
			continue
		}
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	w.Paragraph("These flags are available for all commands:")
	writeFlagsTable(w, rootCmd.PersistentFlags())

	w.Header(2, "Configuration")
	w.Paragraph(fmt.Sprintf("Settings are read from %s in the working directory or any parent, "+
		"then from environment variables, then from flags. Later sources win.", InlineCode("sqlcst.yaml")))
	w.Table([]string{"Variable", "Description"}, envRows())

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Error, including files that failed to parse (check stderr for details)"},
	})

	w.Header(2, "Getting Help")
	w.CodeBlock("bash", `# General help
sqlcst help
sqlcst --help

# Command-specific help
sqlcst parse --help`)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

// envRows lists the environment variables mapped onto configuration keys.
func envRows() [][]string {
	keys := []struct{ key, desc string }{
		{"dialect", "Built-in dialect name"},
		{"dialect_file", "Path to a dialect definition file (YAML or TOML)"},
		{"output", "Output format: " + strings.Join(config.OutputFormats, ", ")},
		{"log_level", "Log level: debug, info, warn, error"},
		{"jobs", "Parallel workers for check"},
		{"cache_path", "Check result cache database"},
		{"no_cache", "Disable the check result cache"},
	}
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{InlineCode(config.EnvPrefix + strings.ToUpper(k.key)), k.desc})
	}
	return rows
}

// generateCommandPage writes <name>.md for a top-level command. Subcommands
// are documented as sections of their parent's page.
func generateCommandPage(cmd *cobra.Command, outDir string) error {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cleanDescription(cmd.Short))
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	writeCommandBody(w, cmd, 2)

	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}

	return os.WriteFile(filepath.Join(outDir, cmd.Name()+".md"), w.Bytes(), 0600)
}

// writeCommandBody documents cmd with headings starting at level.
func writeCommandBody(w *MarkdownWriter, cmd *cobra.Command, level int) {
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	w.Paragraph(desc)

	w.Header(level, "Usage")
	w.CodeBlock("bash", usageLine(cmd))

	if len(cmd.Aliases) > 0 {
		w.Header(level, "Aliases")
		w.BulletList(codeList(cmd.Aliases))
	}

	if cmd.HasLocalFlags() {
		w.Header(level, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}

	if cmd.Example != "" {
		w.Header(level, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}

	for _, sub := range cmd.Commands() {
		if !documented(sub) {
			continue
		}
		w.Header(level, cmd.Name()+" "+sub.Name())
		writeCommandBody(w, sub, level+1)
	}
}

// usageLine returns the full invocation of cmd starting at the root.
func usageLine(cmd *cobra.Command) string {
	if cmd.HasAvailableSubCommands() && !cmd.Runnable() {
		return cmd.CommandPath() + " <subcommand> [options]"
	}
	return cmd.UseLine()
}

// writeFlagsTable writes one row per visible flag.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = InlineCode("-" + f.Shorthand)
		}
		def := f.DefValue
		if def != "" && f.Value.Type() != "bool" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{InlineCode("--" + f.Name), short, def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Short", "Default", "Description"}, rows)
}

// cleanExample strips the indentation shared by all non-blank lines.
func cleanExample(example string) string {
	lines := strings.Split(strings.Trim(example, "\n"), "\n")

	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first || len(indent) < len(prefix) {
			prefix = indent
			first = false
		}
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
