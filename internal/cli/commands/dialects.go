package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlcst/internal/cli/config"
	"github.com/leapstack-labs/sqlcst/internal/cli/output"
	"github.com/leapstack-labs/sqlcst/pkg/dialect"
)

// DialectInfo describes a registered dialect in list output.
type DialectInfo struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Parens      []string `json:"parens"`
	Keywords    int      `json:"reservedPhrases"`
	Selected    bool     `json:"selected"`
}

// NewDialectsCommand creates the dialects command and its subcommands.
func NewDialectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dialects",
		Short: "Inspect SQL dialects",
		Long: `List the built-in dialects, print a dialect definition, or validate a
dialect file.

A dialect file is YAML or TOML. It may extend a built-in dialect and
override any of its lists.`,
	}

	cmd.AddCommand(newDialectsListCommand())
	cmd.AddCommand(newDialectsShowCommand())
	cmd.AddCommand(newDialectsValidateCommand())
	return cmd
}

func newDialectsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetConfig(cmd.Context())
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			return renderDialectList(r, dialectInfos(cfg.Dialect))
		},
	}
}

func newDialectsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print a dialect definition",
		Long: `Print a dialect definition in the format dialect files use.

Without a name, prints the configured dialect, including one loaded from
--dialect-file.`,
		Example: `  sqlcst dialects show postgresql
  sqlcst dialects show postgresql > mydialect.yaml`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return dialect.List(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig(cmd.Context())
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

			var (
				d   dialect.Config
				err error
			)
			if len(args) == 1 {
				d, err = dialect.Lookup(args[0])
			} else {
				d, err = cfg.LoadDialect()
			}
			if err != nil {
				return err
			}
			return renderDialect(r, d)
		},
	}
}

func newDialectsValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a dialect file",
		Example: `  sqlcst dialects validate mydialect.yaml
  sqlcst dialects validate mydialect.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig(cmd.Context())
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

			d, err := dialect.LoadFile(args[0])
			if err != nil {
				return err
			}
			if wrote, err := r.Structured(map[string]any{"file": args[0], "name": d.Name, "valid": true}); wrote || err != nil {
				return err
			}
			r.Success(fmt.Sprintf("%s: dialect %q is valid", args[0], d.Name))
			return nil
		},
	}
}

func dialectInfos(selected string) []DialectInfo {
	title := cases.Title(language.English)
	var infos []DialectInfo
	for _, name := range dialect.List() {
		d := dialect.MustGet(name)
		info := DialectInfo{
			Name:        name,
			DisplayName: title.String(name),
			Selected:    strings.EqualFold(name, selected),
		}
		for _, p := range d.ParenPairs() {
			info.Parens = append(info.Parens, p.Open+p.Close)
		}
		for _, cat := range d.ReservedCategories() {
			info.Keywords += len(cat.Phrases)
		}
		infos = append(infos, info)
	}
	return infos
}

func renderDialectList(r *output.Renderer, infos []DialectInfo) error {
	if wrote, err := r.Structured(infos); wrote || err != nil {
		return err
	}

	rows := make([][]any, len(infos))
	for i, info := range infos {
		marker := ""
		if info.Selected {
			marker = "*"
		}
		rows[i] = []any{marker, info.Name, info.DisplayName, strings.Join(info.Parens, " "), info.Keywords}
	}
	r.Table([]string{"", "name", "display name", "parens", "reserved"}, rows)
	return nil
}

// renderDialect prints d as YAML, or as JSON with the same keys.
func renderDialect(r *output.Renderer, d dialect.Config) error {
	data, err := dialect.Marshal(d)
	if err != nil {
		return err
	}
	if r.EffectiveMode() == output.ModeJSON {
		var v map[string]any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		return r.JSON(v)
	}
	r.Printf("%s", data)
	return nil
}
