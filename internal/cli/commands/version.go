package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlcst/internal/cli/config"
	"github.com/leapstack-labs/sqlcst/internal/cli/output"
	"github.com/leapstack-labs/sqlcst/pkg/dialect"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version  string   `json:"version"`
	Commit   string   `json:"commit"`
	Date     string   `json:"date"`
	Dialects []string `json:"dialects"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the sqlcst version, build details and the built-in dialects.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Plain text unless a structured format was asked for.
			mode := output.Mode(config.GetConfig(cmd.Context()).OutputFormat)
			if mode == output.ModeAuto {
				mode = output.ModeText
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			info.Dialects = dialect.List()
			if wrote, err := r.Structured(info); wrote || err != nil {
				return err
			}
			r.Printf("sqlcst v%s\n", info.Version)
			r.Println("Dialect-configurable SQL tokenizer and concrete syntax tree parser")
			r.KeyValue("commit", info.Commit)
			r.KeyValue("built", info.Date)
			r.KeyValue("dialects", strings.Join(info.Dialects, ", "))
			return nil
		},
	}
}
