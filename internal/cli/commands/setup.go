// Package commands implements the sqlcst subcommands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlcst/internal/cli/config"
	"github.com/leapstack-labs/sqlcst/internal/cli/output"
	"github.com/leapstack-labs/sqlcst/pkg/dialect"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Dialect  dialect.Config
}

// NewCommandContext resolves the configured dialect and builds a renderer
// for the command's output streams.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	d, err := cfg.LoadDialect()
	if err != nil {
		return nil, err
	}
	logger.Debug("using dialect", slog.String("dialect", d.Name))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
		Dialect:  d,
	}, nil
}

// readInput returns the SQL named by args: a file path, or standard input
// when args is empty or "-".
func readInput(cmd *cobra.Command, args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return "<stdin>", data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return args[0], data, nil
}
