package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/sqlcst/internal/cli/config"
	"github.com/leapstack-labs/sqlcst/internal/testutil"
)

// execute runs cmd with cfg and a test logger in its context.
func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	ctx := context.WithValue(context.Background(), config.ConfigKey(), cfg)
	ctx = context.WithValue(ctx, config.LoggerKey(), testutil.NewTestLogger(t))
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

// textConfig returns the defaults with text output and no cache.
func textConfig() *config.Config {
	cfg := config.Default()
	cfg.OutputFormat = "text"
	cfg.NoCache = true
	return cfg
}

func TestNewTokensCommand(t *testing.T) {
	cmd := NewTokensCommand()

	assert.Equal(t, "tokens [file|-]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("comments"))
}

func TestNewParseCommand(t *testing.T) {
	cmd := NewParseCommand()

	assert.Equal(t, "parse [file|-]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("check-roundtrip"))
}

func TestNewCheckCommand(t *testing.T) {
	cmd := NewCheckCommand()

	assert.Equal(t, "check [paths...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	// Verify flags exist (dialect and output are global flags on root, not local)
	flags := []string{"jobs", "no-cache", "cache-path", "watch"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "j", cmd.Flags().Lookup("jobs").Shorthand)
	assert.Equal(t, "w", cmd.Flags().Lookup("watch").Shorthand)
}

func TestNewDialectsCommand(t *testing.T) {
	cmd := NewDialectsCommand()

	assert.Equal(t, "dialects", cmd.Use)
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show", "validate"}, names)
}

func TestNewREPLCommand(t *testing.T) {
	cmd := NewREPLCommand()

	assert.Equal(t, "repl", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Long, "Long should not be empty")
}
