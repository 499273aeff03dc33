package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlcst/internal/cli/config"
	"github.com/leapstack-labs/sqlcst/pkg/dialect"
)

func TestVersionCommand(t *testing.T) {
	info := BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02"}

	tests := []struct {
		name    string
		output  string
		wantOut []string
	}{
		{
			name:    "auto is text",
			output:  "auto",
			wantOut: []string{"sqlcst v1.2.3\n", "syntax tree", "commit: abc123", "built: 2026-01-02", "dialects: mysql, postgresql"},
		},
		{
			name:    "text",
			output:  "text",
			wantOut: []string{"sqlcst v1.2.3\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.OutputFormat = tt.output
			out, _, err := execute(t, NewVersionCommand(info), cfg, "")
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestVersionCommandJSON(t *testing.T) {
	cfg := config.Default()
	cfg.OutputFormat = "json"
	out, _, err := execute(t, NewVersionCommand(BuildInfo{Version: "dev"}), cfg, "")
	require.NoError(t, err)

	var got BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "dev", got.Version)
	assert.Equal(t, dialect.List(), got.Dialects)
}

func TestVersionCommandRejectsArgs(t *testing.T) {
	_, _, err := execute(t, NewVersionCommand(BuildInfo{}), config.Default(), "", "extra")
	assert.Error(t, err)
}
