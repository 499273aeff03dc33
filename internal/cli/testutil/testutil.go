// Package testutil holds helpers for testing CLI commands: SQL fixture
// directories and renderers with captured output.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlcst/internal/cli/output"
)

// SetupSQLProject writes files into a fresh temporary directory and returns
// it. Keys are slash-separated paths relative to the directory.
func SetupSQLProject(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750), name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0600), name)
	}
	return root
}

// TestRenderer is a Renderer writing into buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer returns a renderer in mode with the given TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	tr := &TestRenderer{Out: new(bytes.Buffer), ErrOut: new(bytes.Buffer)}
	tr.Renderer = output.NewRendererWithTTY(tr.Out, tr.ErrOut, isTTY, mode)
	return tr
}

// NewTestRendererText returns a plain text renderer. Without a TTY the
// output carries no escape codes.
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, false)
}

// NewTestRendererJSON returns a JSON renderer.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns what was written to standard output.
func (tr *TestRenderer) Output() string { return tr.Out.String() }

// ErrorOutput returns what was written to standard error.
func (tr *TestRenderer) ErrorOutput() string { return tr.ErrOut.String() }

// Reset discards the captured output.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI fails the test if s contains terminal escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	assert.False(t, ansiPattern.MatchString(s), "unexpected ANSI escape codes in %q", s)
}

// AssertContains fails the test if s lacks substr.
func AssertContains(t *testing.T, s, substr string) {
	t.Helper()
	assert.Contains(t, s, substr)
}

// AssertNotContains fails the test if s contains substr.
func AssertNotContains(t *testing.T, s, substr string) {
	t.Helper()
	assert.NotContains(t, s, substr)
}
