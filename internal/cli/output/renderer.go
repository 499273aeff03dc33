// Package output renders command results as styled text, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlcst/pkg/cst"
)

// OutputMode selects how results are written.
type OutputMode string

// Output modes.
const (
	ModeAuto OutputMode = "auto" // text on a terminal, JSON otherwise
	ModeText OutputMode = "text"
	ModeJSON OutputMode = "json"
	ModeYAML OutputMode = "yaml"
)

// Mode converts a config string to an OutputMode. Unknown values are auto.
func Mode(s string) OutputMode {
	switch OutputMode(s) {
	case ModeText, ModeJSON, ModeYAML:
		return OutputMode(s)
	default:
		return ModeAuto
	}
}

// Renderer writes command output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: NewStyles(out, isTTY),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves ModeAuto against the TTY state.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeJSON
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Styles returns the text styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a styled heading.
func (r *Renderer) Header(level int, text string) {
	if level <= 1 {
		r.Println(r.styles.Header.Render(text))
		return
	}
	r.Println(r.styles.Bold.Render(text))
}

// Success writes a success line.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render("✓ " + msg))
}

// Fail writes a failure line.
func (r *Renderer) Fail(msg string) {
	r.Println(r.styles.Error.Render("✗ " + msg))
}

// Muted writes a de-emphasised line.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// Warning writes a warning to the error output.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning: "+msg))
}

// Error writes an error to the error output.
func (r *Renderer) Error(err error) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("Error: ")+err.Error())
}

// KeyValue writes a "key: value" line with the key in bold.
func (r *Renderer) KeyValue(key string, value any) {
	r.Println(FormatKeyValue(r.styles.Bold.Render(key), value))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML. Values with custom JSON encodings, such as CST
// nodes, are converted through their JSON form first.
func (r *Renderer) YAML(v any) error {
	plain, err := cst.Plain(v)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(plain); err != nil {
		return err
	}
	return enc.Close()
}

// Structured writes v as JSON or YAML according to the effective mode.
// It returns false in text mode without writing anything.
func (r *Renderer) Structured(v any) (bool, error) {
	switch r.EffectiveMode() {
	case ModeJSON:
		return true, r.JSON(v)
	case ModeYAML:
		return true, r.YAML(v)
	default:
		return false, nil
	}
}

// FormatKeyValue formats a key-value pair.
func FormatKeyValue(key string, value any) string {
	return fmt.Sprintf("%s: %v", key, value)
}
