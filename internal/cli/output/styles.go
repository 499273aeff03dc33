package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Token categories in tree and table output.
	Keyword lipgloss.Style
	Literal lipgloss.Style
	Paren   lipgloss.Style
}

// NewStyles creates styles rendering to w. Without a TTY every style
// renders plain text.
func NewStyles(w io.Writer, isTTY bool) *Styles {
	r := lipgloss.NewRenderer(w)
	if !isTTY {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Styles{
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("14")),
		Keyword: r.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
		Literal: r.NewStyle().Foreground(lipgloss.Color("10")),
		Paren:   r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}
