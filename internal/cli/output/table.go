package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Table renders rows under a header. A terminal gets box drawing, anything
// else a plain column layout.
func (r *Renderer) Table(header []string, rows [][]any) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	if r.isTTY {
		t.SetStyle(table.StyleLight)
	} else {
		t.SetStyle(table.StyleDefault)
		t.Style().Options = table.OptionsNoBordersAndSeparators
	}

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
}
