package cli

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// renderTable renders rows with go-pretty. Columns listed in rightAligned
// (1-based) are right-aligned, with their headers kept left-aligned.
func renderTable(w io.Writer, headers table.Row, rows []table.Row, rightAligned ...int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(tableStyle(w))
	tw.AppendHeader(headers)
	for _, row := range rows {
		tw.AppendRow(row)
	}

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, num := range rightAligned {
		configs = append(configs, table.ColumnConfig{
			Number:      num,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	tw.Render()
}

// tableStyle picks box-drawing borders on terminals and plain ASCII when
// the output is piped or captured.
func tableStyle(w io.Writer) table.Style {
	file, ok := w.(*os.File)
	if !ok {
		return table.StyleDefault
	}
	fd := file.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return table.StyleRounded
	}
	return table.StyleDefault
}
