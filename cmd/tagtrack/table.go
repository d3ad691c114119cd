package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns are right aligned.
type column struct {
	title   string
	numeric bool
}

var (
	importColumns = []column{
		{title: "ID"},
		{title: "Status"},
		{title: "Source"},
		{title: "Items", numeric: true},
		{title: "Processed", numeric: true},
		{title: "Duplicates", numeric: true},
		{title: "Errors", numeric: true},
		{title: "Submitted"},
	}
	locationColumns = []column{
		{title: "Tag"},
		{title: "Latitude", numeric: true},
		{title: "Longitude", numeric: true},
		{title: "Accuracy", numeric: true},
		{title: "Observed"},
		{title: "Inaccurate"},
	}
)

// renderTable draws rows under columns. Short rows are padded; footer is
// omitted when nil.
func renderTable(columns []column, rows [][]string, footer []string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(tableRow(columns, func(i int) string { return columns[i].title }))
	for _, row := range rows {
		tw.AppendRow(tableRow(columns, cellAt(row)))
	}
	if footer != nil {
		tw.AppendFooter(tableRow(columns, cellAt(footer)))
	}

	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func tableRow(columns []column, cell func(int) string) table.Row {
	row := make(table.Row, len(columns))
	for i := range columns {
		row[i] = cell(i)
	}
	return row
}

func cellAt(values []string) func(int) string {
	return func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
}
