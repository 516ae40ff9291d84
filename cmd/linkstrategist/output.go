package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// column is one column of a CLI listing. A zero width means unbounded.
type column struct {
	title string
	align text.Align
	width int
}

var (
	projectColumns = []column{
		{"ID", text.AlignLeft, 0},
		{"Name", text.AlignLeft, 40},
		{"Status", text.AlignLeft, 0},
		{"Progress", text.AlignRight, 0},
		{"Created", text.AlignLeft, 0},
	}
	articleColumns = []column{
		{"#", text.AlignRight, 0},
		{"ID", text.AlignLeft, 0},
		{"From", text.AlignLeft, 60},
		{"Keyword", text.AlignLeft, 30},
		{"Status", text.AlignLeft, 0},
		{"Opportunities", text.AlignRight, 0},
	}
	opportunityColumns = []column{
		{"#", text.AlignRight, 0},
		{"Rating", text.AlignRight, 0},
		{"Location", text.AlignLeft, 40},
		{"New text", text.AlignLeft, 80},
	}
	exportColumns = []column{
		{"From", text.AlignLeft, 40},
		{"To", text.AlignLeft, 40},
		{"Main KW", text.AlignLeft, 20},
		{"Rating", text.AlignRight, 0},
		{"Location", text.AlignLeft, 30},
		{"Old text", text.AlignLeft, 50},
		{"New text", text.AlignLeft, 50},
		{"Reasoning", text.AlignLeft, 50},
	}
)

// grid renders rows under columns. Missing cells render blank and cells
// beyond the last column are dropped.
func grid(columns []column, rows []table.Row) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       c.align,
			AlignHeader: text.AlignLeft,
			WidthMax:    c.width,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}
	return tw.Render()
}

// printResult writes v as indented JSON when asJSON is set and the rendered
// text view otherwise.
func printResult(cmd *cobra.Command, asJSON bool, v any, render func() string) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, render())
	return err
}
