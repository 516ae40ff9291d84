package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"LinkStrategist/internal/app"
	"LinkStrategist/internal/usecase"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export PROJECT_ID",
		Short: "Print every opportunity of the project's completed articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatTable, formatJSON)
			}

			return ctx.withApp(cmd.Context(), func(application *app.Application) error {
				result, err := application.Services().Exporter.Export(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, format == formatJSON, result, func() string {
					return renderExport(result)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table or json")
	return cmd
}

func renderExport(result usecase.ExportResult) string {
	rows := make([]table.Row, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, table.Row{
			row.FromURL,
			row.ToURL,
			row.MainKeyword,
			row.Rating,
			row.Location,
			row.OldText,
			row.NewText,
			row.Reasoning,
		})
	}
	return grid(exportColumns, rows) + fmt.Sprintf("\nTotal opportunities: %d", result.TotalOpportunities)
}
