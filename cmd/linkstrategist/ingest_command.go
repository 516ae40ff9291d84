package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"LinkStrategist/internal/app"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "ingest PROJECT_ID FILE",
		Short: "Load a CSV or XLSX batch with From, To and Main KW columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, path := args[0], args[1]

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open batch: %w", err)
			}
			defer f.Close()

			return ctx.withApp(cmd.Context(), func(application *app.Application) error {
				ingestor := application.Services().Ingestor
				var n int
				if format != "" {
					n, err = ingestor.IngestFormat(cmd.Context(), projectID, format, f)
				} else {
					n, err = ingestor.IngestFile(cmd.Context(), projectID, filepath.Base(path), f)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully uploaded %d articles\n", n)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Input format (csv or xlsx); inferred from the file extension when empty")
	return cmd
}
