package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"LinkStrategist/internal/app"
	"LinkStrategist/internal/domain"
	"LinkStrategist/internal/usecase"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		prompt string
		count  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze ARTICLE_ID HTML_FILE",
		Short: "Find link placements in one article's HTML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read html: %w", err)
			}

			return ctx.withApp(cmd.Context(), func(application *app.Application) error {
				result, err := application.Services().Analyzer.Analyze(cmd.Context(), usecase.AnalyzeRequest{
					ArticleID:        args[0],
					HTMLContent:      string(html),
					CustomPrompt:     prompt,
					OpportunityCount: count,
				})
				if err != nil {
					return err
				}
				return printResult(cmd, asJSON, result, func() string {
					return renderAnalysis(result)
				})
			})
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "Extra instructions for the analyzer")
	cmd.Flags().IntVarP(&count, "count", "n", usecase.DefaultOpportunityCount, "Number of opportunities to request")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func renderAnalysis(result domain.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %s readers; strategy: %s\n", result.ArticleType, result.ReaderIntent, result.BestStrategy)
	if result.UsedFallback {
		b.WriteString("Analyzer reply was unusable; showing the fallback suggestion.\n")
	}
	rows := make([]table.Row, 0, len(result.Opportunities))
	for _, opp := range result.Opportunities {
		rows = append(rows, table.Row{opp.ID, opp.Rating, opp.Location, opp.NewText})
	}
	b.WriteString(grid(opportunityColumns, rows))
	return b.String()
}
