package usecase

import (
	"context"
	"fmt"

	"LinkStrategist/internal/domain"
	"LinkStrategist/internal/ports"
)

// ExportResult is the flattened opportunity list of a project.
type ExportResult struct {
	Rows               []domain.ExportRow `json:"results"`
	TotalOpportunities int                `json:"total_opportunities"`
}

// Exporter flattens completed analyses for download.
type Exporter struct {
	store ports.Store
}

// NewExporter constructs the export aggregator.
func NewExporter(deps Deps) *Exporter {
	return &Exporter{store: deps.Store}
}

// Export lists every opportunity of every completed article, in article
// order and then in the order the analyzer returned them.
func (e *Exporter) Export(ctx context.Context, projectID string) (ExportResult, error) {
	if _, err := e.store.GetProject(ctx, projectID); err != nil {
		return ExportResult{}, err
	}

	articles, err := e.store.ListArticles(ctx, projectID, domain.ArticleCompleted)
	if err != nil {
		return ExportResult{}, fmt.Errorf("list completed articles: %w", err)
	}

	rows := make([]domain.ExportRow, 0)
	for _, article := range articles {
		if article.Analysis == nil {
			continue
		}
		for _, opp := range article.Analysis.Opportunities {
			rows = append(rows, domain.ExportRow{
				FromURL:     article.FromURL,
				ToURL:       article.ToURL,
				MainKeyword: article.MainKeyword,
				Rating:      opp.Rating,
				Location:    opp.Location,
				OldText:     opp.OldText,
				NewText:     opp.NewText,
				Reasoning:   opp.Reasoning,
			})
		}
	}

	return ExportResult{Rows: rows, TotalOpportunities: len(rows)}, nil
}
