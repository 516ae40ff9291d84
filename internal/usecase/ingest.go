package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"LinkStrategist/internal/domain"
	"LinkStrategist/internal/ports"
	"LinkStrategist/internal/tabular"
)

// Required input columns, matched case-insensitively.
const (
	ColumnFrom    = "From"
	ColumnTo      = "To"
	ColumnKeyword = "Main KW"
)

// Ingestor turns a tabular batch into pending articles of a project.
type Ingestor struct {
	store    ports.Store
	decoders *tabular.Registry
	clock    func() time.Time
	newID    func() string
	logger   *slog.Logger
}

// NewIngestor constructs the batch ingestor.
func NewIngestor(deps Deps) *Ingestor {
	deps = deps.withDefaults()
	return &Ingestor{
		store:    deps.Store,
		decoders: deps.Decoders,
		clock:    deps.Clock,
		newID:    deps.NewID,
		logger:   deps.Logger,
	}
}

// IngestFile decodes an uploaded file by its extension and ingests it.
func (i *Ingestor) IngestFile(ctx context.Context, projectID, filename string, r io.Reader) (int, error) {
	decoder, err := i.decoders.ResolveFile(filename)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return i.ingestWith(ctx, projectID, decoder, filename, r)
}

// IngestFormat decodes r with the named decoder ("csv", "xlsx") regardless
// of any file name, and ingests it.
func (i *Ingestor) IngestFormat(ctx context.Context, projectID, format string, r io.Reader) (int, error) {
	decoder, err := i.decoders.Resolve(strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return i.ingestWith(ctx, projectID, decoder, format+" input", r)
}

func (i *Ingestor) ingestWith(ctx context.Context, projectID string, decoder tabular.Decoder, source string, r io.Reader) (int, error) {
	table, err := decoder.Decode(r)
	if err != nil {
		return 0, fmt.Errorf("%w: decode %s: %w", domain.ErrValidation, source, err)
	}
	return i.Ingest(ctx, projectID, table)
}

// Ingest creates one pending article per row, in row order, and marks the
// project ready. Nothing is written unless every row is valid.
func (i *Ingestor) Ingest(ctx context.Context, projectID string, table tabular.Table) (int, error) {
	var created int
	err := i.store.WithinTx(ctx, func(tx ports.Store) error {
		project, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		if project.Status != domain.ProjectCreated {
			return fmt.Errorf("%w: project %s already has a batch (status %s)", domain.ErrConflict, projectID, project.Status)
		}

		articles, err := i.buildArticles(projectID, table)
		if err != nil {
			return err
		}
		if err := tx.InsertArticles(ctx, articles); err != nil {
			return fmt.Errorf("store articles: %w", err)
		}

		project.TotalArticles = len(articles)
		project.CompletedArticles = 0
		project.Status = domain.ProjectReady
		if err := tx.UpdateProject(ctx, project); err != nil {
			return fmt.Errorf("mark project ready: %w", err)
		}

		created = len(articles)
		return nil
	})
	if err != nil {
		return 0, err
	}

	i.logger.Info("batch ingested", "project_id", projectID, "articles", created)
	return created, nil
}

func (i *Ingestor) buildArticles(projectID string, table tabular.Table) ([]domain.Article, error) {
	required := []string{ColumnFrom, ColumnTo, ColumnKeyword}
	columns := make([]int, len(required))
	var missing []string
	for n, name := range required {
		columns[n] = table.Column(name)
		if columns[n] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: input must contain columns %s; missing %s",
			domain.ErrValidation, strings.Join(required, ", "), strings.Join(missing, ", "))
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: input contains no rows", domain.ErrValidation)
	}

	now := i.clock().UTC()
	articles := make([]domain.Article, 0, len(table.Rows))
	for row := range table.Rows {
		values := make([]string, len(columns))
		for n, col := range columns {
			values[n] = table.Cell(row, col)
			if values[n] == "" {
				return nil, fmt.Errorf("%w: row %d has no %s value", domain.ErrValidation, table.Line(row), required[n])
			}
		}
		articles = append(articles, domain.Article{
			ID:          i.newID(),
			ProjectID:   projectID,
			FromURL:     values[0],
			ToURL:       values[1],
			MainKeyword: values[2],
			OrderIndex:  row,
			Status:      domain.ArticlePending,
			CreatedAt:   now,
		})
	}
	return articles, nil
}
