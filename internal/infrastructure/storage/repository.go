package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"LinkStrategist/internal/config"
	"LinkStrategist/internal/domain"
	"LinkStrategist/internal/ports"
)

const (
	timeLayout  = "2006-01-02T15:04:05.000000000Z07:00"
	insertBatch = 500
)

var (
	projectColumns = []string{"id", "name", "total_articles", "completed_articles", "status", "created_at"}
	articleColumns = []string{
		"id", "project_id", "from_url", "to_url", "main_kw", "order_index",
		"html_content", "status", "analysis_results", "processing_time", "created_at",
	}
)

type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Repository persists projects and articles into SQLite or Postgres.
type Repository struct {
	db      *sql.DB
	tx      *sql.Tx
	run     runner
	driver  string
	builder sq.StatementBuilderType
}

var _ ports.Store = (*Repository)(nil)

// New wires a sql.DB opened with the given driver name.
func New(db *sql.DB, driver string) *Repository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == config.DriverPostgres {
		placeholder = sq.Dollar
	}
	return &Repository{
		db:      db,
		run:     db,
		driver:  driver,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// WithinTx runs fn inside a database transaction. Nested calls reuse the
// outer transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(tx ports.Store) error) error {
	if r.tx != nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	scoped := &Repository{db: r.db, tx: tx, run: tx, driver: r.driver, builder: r.builder}
	if err := fn(scoped); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CreateProject inserts a new project row.
func (r *Repository) CreateProject(ctx context.Context, project domain.Project) error {
	query, args, err := r.builder.Insert("projects").
		Columns(projectColumns...).
		Values(
			project.ID,
			project.Name,
			project.TotalArticles,
			project.CompletedArticles,
			string(project.Status),
			formatTime(project.CreatedAt),
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert project: %w", err)
	}

	if _, err := r.run.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject loads a project or returns domain.ErrNotFound.
func (r *Repository) GetProject(ctx context.Context, id string) (domain.Project, error) {
	query, args, err := r.builder.Select(projectColumns...).
		From("projects").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Project{}, fmt.Errorf("build select project: %w", err)
	}

	project, err := scanProject(r.run.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// ListProjects returns every project, newest first.
func (r *Repository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	query, args, err := r.builder.Select(projectColumns...).
		From("projects").
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list projects: %w", err)
	}

	rows, err := r.run.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return projects, nil
}

// UpdateProject stores counters and status of an existing project.
func (r *Repository) UpdateProject(ctx context.Context, project domain.Project) error {
	query, args, err := r.builder.Update("projects").
		Set("name", project.Name).
		Set("total_articles", project.TotalArticles).
		Set("completed_articles", project.CompletedArticles).
		Set("status", string(project.Status)).
		Where(sq.Eq{"id": project.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update project: %w", err)
	}
	return r.execOne(ctx, "project", project.ID, query, args)
}

// RecountCompleted counts completed articles and stores the value on the
// project. On Postgres the project row is locked first so concurrent
// recounts observe each other's committed completions.
func (r *Repository) RecountCompleted(ctx context.Context, projectID string) (int, error) {
	if r.driver == config.DriverPostgres {
		lock, args, err := r.builder.Select("id").
			From("projects").
			Where(sq.Eq{"id": projectID}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build project lock: %w", err)
		}
		var locked string
		if err := r.run.QueryRowContext(ctx, lock, args...).Scan(&locked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
			}
			return 0, fmt.Errorf("lock project: %w", err)
		}
	}

	countQuery, args, err := r.builder.Select("COUNT(*)").
		From("articles").
		Where(sq.Eq{"project_id": projectID, "status": string(domain.ArticleCompleted)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count completed: %w", err)
	}

	var completed int
	if err := r.run.QueryRowContext(ctx, countQuery, args...).Scan(&completed); err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}

	update, args, err := r.builder.Update("projects").
		Set("completed_articles", completed).
		Where(sq.Eq{"id": projectID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update progress: %w", err)
	}
	if err := r.execOne(ctx, "project", projectID, update, args); err != nil {
		return 0, err
	}
	return completed, nil
}

// InsertArticles stores a batch of new articles.
func (r *Repository) InsertArticles(ctx context.Context, articles []domain.Article) error {
	for start := 0; start < len(articles); start += insertBatch {
		end := min(start+insertBatch, len(articles))

		insert := r.builder.Insert("articles").Columns(articleColumns...)
		for _, article := range articles[start:end] {
			results, err := encodeAnalysis(article.Analysis)
			if err != nil {
				return err
			}
			insert = insert.Values(
				article.ID,
				article.ProjectID,
				article.FromURL,
				article.ToURL,
				article.MainKeyword,
				article.OrderIndex,
				nullableString(article.HTMLContent),
				string(article.Status),
				results,
				nullableFloat(article.ProcessingTime),
				formatTime(article.CreatedAt),
			)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert articles: %w", err)
		}
		if _, err := r.run.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert articles: %w", err)
		}
	}
	return nil
}

// GetArticle loads an article or returns domain.ErrNotFound.
func (r *Repository) GetArticle(ctx context.Context, id string) (domain.Article, error) {
	query, args, err := r.builder.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select article: %w", err)
	}

	article, err := scanArticle(r.run.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

// ListArticles returns project articles in order_index order.
func (r *Repository) ListArticles(ctx context.Context, projectID string, statuses ...domain.ArticleStatus) ([]domain.Article, error) {
	where := sq.Eq{"project_id": projectID}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, status := range statuses {
			values[i] = string(status)
		}
		where["status"] = values
	}

	query, args, err := r.builder.Select(articleColumns...).
		From("articles").
		Where(where).
		OrderBy("order_index").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list articles: %w", err)
	}

	rows, err := r.run.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

// BeginAnalysis stores new content, clears old results and marks the
// article analyzing.
func (r *Repository) BeginAnalysis(ctx context.Context, articleID, htmlContent string) error {
	query, args, err := r.builder.Update("articles").
		Set("html_content", htmlContent).
		Set("status", string(domain.ArticleAnalyzing)).
		Set("analysis_results", nil).
		Where(sq.Eq{"id": articleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build begin analysis: %w", err)
	}
	return r.execOne(ctx, "article", articleID, query, args)
}

// FinishAnalysis writes the outcome of one attempt in a single statement.
func (r *Repository) FinishAnalysis(ctx context.Context, article domain.Article) error {
	results, err := encodeAnalysis(article.Analysis)
	if err != nil {
		return err
	}

	query, args, err := r.builder.Update("articles").
		Set("html_content", nullableString(article.HTMLContent)).
		Set("status", string(article.Status)).
		Set("analysis_results", results).
		Set("processing_time", nullableFloat(article.ProcessingTime)).
		Where(sq.Eq{"id": article.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build finish analysis: %w", err)
	}
	return r.execOne(ctx, "article", article.ID, query, args)
}

func (r *Repository) execOne(ctx context.Context, entity, id, query string, args []any) error {
	res, err := r.run.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", entity, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s rows affected: %w", entity, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}

func scanProject(row rowScanner) (domain.Project, error) {
	var (
		project   domain.Project
		status    string
		createdAt string
	)
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.TotalArticles,
		&project.CompletedArticles,
		&status,
		&createdAt,
	); err != nil {
		return domain.Project{}, err
	}

	project.Status = domain.ProjectStatus(status)
	created, err := parseTime(createdAt)
	if err != nil {
		return domain.Project{}, err
	}
	project.CreatedAt = created
	return project, nil
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article        domain.Article
		htmlContent    sql.NullString
		status         string
		results        sql.NullString
		processingTime sql.NullFloat64
		createdAt      string
	)
	if err := row.Scan(
		&article.ID,
		&article.ProjectID,
		&article.FromURL,
		&article.ToURL,
		&article.MainKeyword,
		&article.OrderIndex,
		&htmlContent,
		&status,
		&results,
		&processingTime,
		&createdAt,
	); err != nil {
		return domain.Article{}, err
	}

	article.HTMLContent = htmlContent.String
	article.Status = domain.ArticleStatus(status)
	if processingTime.Valid {
		value := processingTime.Float64
		article.ProcessingTime = &value
	}
	if results.Valid && results.String != "" {
		var analysis domain.AnalysisResult
		if err := json.Unmarshal([]byte(results.String), &analysis); err != nil {
			return domain.Article{}, fmt.Errorf("decode analysis of article %s: %w", article.ID, err)
		}
		article.Analysis = &analysis
	}

	created, err := parseTime(createdAt)
	if err != nil {
		return domain.Article{}, err
	}
	article.CreatedAt = created
	return article, nil
}

func encodeAnalysis(analysis *domain.AnalysisResult) (any, error) {
	if analysis == nil {
		return nil, nil
	}
	raw, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}
	return string(raw), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}
