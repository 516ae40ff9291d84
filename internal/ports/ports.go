package ports

import (
	"context"

	"LinkStrategist/internal/domain"
)

// ProjectRepository persists projects and their progress counters.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project domain.Project) error
	GetProject(ctx context.Context, id string) (domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	UpdateProject(ctx context.Context, project domain.Project) error
	// RecountCompleted stores and returns the number of completed articles of a project.
	RecountCompleted(ctx context.Context, projectID string) (int, error)
}

// ArticleRepository persists articles and their analysis outcomes.
type ArticleRepository interface {
	InsertArticles(ctx context.Context, articles []domain.Article) error
	GetArticle(ctx context.Context, id string) (domain.Article, error)
	// ListArticles returns project articles ordered by order index, optionally filtered by status.
	ListArticles(ctx context.Context, projectID string, statuses ...domain.ArticleStatus) ([]domain.Article, error)
	// BeginAnalysis stores the content, clears previous results and marks the article analyzing.
	BeginAnalysis(ctx context.Context, articleID, htmlContent string) error
	// FinishAnalysis writes content, status, results and timing of one attempt in a single statement.
	FinishAnalysis(ctx context.Context, article domain.Article) error
}

// Store groups repositories behind a transaction boundary.
type Store interface {
	ProjectRepository
	ArticleRepository
	// WithinTx runs fn on a transactional store; any error rolls everything back.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// AnalysisRequest is what the analyzer needs to propose link placements.
type AnalysisRequest struct {
	Content          string
	TargetURL        string
	Keyword          string
	CustomPrompt     string
	OpportunityCount int
}

// AnalysisClient asks the external LLM for link opportunities.
type AnalysisClient interface {
	Analyze(ctx context.Context, req AnalysisRequest) (domain.AnalysisResult, error)
}

// Notifier announces finished projects to Telegram or other channels.
type Notifier interface {
	ProjectCompleted(ctx context.Context, project domain.Project) error
}
