package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"LinkStrategist/internal/domain"
	"LinkStrategist/internal/ports"
)

// DefaultOpportunityCount applies when a request leaves the count at zero.
const DefaultOpportunityCount = 3

// AnalyzeRequest asks for link opportunities in one article.
type AnalyzeRequest struct {
	ArticleID    string
	HTMLContent  string
	CustomPrompt string
	// OpportunityCount defaults to DefaultOpportunityCount when zero.
	OpportunityCount int
}

// Analyzer drives single articles through analysis and keeps project
// progress in sync.
type Analyzer struct {
	store    ports.Store
	client   ports.AnalysisClient
	notifier ports.Notifier
	clock    func() time.Time
	logger   *slog.Logger
}

// NewAnalyzer constructs the analysis orchestrator.
func NewAnalyzer(deps Deps) *Analyzer {
	deps = deps.withDefaults()
	return &Analyzer{
		store:    deps.Store,
		client:   deps.Client,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}
}

// Analyze runs one analysis attempt: the article moves to analyzing, then to
// completed with results or to error. Every call is an independent attempt.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (domain.AnalysisResult, error) {
	if strings.TrimSpace(req.HTMLContent) == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: html content is required", domain.ErrValidation)
	}
	count := req.OpportunityCount
	if count < 0 {
		return domain.AnalysisResult{}, fmt.Errorf("%w: opportunity count must not be negative", domain.ErrValidation)
	}
	if count == 0 {
		count = DefaultOpportunityCount
	}
	if a.client == nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: analyzer client is not configured", domain.ErrAnalysis)
	}

	article, err := a.store.GetArticle(ctx, req.ArticleID)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	start := a.clock()
	log := a.logger.With("article_id", article.ID, "project_id", article.ProjectID)

	if err := a.begin(ctx, article.ID, article.ProjectID, req.HTMLContent); err != nil {
		return a.fail(ctx, log, article, req.HTMLContent, start, fmt.Errorf("mark analyzing: %w", err))
	}
	log.Info("analysis started", "opportunity_count", count, "rerun", article.Status.Terminal())

	result, err := a.client.Analyze(ctx, ports.AnalysisRequest{
		Content:          req.HTMLContent,
		TargetURL:        article.ToURL,
		Keyword:          article.MainKeyword,
		CustomPrompt:     req.CustomPrompt,
		OpportunityCount: count,
	})
	if err != nil {
		return a.fail(ctx, log, article, req.HTMLContent, start, err)
	}

	elapsed := a.clock().Sub(start).Seconds()
	article.HTMLContent = req.HTMLContent
	article.Status = domain.ArticleCompleted
	article.Analysis = &result
	article.ProcessingTime = &elapsed

	project, finished, err := a.finish(ctx, article)
	if err != nil {
		return a.fail(ctx, log, article, req.HTMLContent, start, fmt.Errorf("store results: %w", err))
	}

	log.Info("analysis completed",
		"opportunities", len(result.Opportunities),
		"used_fallback", result.UsedFallback,
		"processing_time", elapsed,
		"project_completed", project.CompletedArticles,
		"project_total", project.TotalArticles)

	if finished {
		a.notifyCompleted(ctx, project)
	}
	return result, nil
}

func (a *Analyzer) begin(ctx context.Context, articleID, projectID, htmlContent string) error {
	return a.store.WithinTx(ctx, func(tx ports.Store) error {
		if err := tx.BeginAnalysis(ctx, articleID, htmlContent); err != nil {
			return err
		}
		_, _, err := syncProgress(ctx, tx, projectID, true)
		return err
	})
}

// finish stores the attempt outcome and recounts the project. It reports
// whether this attempt moved the project into completed.
func (a *Analyzer) finish(ctx context.Context, article domain.Article) (domain.Project, bool, error) {
	var (
		project  domain.Project
		finished bool
	)
	err := a.store.WithinTx(ctx, func(tx ports.Store) error {
		if err := tx.FinishAnalysis(ctx, article); err != nil {
			return err
		}
		var err error
		project, finished, err = syncProgress(ctx, tx, article.ProjectID, false)
		return err
	})
	return project, finished, err
}

func (a *Analyzer) fail(ctx context.Context, log *slog.Logger, article domain.Article, htmlContent string, start time.Time, cause error) (domain.AnalysisResult, error) {
	elapsed := a.clock().Sub(start).Seconds()
	article.HTMLContent = htmlContent
	article.Status = domain.ArticleError
	article.Analysis = nil
	article.ProcessingTime = &elapsed

	// The failure is recorded even when the caller has gone away.
	if _, _, err := a.finish(context.WithoutCancel(ctx), article); err != nil {
		log.Error("record analysis failure", "error", err)
	}

	log.Error("analysis failed", "error", cause, "processing_time", elapsed)
	return domain.AnalysisResult{}, fmt.Errorf("%w: article %s: %w", domain.ErrAnalysis, article.ID, cause)
}

func (a *Analyzer) notifyCompleted(ctx context.Context, project domain.Project) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.ProjectCompleted(ctx, project); err != nil {
		a.logger.Warn("project completion notification failed", "project_id", project.ID, "error", err)
	}
}

// syncProgress recounts completed articles and derives the project status.
// It reports whether the project has just become completed.
func syncProgress(ctx context.Context, tx ports.Store, projectID string, started bool) (domain.Project, bool, error) {
	completed, err := tx.RecountCompleted(ctx, projectID)
	if err != nil {
		return domain.Project{}, false, fmt.Errorf("recount project: %w", err)
	}

	project, err := tx.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, false, err
	}

	previous := project.Status
	next := project.Progress(completed)
	if started && next == domain.ProjectReady {
		next = domain.ProjectProcessing
	}
	if next == previous {
		return project, false, nil
	}

	project.Status = next
	if err := tx.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, false, fmt.Errorf("update project status: %w", err)
	}
	return project, next == domain.ProjectCompleted, nil
}
