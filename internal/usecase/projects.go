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

// Projects serves project and article lookups.
type Projects struct {
	store  ports.Store
	clock  func() time.Time
	newID  func() string
	logger *slog.Logger
}

// NewProjects constructs the project service.
func NewProjects(deps Deps) *Projects {
	deps = deps.withDefaults()
	return &Projects{store: deps.Store, clock: deps.Clock, newID: deps.NewID, logger: deps.Logger}
}

// Create registers an empty project.
func (p *Projects) Create(ctx context.Context, name string) (domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, fmt.Errorf("%w: project name is required", domain.ErrValidation)
	}

	project := domain.Project{
		ID:        p.newID(),
		Name:      name,
		Status:    domain.ProjectCreated,
		CreatedAt: p.clock().UTC(),
	}
	if err := p.store.CreateProject(ctx, project); err != nil {
		return domain.Project{}, fmt.Errorf("create project: %w", err)
	}

	p.logger.Info("project created", "project_id", project.ID, "name", project.Name)
	return project, nil
}

// List returns all projects, newest first.
func (p *Projects) List(ctx context.Context) ([]domain.Project, error) {
	projects, err := p.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Get returns one project.
func (p *Projects) Get(ctx context.Context, id string) (domain.Project, error) {
	return p.store.GetProject(ctx, id)
}

// Articles returns the project's articles in batch order.
func (p *Projects) Articles(ctx context.Context, projectID string) ([]domain.Article, error) {
	if _, err := p.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	articles, err := p.store.ListArticles(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// Article returns one article with its analysis, if any.
func (p *Projects) Article(ctx context.Context, id string) (domain.Article, error) {
	return p.store.GetArticle(ctx, id)
}
